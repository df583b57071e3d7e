package varint

import (
	"bytes"
	"testing"
)

func TestConversion(t *testing.T) {
	t.Parallel()

	subjects := []struct {
		intType uint8
		bytes   []byte
		integer uint64
	}{
		{8, []byte{0x00}, 0},
		{8, []byte{0x01}, 1},
		{8, []byte{0x7F}, 127},
		{8, []byte{0x80, 0x01}, 128},
		{8, []byte{0xFF, 0x01}, 255},

		{16, []byte{0x80, 0x02}, 256},
		{16, []byte{0xFF, 0xFF, 0x03}, 65535},

		{32, []byte{0x80, 0x80, 0x04}, 65536},
		{32, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, 4294967295},

		{64, []byte{0x80, 0x80, 0x80, 0x80, 0x10}, 4294967296},
		{64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}, 18446744073709551615},
	}

	for _, subject := range subjects {
		actualInteger, _, err := Unpack64(subject.bytes)
		if err != nil || actualInteger != subject.integer {
			t.Errorf("Unpack64 %d: expected %d, actual %d (err=%v)", subject.bytes, subject.integer, actualInteger, err)
		}
		actualBytes := Pack64(subject.integer)
		if !bytes.Equal(actualBytes, subject.bytes) {
			t.Errorf("Pack64 %d: expected %d, actual %d", subject.integer, subject.bytes, actualBytes)
		}
		if EncodedSize(subject.integer) != len(subject.bytes) {
			t.Errorf("EncodedSize %d: expected %d, actual %d", subject.integer, len(subject.bytes), EncodedSize(subject.integer))
		}

		if subject.intType <= 8 {
			i8, _, err := Unpack8(subject.bytes)
			if err != nil || uint64(i8) != subject.integer {
				t.Errorf("Unpack8 %d: expected %d, actual %d (err=%v)", subject.bytes, subject.integer, i8, err)
			}
			if !bytes.Equal(Pack8(uint8(subject.integer)), subject.bytes) {
				t.Errorf("Pack8 %d: mismatch", subject.integer)
			}
		}
		if subject.intType <= 32 {
			i32, _, err := Unpack32(subject.bytes)
			if err != nil || uint64(i32) != subject.integer {
				t.Errorf("Unpack32 %d: expected %d, actual %d (err=%v)", subject.bytes, subject.integer, i32, err)
			}
		}
	}
}

func TestFails(t *testing.T) {
	t.Parallel()

	subjects := []struct {
		intType uint8
		bytes   []byte
	}{
		{8, []byte{}},
		{8, []byte{0x80}},
		{8, []byte{0x80, 0x02}},
		{16, []byte{0x80, 0x80, 0x04}},
		{32, []byte{0x80, 0x80, 0x80, 0x80, 0x10}},
		{64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x02}},
	}

	for _, subject := range subjects {
		var err error
		switch subject.intType {
		case 8:
			_, _, err = Unpack8(subject.bytes)
		case 16:
			_, _, err = Unpack16(subject.bytes)
		case 32:
			_, _, err = Unpack32(subject.bytes)
		case 64:
			_, _, err = Unpack64(subject.bytes)
		}
		if err == nil {
			t.Errorf("Unpack%d %d: expected error", subject.intType, subject.bytes)
		}
	}
}

func TestBlocks(t *testing.T) {
	t.Parallel()

	block := PrependLength([]byte("hello"))
	data, n, err := GetNextBlock(append(block, []byte("rest")...))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" || n != 6 {
		t.Fatalf("unexpected block %q (%d)", data, n)
	}

	_, _, err = GetNextBlock([]byte{0x05, 'a'})
	if err == nil {
		t.Fatal("short block should fail")
	}
}
