package storage

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyOrder(t *testing.T) {
	t.Parallel()

	// Keys in ascending order.
	ordered := []interface{}{
		math.Inf(-1),
		-1e10,
		-1,
		-0.5,
		0,
		0.5,
		1,
		2,
		1e10,
		math.Inf(1),
		"",
		"\x00",
		"A",
		"a",
		"a\x00",
		"a\x00b",
		"ab",
		"b",
		[]byte{},
		[]byte{0},
		[]byte{0, 0},
		[]byte{1},
		[]byte{0xff},
		[]interface{}{},
		[]interface{}{-1},
		[]interface{}{1},
		[]interface{}{1, "a"},
		[]interface{}{"a"},
		[]interface{}{[]interface{}{}},
	}

	encoded := make([][]byte, len(ordered))
	for i, key := range ordered {
		enc, err := EncodeKey(key)
		require.NoError(t, err, "key %v", key)
		encoded[i] = enc
	}
	for i := 1; i < len(encoded); i++ {
		assert.Equal(t, -1, bytes.Compare(encoded[i-1], encoded[i]), "%v < %v", ordered[i-1], ordered[i])
		// No encoded key is a prefix of another.
		assert.False(t, bytes.HasPrefix(encoded[i], encoded[i-1]), "%v prefixes %v", ordered[i-1], ordered[i])
	}
}

func TestKeyRoundTrip(t *testing.T) {
	t.Parallel()

	keys := []interface{}{
		float64(-3.25),
		float64(0),
		float64(42),
		"",
		"hello\x00world",
		[]byte{0, 1, 0xff, 0},
		[]interface{}{"a", float64(1), []interface{}{[]byte{2}}},
	}
	for _, key := range keys {
		enc, err := EncodeKey(key)
		require.NoError(t, err)
		dec, n, err := DecodeKey(append(enc, 0x42))
		require.NoError(t, err)
		assert.Equal(t, len(enc), n)
		assert.Equal(t, key, dec)
	}
}

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	for _, key := range []interface{}{int(7), int8(7), int32(7), uint16(7), uint64(7), float32(7)} {
		n, err := NormalizeKey(key)
		require.NoError(t, err)
		assert.Equal(t, float64(7), n)
	}

	n, err := NormalizeKey([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, n)

	for _, key := range []interface{}{nil, true, math.NaN(), map[string]interface{}{}, []interface{}{true}, struct{}{}} {
		_, err := NormalizeKey(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %v", key)
		assert.False(t, IsValidKey(key))
	}

	c, err := CompareKeys(1, "1")
	require.NoError(t, err)
	assert.Equal(t, -1, c)
	c, err = CompareKeys([]interface{}{1}, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestDecodeKeyErrors(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{
		{},
		{0x99},
		{tagNumber, 1, 2},
		{tagString, 'a'},
		{tagString, 'a', 0x00, 0x05},
		{tagArray, tagNumber},
		{tagArray},
	} {
		_, _, err := DecodeKey(data)
		assert.ErrorIs(t, err, ErrInvalidKey, "data %x", data)
	}
}

func TestKeyRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		r        *KeyRange
		included []interface{}
		excluded []interface{}
	}{
		{Only("b"), []interface{}{"b"}, []interface{}{"a", "b\x00", "ba", 1}},
		{LowerBound(1, false), []interface{}{1, 2, "a", []interface{}{}}, []interface{}{0, -1}},
		{LowerBound(1, true), []interface{}{1.5, 2}, []interface{}{1, 0}},
		{UpperBound("m", false), []interface{}{"m", "a", 100}, []interface{}{"ma", "n", []byte{}}},
		{UpperBound("m", true), []interface{}{"l", "a"}, []interface{}{"m", "ma"}},
		{Bound(1, 3, true, false), []interface{}{2, 3}, []interface{}{1, 4}},
		{Bound([]interface{}{1}, []interface{}{2}, false, true), []interface{}{[]interface{}{1, 5}}, []interface{}{[]interface{}{2}, 1}},
	}
	for _, test := range tests {
		for _, key := range test.included {
			ok, err := test.r.Includes(key)
			require.NoError(t, err)
			assert.True(t, ok, "%s includes %v", test.r, key)
		}
		for _, key := range test.excluded {
			ok, err := test.r.Includes(key)
			require.NoError(t, err)
			assert.False(t, ok, "%s excludes %v", test.r, key)
		}
	}

	assert.ErrorIs(t, Bound(3, 1, false, false).Check(), ErrDataError)
	assert.ErrorIs(t, Bound(1, 1, false, true).Check(), ErrDataError)
	assert.NoError(t, Bound(1, 1, false, false).Check())
	assert.ErrorIs(t, Only(true).Check(), ErrInvalidKey)

	var unbounded *KeyRange
	ok, err := unbounded.Includes("anything")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPrefixEnd(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{1, 3}, PrefixEnd([]byte{1, 2}))
	assert.Equal(t, []byte{2}, PrefixEnd([]byte{1, 0xff}))
	assert.Nil(t, PrefixEnd([]byte{0xff, 0xff}))
	assert.Nil(t, PrefixEnd(nil))
}
