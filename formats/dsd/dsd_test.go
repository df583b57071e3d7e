package dsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SimpleTestStruct struct {
	S string
	B byte
}

func TestConversion(t *testing.T) {
	t.Parallel()

	doc := map[string]interface{}{
		"id":    "A",
		"title": "write tests",
		"tags":  []interface{}{"a", "b"},
		"meta": map[string]interface{}{
			"owner": "dev",
		},
	}

	for _, format := range []uint8{AUTO, JSON, CBOR, MsgPack} {
		format := format
		t.Run(FormatName(format), func(t *testing.T) {
			t.Parallel()

			data, err := Dump(doc, format)
			require.NoError(t, err)

			loaded := make(map[string]interface{})
			loadedFormat, err := Load(data, &loaded)
			require.NoError(t, err)
			if format == AUTO {
				assert.Equal(t, uint8(JSON), loadedFormat, "auto should resolve to the default format")
			} else {
				assert.Equal(t, format, loadedFormat)
			}

			assert.Equal(t, "A", loaded["id"])
			assert.Equal(t, "write tests", loaded["title"])
			assert.Equal(t, []interface{}{"a", "b"}, loaded["tags"])
			meta, ok := loaded["meta"].(map[string]interface{})
			require.True(t, ok, "nested maps must have string keys, got %T", loaded["meta"])
			assert.Equal(t, "dev", meta["owner"])
		})
	}
}

func TestStructs(t *testing.T) {
	t.Parallel()

	subject := &SimpleTestStruct{S: "a", B: 0x01}
	for _, format := range []uint8{JSON, CBOR, MsgPack} {
		data, err := Dump(subject, format)
		require.NoError(t, err, "format %s", FormatName(format))

		loaded := &SimpleTestStruct{}
		_, err = Load(data, loaded)
		require.NoError(t, err, "format %s", FormatName(format))
		assert.Equal(t, subject, loaded, "format %s", FormatName(format))
	}
}

func TestCompression(t *testing.T) {
	t.Parallel()

	doc := map[string]interface{}{"payload": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}

	data, err := DumpAndCompress(doc, MsgPack, AUTO)
	require.NoError(t, err)
	assert.Equal(t, byte(GZIP), data[0])

	loaded := make(map[string]interface{})
	format, err := Load(data, &loaded)
	require.NoError(t, err)
	assert.Equal(t, uint8(MsgPack), format)
	assert.Equal(t, doc["payload"], loaded["payload"])
}

func TestInvalid(t *testing.T) {
	t.Parallel()

	_, err := Dump("x", 99)
	assert.ErrorIs(t, err, ErrIncompatibleFormat)

	_, err = Load([]byte{JSON}, &map[string]interface{}{})
	assert.ErrorIs(t, err, ErrNoMoreSpace)

	_, err = Load([]byte{JSON, '{'}, &map[string]interface{}{})
	assert.Error(t, err)

	_, err = DumpAndCompress("x", JSON, JSON)
	assert.ErrorIs(t, err, ErrIncompatibleFormat)

	format, err := ParseFormat("CBOR")
	require.NoError(t, err)
	assert.Equal(t, uint8(CBOR), format)
	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
