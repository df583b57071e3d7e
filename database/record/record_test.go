package record

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/objectbase/database/storage"
	"github.com/safing/objectbase/formats/dsd"
)

func TestFromEntry(t *testing.T) {
	t.Parallel()

	value := map[string]interface{}{
		"title": "write tests",
		"count": 3,
		"sub": map[string]interface{}{
			"level": uint8(2),
		},
		"tags": []interface{}{"a", int64(1)},
	}

	for _, format := range []uint8{dsd.JSON, dsd.CBOR, dsd.MsgPack} {
		data, err := dsd.Dump(value, format)
		require.NoError(t, err)

		r, err := FromEntry(&storage.Entry{Key: "x", PrimaryKey: 7, Data: data})
		require.NoError(t, err, dsd.FormatName(format))
		assert.Equal(t, float64(7), r.Key)
		assert.Equal(t, map[string]interface{}{
			"title": "write tests",
			"count": float64(3),
			"sub": map[string]interface{}{
				"level": float64(2),
			},
			"tags": []interface{}{"a", float64(1)},
		}, r.Value, dsd.FormatName(format))
	}

	data, err := dsd.Dump([]interface{}{1, 2}, dsd.JSON)
	require.NoError(t, err)
	_, err = FromEntry(&storage.Entry{PrimaryKey: 1, Data: data})
	assert.ErrorIs(t, err, ErrNotAnObject)

	_, err = FromEntry(nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCopy(t *testing.T) {
	t.Parallel()

	r := Record{
		Key: []interface{}{"a", float64(1)},
		Value: map[string]interface{}{
			"sub": map[string]interface{}{"x": "y"},
		},
	}
	c := r.Copy()
	assert.Equal(t, r, c)

	c.Value["sub"].(map[string]interface{})["x"] = "changed"
	c.Key.([]interface{})[0] = "b"
	assert.Equal(t, "y", r.Value["sub"].(map[string]interface{})["x"])
	assert.Equal(t, "a", r.Key.([]interface{})[0])

	assert.Nil(t, CopyValue(nil))
}

func TestGet(t *testing.T) {
	t.Parallel()

	r := Record{Value: map[string]interface{}{
		"a": map[string]interface{}{"b": "c"},
		"d": 1,
	}}

	v, ok := r.Get("a.b")
	assert.True(t, ok)
	assert.Equal(t, "c", v)
	v, ok = r.Get("d")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = r.Get("d.e")
	assert.False(t, ok)
	_, ok = r.Get("")
	assert.False(t, ok)
}

func TestTruthy(t *testing.T) {
	t.Parallel()

	for _, v := range []interface{}{true, 1, -1, 0.5, "x", "false", []interface{}{}, map[string]interface{}{}} {
		assert.True(t, Truthy(v), "%v", v)
	}
	for _, v := range []interface{}{nil, false, 0, int64(0), 0.0, math.NaN(), ""} {
		assert.False(t, Truthy(v), "%v", v)
	}
}
