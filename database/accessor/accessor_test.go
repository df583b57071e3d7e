package accessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJSON = `{
	"S": "banana",
	"I": 42,
	"F": 42.42,
	"B": true,
	"N": null,
	"A": [1, "two", 3],
	"Sub": {
		"Name": "inner",
		"Level": 2
	}
}`

func TestJSONAccessorGet(t *testing.T) {
	t.Parallel()

	acc := NewJSONAccessor([]byte(testJSON))

	v, ok := acc.Get("S")
	assert.True(t, ok)
	assert.Equal(t, "banana", v)

	v, ok = acc.Get("I")
	assert.True(t, ok)
	assert.Equal(t, float64(42), v)

	v, ok = acc.Get("A")
	assert.True(t, ok)
	assert.Equal(t, []interface{}{float64(1), "two", float64(3)}, v)

	v, ok = acc.Get("Sub.Name")
	assert.True(t, ok)
	assert.Equal(t, "inner", v)

	v, ok = acc.Get("N")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = acc.Get("Missing")
	assert.False(t, ok)
	_, ok = acc.Get("Sub.Missing")
	assert.False(t, ok)

	// Query syntax is not a key path.
	_, ok = acc.Get("A.#")
	assert.False(t, ok)
}

func TestJSONAccessorTyped(t *testing.T) {
	t.Parallel()

	acc := NewJSONAccessor([]byte(testJSON))

	s, ok := acc.GetString("S")
	assert.True(t, ok)
	assert.Equal(t, "banana", s)
	_, ok = acc.GetString("I")
	assert.False(t, ok)

	f, ok := acc.GetFloat("F")
	assert.True(t, ok)
	assert.Equal(t, 42.42, f)
	_, ok = acc.GetFloat("S")
	assert.False(t, ok)

	b, ok := acc.GetBool("B")
	assert.True(t, ok)
	assert.True(t, b)
	_, ok = acc.GetBool("S")
	assert.False(t, ok)

	assert.True(t, acc.Exists("Sub.Level"))
	assert.False(t, acc.Exists("Sub.Nope"))
}

func TestJSONAccessorSet(t *testing.T) {
	t.Parallel()

	acc := NewJSONAccessor([]byte(testJSON))

	require.NoError(t, acc.Set("S", "coconut"))
	s, _ := acc.GetString("S")
	assert.Equal(t, "coconut", s)

	require.NoError(t, acc.Set("id", 7))
	f, ok := acc.GetFloat("id")
	assert.True(t, ok)
	assert.Equal(t, float64(7), f)

	require.NoError(t, acc.Set("Sub.Extra", true))
	b, ok := acc.GetBool("Sub.Extra")
	assert.True(t, ok)
	assert.True(t, b)

	var typeErr *InvalidValueTypeError
	err := acc.Set("S", 1)
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "S", typeErr.FieldName)

	assert.ErrorIs(t, acc.Set("bad..path", 1), ErrInvalidPath)
}

func TestValidPath(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"a", "postDate", "a.b.c", "_x", "$y", "a1.b2"} {
		assert.True(t, ValidPath(path), path)
	}
	for _, path := range []string{"", ".", "a.", ".a", "1a", "a b", "a.#", "a*", "a|b", "a@b"} {
		assert.False(t, ValidPath(path), path)
	}
}
