package hashmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/objectbase/database/storage"
	"github.com/safing/objectbase/database/storage/storagetest"
)

func TestHashMap(t *testing.T) {
	t.Parallel()

	storagetest.Run(t, func(t *testing.T) storage.Engine {
		t.Helper()

		e, err := NewHashMap("test", "")
		require.NoError(t, err)
		return e
	})
}

func TestSnapshots(t *testing.T) {
	t.Parallel()

	e, err := NewHashMap("test", "")
	require.NoError(t, err)

	w, err := e.Begin(true)
	require.NoError(t, err)
	require.NoError(t, w.Put([]byte("a"), []byte("1")))
	require.NoError(t, w.Commit())

	// Readers keep their snapshot while a writer commits.
	r, err := e.Begin(false)
	require.NoError(t, err)
	w, err = e.Begin(true)
	require.NoError(t, err)
	require.NoError(t, w.Put([]byte("a"), []byte("2")))
	require.NoError(t, w.Commit())

	v, err := r.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
	assert.Error(t, r.Put([]byte("b"), []byte("1")))
	r.Discard()

	r, err = e.Begin(false)
	require.NoError(t, err)
	v, err = r.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	r.Discard()

	require.NoError(t, e.Shutdown())
	_, err = e.Begin(false)
	assert.ErrorIs(t, err, storage.ErrShutdown)
}
