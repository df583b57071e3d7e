package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/objectbase/database/storage"
	"github.com/safing/objectbase/database/storage/storagetest"
)

func TestSQLite(t *testing.T) {
	t.Parallel()

	storagetest.Run(t, func(t *testing.T) storage.Engine {
		t.Helper()

		e, err := NewSQLite("test", t.TempDir())
		require.NoError(t, err)
		return e
	})
}

func TestReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e, err := NewSQLite("test", dir)
	require.NoError(t, err)

	txn, err := e.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Put([]byte{1, 2, 3}, []byte("kept")))
	require.NoError(t, txn.Commit())

	maintainer, ok := e.(storage.Maintainer)
	require.True(t, ok)
	assert.NoError(t, maintainer.Maintain())
	assert.NoError(t, maintainer.MaintainThorough())
	require.NoError(t, e.Shutdown())

	e, err = NewSQLite("test", dir)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, e.Shutdown())
	}()

	txn, err = e.Begin(false)
	require.NoError(t, err)
	defer txn.Discard()
	v, err := txn.Get([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), v)
	assert.Error(t, txn.Put([]byte{4}, []byte("x")))
}
