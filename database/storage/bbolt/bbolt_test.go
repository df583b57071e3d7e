package bbolt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/objectbase/database/storage"
	"github.com/safing/objectbase/database/storage/storagetest"
	"github.com/safing/objectbase/formats/dsd"
)

func TestBBolt(t *testing.T) {
	t.Parallel()

	storagetest.Run(t, func(t *testing.T) storage.Engine {
		t.Helper()

		e, err := NewBBolt("test", t.TempDir())
		require.NoError(t, err)
		return e
	})
}

func TestPersistence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e, err := NewBBolt("test", dir)
	require.NoError(t, err)
	b, err := storage.NewBackend("test", e, dsd.CBOR)
	require.NoError(t, err)

	require.NoError(t, b.Upgrade(3, func(vc storage.VersionChange) error {
		s, err := vc.CreateStore("notes", storage.StoreOptions{KeyPath: "meta.id", AutoIncrement: true})
		if err != nil {
			return err
		}
		if err := vc.CreateIndex("notes", "tag", "tag", storage.IndexOptions{}); err != nil {
			return err
		}
		_, err = s.Add(map[string]interface{}{"tag": "x", "meta": map[string]interface{}{}}, nil)
		return err
	}))
	require.NoError(t, b.Shutdown())

	e, err = NewBBolt("test", dir)
	require.NoError(t, err)
	b, err = storage.NewBackend("test", e, dsd.CBOR)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, b.Shutdown())
	}()

	assert.Equal(t, uint64(3), b.Version())
	assert.Equal(t, []string{"notes"}, b.StoreNames())

	tx, err := b.Begin([]string{"notes"}, storage.ReadOnly)
	require.NoError(t, err)
	defer tx.Rollback()
	s, err := tx.Store("notes")
	require.NoError(t, err)
	schema := s.Schema()
	assert.Equal(t, "meta.id", schema.KeyPath)
	assert.True(t, schema.AutoIncrement)
	assert.Equal(t, []string{"tag"}, schema.IndexNames())

	idx, err := s.Index("tag")
	require.NoError(t, err)
	c, err := idx.OpenCursor(storage.Only("x"), storage.Forward)
	require.NoError(t, err)
	require.True(t, c.Valid())
	assert.Equal(t, float64(1), c.PrimaryKey())

	// The generated key was written into the value.
	var v map[string]interface{}
	require.NoError(t, c.Value(&v))
	meta, ok := v["meta"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, meta["id"])
}
