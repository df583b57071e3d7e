// Package storagetest provides a conformance suite for storage engines.
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/objectbase/database/storage"
	"github.com/safing/objectbase/formats/dsd"
)

// Factory starts a new, empty engine.
type Factory func(t *testing.T) storage.Engine

// Run runs the engine and object-store tests against engines created by factory.
func Run(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("Engine", func(t *testing.T) { TestEngine(t, factory(t)) })
	t.Run("Upgrade", func(t *testing.T) { TestUpgrade(t, factory(t)) })
	t.Run("Records", func(t *testing.T) { TestRecords(t, factory(t)) })
	t.Run("Cursors", func(t *testing.T) { TestCursors(t, factory(t)) })
	t.Run("Transactions", func(t *testing.T) { TestTransactions(t, factory(t)) })
}

func set(t *testing.T, e storage.Engine, kv ...string) {
	t.Helper()

	txn, err := e.Begin(true)
	require.NoError(t, err)
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, txn.Put([]byte(kv[i]), []byte(kv[i+1])))
	}
	require.NoError(t, txn.Commit())
}

// TestEngine tests the raw engine contract.
func TestEngine(t *testing.T, e storage.Engine) {
	t.Helper()
	defer func() {
		assert.NoError(t, e.Shutdown())
	}()

	set(t, e,
		"a", "0",
		"b/1", "1",
		"b/2", "2",
		"b/3", "3",
		"c", "4",
	)

	txn, err := e.Begin(false)
	require.NoError(t, err)

	v, err := txn.Get([]byte("b/2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	_, err = txn.Get([]byte("b/4"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	seek := func(prefix, pivot string, reverse bool) string {
		var p []byte
		if pivot != "" {
			p = []byte(pivot)
		}
		k, _, err := txn.Seek([]byte(prefix), p, reverse)
		require.NoError(t, err)
		return string(k)
	}
	assert.Equal(t, "b/1", seek("b/", "", false))
	assert.Equal(t, "b/2", seek("b/", "b/2", false))
	assert.Equal(t, "b/3", seek("b/", "b/2\x00", false))
	assert.Equal(t, "", seek("b/", "b/4", false))
	assert.Equal(t, "b/1", seek("b/", "a", false))
	assert.Equal(t, "b/3", seek("b/", "", true))
	assert.Equal(t, "b/1", seek("b/", "b/2", true))
	assert.Equal(t, "b/2", seek("b/", "b/3", true))
	assert.Equal(t, "", seek("b/", "b/1", true))
	assert.Equal(t, "", seek("d", "", false))
	assert.Equal(t, "", seek("d", "", true))
	require.NoError(t, txn.Commit())

	// Discarded writes are not visible.
	txn, err = e.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Put([]byte("b/4"), []byte("4")))
	require.NoError(t, txn.Delete([]byte("a")))
	v, err = txn.Get([]byte("b/4"))
	require.NoError(t, err)
	assert.Equal(t, []byte("4"), v)
	txn.Discard()

	txn, err = e.Begin(true)
	require.NoError(t, err)
	_, err = txn.Get([]byte("b/4"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = txn.Get([]byte("a"))
	require.NoError(t, err)

	// Committed writes are.
	require.NoError(t, txn.Delete([]byte("a")))
	require.NoError(t, txn.Delete([]byte("missing")))
	require.NoError(t, txn.Put([]byte("c"), []byte("5")))
	require.NoError(t, txn.Commit())
	txn.Discard()

	txn, err = e.Begin(false)
	require.NoError(t, err)
	defer txn.Discard()
	_, err = txn.Get([]byte("a"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	v, err = txn.Get([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, []byte("5"), v)
}

func newBackend(t *testing.T, e storage.Engine) *storage.Backend {
	t.Helper()

	b, err := storage.NewBackend("test", e, dsd.JSON)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, b.Shutdown())
	})
	return b
}

// setupTasks creates a store "tasks" with in-line keys at "id" and indexes
// on "title" and the unique "slug".
func setupTasks(t *testing.T, b *storage.Backend) {
	t.Helper()

	err := b.Upgrade(b.Version()+1, func(vc storage.VersionChange) error {
		if vc.HasStore("tasks") {
			if err := vc.DeleteStore("tasks"); err != nil {
				return err
			}
		}
		if _, err := vc.CreateStore("tasks", storage.StoreOptions{KeyPath: "id"}); err != nil {
			return err
		}
		if err := vc.CreateIndex("tasks", "title", "title", storage.IndexOptions{}); err != nil {
			return err
		}
		return vc.CreateIndex("tasks", "slug", "slug", storage.IndexOptions{Unique: true})
	})
	require.NoError(t, err)
}

func task(id int, title, slug string) map[string]interface{} {
	v := map[string]interface{}{
		"id":    id,
		"title": title,
	}
	if slug != "" {
		v["slug"] = slug
	}
	return v
}

// TestUpgrade tests versioned schema changes.
func TestUpgrade(t *testing.T, e storage.Engine) {
	t.Helper()

	b := newBackend(t, e)
	assert.Equal(t, uint64(0), b.Version())
	assert.Empty(t, b.StoreNames())

	setupTasks(t, b)
	assert.Equal(t, uint64(1), b.Version())
	assert.Equal(t, []string{"tasks"}, b.StoreNames())

	// A failed upgrade changes nothing.
	err := b.Upgrade(2, func(vc storage.VersionChange) error {
		assert.Equal(t, uint64(1), vc.OldVersion())
		assert.Equal(t, uint64(2), vc.NewVersion())
		if _, err := vc.CreateStore("other", storage.StoreOptions{AutoIncrement: true}); err != nil {
			return err
		}
		_, err := vc.CreateStore("tasks", storage.StoreOptions{})
		return err
	})
	assert.ErrorIs(t, err, storage.ErrStoreExists)
	assert.Equal(t, uint64(1), b.Version())
	assert.Equal(t, []string{"tasks"}, b.StoreNames())

	// Lower versions are rejected, the same version is a no-op.
	assert.ErrorIs(t, b.Upgrade(0, func(storage.VersionChange) error { return nil }), storage.ErrVersion)
	require.NoError(t, b.Upgrade(1, func(storage.VersionChange) error {
		t.Fatal("upgrade to the current version must not run")
		return nil
	}))

	// Indexes are filled with existing records.
	tx, err := b.Begin([]string{"tasks"}, storage.ReadWrite)
	require.NoError(t, err)
	s, err := tx.Store("tasks")
	require.NoError(t, err)
	_, err = s.Add(map[string]interface{}{"id": 1, "done": false}, nil)
	require.NoError(t, err)
	_, err = s.Add(map[string]interface{}{"id": 2, "done": true}, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.NoError(t, b.Upgrade(2, func(vc storage.VersionChange) error {
		return vc.CreateIndex("tasks", "done", "done", storage.IndexOptions{})
	}))
	tx, err = b.Begin([]string{"tasks"}, storage.ReadOnly)
	require.NoError(t, err)
	s, err = tx.Store("tasks")
	require.NoError(t, err)
	assert.Equal(t, []string{"done", "slug", "title"}, s.Schema().IndexNames())
	idx, err := s.Index("done")
	require.NoError(t, err)
	n, err := idx.Count(nil)
	require.NoError(t, err)
	// Booleans are not valid keys.
	assert.Equal(t, 0, n)
	tx.Rollback()

	// Deleting a store removes its records.
	setupTasks(t, b)
	tx, err = b.Begin([]string{"tasks"}, storage.ReadOnly)
	require.NoError(t, err)
	s, err = tx.Store("tasks")
	require.NoError(t, err)
	n, err = s.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	tx.Rollback()
}

// TestRecords tests writing and reading records.
func TestRecords(t *testing.T, e storage.Engine) {
	t.Helper()

	b := newBackend(t, e)
	setupTasks(t, b)
	require.NoError(t, b.Upgrade(2, func(vc storage.VersionChange) error {
		_, err := vc.CreateStore("log", storage.StoreOptions{AutoIncrement: true})
		if err != nil {
			return err
		}
		_, err = vc.CreateStore("plain", storage.StoreOptions{})
		return err
	}))

	tx, err := b.Begin([]string{"tasks", "log", "plain"}, storage.ReadWrite)
	require.NoError(t, err)
	defer tx.Rollback()

	tasks, err := tx.Store("tasks")
	require.NoError(t, err)

	key, err := tasks.Add(task(1, "write", "write"), nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), key)

	// In-line keys
	_, err = tasks.Add(task(1, "again", ""), nil)
	assert.ErrorIs(t, err, storage.ErrConstraint)
	_, err = tasks.Add(task(2, "explicit", ""), 2)
	assert.ErrorIs(t, err, storage.ErrDataError)
	_, err = tasks.Add(map[string]interface{}{"title": "no key"}, nil)
	assert.ErrorIs(t, err, storage.ErrDataError)
	_, err = tasks.Add(map[string]interface{}{"id": true}, nil)
	assert.ErrorIs(t, err, storage.ErrDataError)

	// Unique index
	_, err = tasks.Add(task(2, "copy", "write"), nil)
	assert.ErrorIs(t, err, storage.ErrConstraint)
	_, err = tasks.Put(task(1, "rewrite", "write"), nil)
	require.NoError(t, err)
	_, err = tasks.Put(task(2, "copy", "copy"), nil)
	require.NoError(t, err)

	entry, err := tasks.Get(1)
	require.NoError(t, err)
	assert.Equal(t, float64(1), entry.Key)
	var v map[string]interface{}
	_, err = dsd.Load(entry.Data, &v)
	require.NoError(t, err)
	assert.Equal(t, "rewrite", v["title"])
	_, err = tasks.Get(3)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Replaced records leave the index.
	title, err := tasks.Index("title")
	require.NoError(t, err)
	n, err := title.Count(storage.Only("write"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = title.Count(storage.Only("rewrite"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = tasks.Index("missing")
	assert.ErrorIs(t, err, storage.ErrUnknownIndex)

	// Deleting records
	require.NoError(t, tasks.Delete(2))
	require.NoError(t, tasks.Delete(2))
	_, err = tasks.Add(task(3, "third", "copy"), nil)
	require.NoError(t, err)

	// Generated keys
	logStore, err := tx.Store("log")
	require.NoError(t, err)
	key, err = logStore.Add(map[string]interface{}{"msg": "first"}, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), key)
	key, err = logStore.Add(map[string]interface{}{"msg": "explicit"}, 10)
	require.NoError(t, err)
	assert.Equal(t, float64(10), key)
	key, err = logStore.Add(map[string]interface{}{"msg": "next"}, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(11), key)
	key, err = logStore.Add(map[string]interface{}{"msg": "string key"}, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", key)
	n, err = logStore.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Out-of-line keys without generator
	plain, err := tx.Store("plain")
	require.NoError(t, err)
	_, err = plain.Add(map[string]interface{}{"a": 1}, nil)
	assert.ErrorIs(t, err, storage.ErrDataError)
	_, err = plain.Add(map[string]interface{}{"a": 1}, []interface{}{"a", 1})
	require.NoError(t, err)
	entry, err = plain.Get([]interface{}{"a", 1})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", float64(1)}, entry.Key)

	// Range deletes and clearing
	require.NoError(t, logStore.Delete(storage.Bound(1, 10, false, false)))
	n, err = logStore.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, logStore.Clear())
	n, err = logStore.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	key, err = logStore.Add(map[string]interface{}{"msg": "after clear"}, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(12), key)

	require.NoError(t, tx.Commit())
}

type cursorSource interface {
	OpenCursor(r *storage.KeyRange, dir storage.Direction) (storage.Cursor, error)
}

func collect(t *testing.T, c storage.Cursor) []interface{} {
	t.Helper()

	var keys []interface{}
	for c.Valid() {
		keys = append(keys, c.PrimaryKey())
		require.NoError(t, c.Continue())
	}
	return keys
}

// TestCursors tests cursor directions and ranges.
func TestCursors(t *testing.T, e storage.Engine) {
	t.Helper()

	b := newBackend(t, e)
	setupTasks(t, b)

	tx, err := b.Begin([]string{"tasks"}, storage.ReadWrite)
	require.NoError(t, err)
	s, err := tx.Store("tasks")
	require.NoError(t, err)
	for i, title := range []string{"a", "b", "b", "c", "b"} {
		_, err := s.Add(task(i+1, title, ""), nil)
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())

	tx, err = b.Begin([]string{"tasks"}, storage.ReadOnly)
	require.NoError(t, err)
	defer tx.Rollback()
	s, err = tx.Store("tasks")
	require.NoError(t, err)
	idx, err := s.Index("title")
	require.NoError(t, err)

	open := func(src cursorSource, r *storage.KeyRange, dir storage.Direction) []interface{} {
		c, err := src.OpenCursor(r, dir)
		require.NoError(t, err)
		return collect(t, c)
	}

	f := func(keys ...float64) []interface{} {
		out := make([]interface{}, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out
	}

	// Store cursors
	assert.Equal(t, f(1, 2, 3, 4, 5), open(s, nil, storage.Forward))
	assert.Equal(t, f(5, 4, 3, 2, 1), open(s, nil, storage.Backward))
	assert.Equal(t, f(1, 2, 3, 4, 5), open(s, nil, storage.ForwardUnique))
	assert.Equal(t, f(5, 4, 3, 2, 1), open(s, nil, storage.BackwardUnique))
	assert.Equal(t, f(2, 3, 4), open(s, storage.Bound(2, 4, false, false), storage.Forward))
	assert.Equal(t, f(3), open(s, storage.Bound(2, 4, true, true), storage.Forward))
	assert.Equal(t, f(4, 5), open(s, storage.LowerBound(3, true), storage.Forward))
	assert.Equal(t, f(2, 1), open(s, storage.UpperBound(3, true), storage.Backward))
	assert.Equal(t, f(3), open(s, storage.Only(3), storage.Backward))
	assert.Empty(t, open(s, storage.Only(9), storage.Forward))

	// Index cursors
	assert.Equal(t, f(1, 2, 3, 5, 4), open(idx, nil, storage.Forward))
	assert.Equal(t, f(1, 2, 4), open(idx, nil, storage.ForwardUnique))
	assert.Equal(t, f(4, 5, 3, 2, 1), open(idx, nil, storage.Backward))
	assert.Equal(t, f(4, 2, 1), open(idx, nil, storage.BackwardUnique))
	assert.Equal(t, f(2, 3, 5), open(idx, storage.Only("b"), storage.Forward))
	assert.Equal(t, f(2), open(idx, storage.Only("b"), storage.BackwardUnique))
	assert.Equal(t, f(2, 3, 5, 4), open(idx, storage.LowerBound("a", true), storage.Forward))

	// Invalid directions iterate forward.
	assert.Equal(t, f(1, 2, 3, 4, 5), open(s, nil, storage.Direction(42)))

	// Cursor keys and values
	c, err := idx.OpenCursor(storage.Only("c"), storage.Forward)
	require.NoError(t, err)
	require.True(t, c.Valid())
	assert.Equal(t, "c", c.Key())
	assert.Equal(t, float64(4), c.PrimaryKey())
	var v map[string]interface{}
	require.NoError(t, c.Value(&v))
	assert.Equal(t, "c", v["title"])
	assert.ErrorIs(t, c.Update(v), storage.ErrReadOnly)

	// Advancing
	c, err = s.OpenCursor(nil, storage.Forward)
	require.NoError(t, err)
	require.NoError(t, c.Advance(3))
	assert.Equal(t, float64(4), c.PrimaryKey())
	require.NoError(t, c.Advance(10))
	assert.False(t, c.Valid())
	assert.Nil(t, c.Entry())

	// Invalid ranges
	_, err = s.OpenCursor(storage.Bound(4, 2, false, false), storage.Forward)
	assert.ErrorIs(t, err, storage.ErrDataError)
	_, err = s.OpenCursor(storage.Bound(2, 2, true, false), storage.Forward)
	assert.ErrorIs(t, err, storage.ErrDataError)
}

// TestTransactions tests transaction modes, scopes and cursor writes.
func TestTransactions(t *testing.T, e storage.Engine) {
	t.Helper()

	b := newBackend(t, e)
	setupTasks(t, b)
	require.NoError(t, b.Upgrade(2, func(vc storage.VersionChange) error {
		_, err := vc.CreateStore("other", storage.StoreOptions{AutoIncrement: true})
		return err
	}))

	_, err := b.Begin([]string{"missing"}, storage.ReadOnly)
	assert.ErrorIs(t, err, storage.ErrUnknownStore)
	_, err = b.Begin([]string{"tasks"}, storage.Mode(0))
	assert.ErrorIs(t, err, storage.ErrInvalidMode)

	// Scope
	tx, err := b.Begin([]string{"tasks"}, storage.ReadOnly)
	require.NoError(t, err)
	_, err = tx.Store("other")
	assert.ErrorIs(t, err, storage.ErrScope)
	_, err = tx.Store("missing")
	assert.ErrorIs(t, err, storage.ErrUnknownStore)
	s, err := tx.Store("tasks")
	require.NoError(t, err)
	_, err = s.Add(task(1, "a", ""), nil)
	assert.ErrorIs(t, err, storage.ErrReadOnly)
	require.NoError(t, tx.Commit())
	assert.ErrorIs(t, tx.Commit(), storage.ErrTransactionDone)
	_, err = s.Get(1)
	assert.ErrorIs(t, err, storage.ErrTransactionDone)

	// Rollback
	tx, err = b.Begin([]string{"tasks"}, storage.ReadWrite)
	require.NoError(t, err)
	s, err = tx.Store("tasks")
	require.NoError(t, err)
	_, err = s.Add(task(1, "a", ""), nil)
	require.NoError(t, err)
	tx.Rollback()
	tx.Rollback()

	tx, err = b.Begin([]string{"tasks"}, storage.ReadWrite)
	require.NoError(t, err)
	s, err = tx.Store("tasks")
	require.NoError(t, err)
	n, err := s.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Cursor writes
	for i, title := range []string{"a", "b", "c", "d"} {
		_, err := s.Add(task(i+1, title, ""), nil)
		require.NoError(t, err)
	}
	c, err := s.OpenCursor(nil, storage.Forward)
	require.NoError(t, err)
	for c.Valid() {
		var v map[string]interface{}
		require.NoError(t, c.Value(&v))
		switch v["title"] {
		case "b":
			require.NoError(t, c.Delete())
		case "c":
			v["title"] = "C"
			require.NoError(t, c.Update(v))
		case "d":
			v["id"] = 9
			assert.ErrorIs(t, c.Update(v), storage.ErrDataError)
		}
		require.NoError(t, c.Continue())
	}
	require.NoError(t, tx.Commit())

	tx, err = b.Begin([]string{"tasks"}, storage.ReadOnly)
	require.NoError(t, err)
	defer tx.Rollback()
	s, err = tx.Store("tasks")
	require.NoError(t, err)
	idx, err := s.Index("title")
	require.NoError(t, err)
	c, err = idx.OpenCursor(nil, storage.Forward)
	require.NoError(t, err)
	var titles []interface{}
	for c.Valid() {
		titles = append(titles, c.Key())
		require.NoError(t, c.Continue())
	}
	assert.Equal(t, []interface{}{"C", "a", "d"}, titles)
}
