package hashmap

import (
	"bytes"
	"errors"
	"sync"

	"github.com/google/btree"

	"github.com/safing/objectbase/database/storage"
)

// HashMap is an in-memory engine. Read transactions work on copy-on-write
// snapshots, write transactions are serialized.
type HashMap struct {
	name string

	// writeLock is held by the running write transaction.
	writeLock sync.Mutex
	// treeLock guards tree.
	treeLock sync.Mutex
	tree     *btree.BTreeG[item]
}

type item struct {
	key   []byte
	value []byte
}

func lessItem(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

func init() {
	_ = storage.Register("hashmap", NewHashMap)
}

// NewHashMap creates a hashmap engine.
func NewHashMap(name, location string) (storage.Engine, error) {
	return &HashMap{
		name: name,
		tree: btree.NewG[item](32, lessItem),
	}, nil
}

// Begin starts a transaction on a snapshot of the current data.
func (hm *HashMap) Begin(writable bool) (storage.EngineTxn, error) {
	if writable {
		hm.writeLock.Lock()
	}

	hm.treeLock.Lock()
	if hm.tree == nil {
		hm.treeLock.Unlock()
		if writable {
			hm.writeLock.Unlock()
		}
		return nil, storage.ErrShutdown
	}
	snapshot := hm.tree.Clone()
	hm.treeLock.Unlock()

	return &txn{
		hm:       hm,
		tree:     snapshot,
		writable: writable,
	}, nil
}

// Shutdown drops all data.
func (hm *HashMap) Shutdown() error {
	hm.writeLock.Lock()
	defer hm.writeLock.Unlock()
	hm.treeLock.Lock()
	defer hm.treeLock.Unlock()

	hm.tree = nil
	return nil
}

type txn struct {
	hm       *HashMap
	tree     *btree.BTreeG[item]
	writable bool
	done     bool
}

var errReadOnly = errors.New("hashmap: write in read-only transaction")

func (t *txn) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, storage.ErrTransactionDone
	}
	found, ok := t.tree.Get(item{key: key})
	if !ok {
		return nil, storage.ErrNotFound
	}
	return duplicate(found.value), nil
}

func (t *txn) Put(key, value []byte) error {
	switch {
	case t.done:
		return storage.ErrTransactionDone
	case !t.writable:
		return errReadOnly
	}
	t.tree.ReplaceOrInsert(item{
		key:   duplicate(key),
		value: duplicate(value),
	})
	return nil
}

func (t *txn) Delete(key []byte) error {
	switch {
	case t.done:
		return storage.ErrTransactionDone
	case !t.writable:
		return errReadOnly
	}
	t.tree.Delete(item{key: key})
	return nil
}

func (t *txn) Seek(prefix, pivot []byte, reverse bool) (key, value []byte, err error) {
	if t.done {
		return nil, nil, storage.ErrTransactionDone
	}

	var (
		found item
		ok    bool
	)
	if !reverse {
		if pivot == nil || bytes.Compare(pivot, prefix) < 0 {
			pivot = prefix
		}
		t.tree.AscendGreaterOrEqual(item{key: pivot}, func(i item) bool {
			found, ok = i, true
			return false
		})
	} else {
		if pivot == nil {
			pivot = storage.PrefixEnd(prefix)
		}
		iter := func(i item) bool {
			if pivot != nil && bytes.Equal(i.key, pivot) {
				return true
			}
			found, ok = i, true
			return false
		}
		if pivot == nil {
			t.tree.Descend(iter)
		} else {
			t.tree.DescendLessOrEqual(item{key: pivot}, iter)
		}
	}

	if !ok || !bytes.HasPrefix(found.key, prefix) {
		return nil, nil, nil
	}
	return duplicate(found.key), duplicate(found.value), nil
}

func (t *txn) Commit() error {
	if t.done {
		return storage.ErrTransactionDone
	}
	t.done = true
	if !t.writable {
		return nil
	}

	t.hm.treeLock.Lock()
	if t.hm.tree != nil {
		t.hm.tree = t.tree
	}
	t.hm.treeLock.Unlock()
	t.hm.writeLock.Unlock()
	return nil
}

func (t *txn) Discard() {
	if t.done {
		return
	}
	t.done = true
	if t.writable {
		t.hm.writeLock.Unlock()
	}
}

func duplicate(data []byte) []byte {
	if data == nil {
		return nil
	}
	c := make([]byte, len(data))
	copy(c, data)
	return c
}
