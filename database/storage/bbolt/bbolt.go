package bbolt

import (
	"bytes"
	"errors"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/safing/objectbase/database/storage"
)

var bucketName = []byte{0}

// BBolt engine made pluggable for objectbase.
type BBolt struct {
	name string
	db   *bbolt.DB
}

func init() {
	_ = storage.Register("bbolt", NewBBolt)
}

// NewBBolt opens/creates a bbolt database.
func NewBBolt(name, location string) (storage.Engine, error) {
	db, err := bbolt.Open(filepath.Join(location, "db.bbolt"), 0o600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	// Create bucket
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BBolt{
		name: name,
		db:   db,
	}, nil
}

// Begin starts a bbolt transaction.
func (b *BBolt) Begin(writable bool) (storage.EngineTxn, error) {
	tx, err := b.db.Begin(writable)
	if err != nil {
		if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
			return nil, storage.ErrShutdown
		}
		return nil, err
	}

	return &txn{
		tx:     tx,
		bucket: tx.Bucket(bucketName),
	}, nil
}

// Shutdown shuts down the database.
func (b *BBolt) Shutdown() error {
	return b.db.Close()
}

type txn struct {
	tx     *bbolt.Tx
	bucket *bbolt.Bucket
	done   bool
}

func (t *txn) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, storage.ErrTransactionDone
	}
	value := t.bucket.Get(key)
	if value == nil {
		return nil, storage.ErrNotFound
	}
	return duplicate(value), nil
}

func (t *txn) Put(key, value []byte) error {
	if t.done {
		return storage.ErrTransactionDone
	}
	// bbolt requires the value to stay valid for the life of the transaction.
	return t.bucket.Put(duplicate(key), duplicate(value))
}

func (t *txn) Delete(key []byte) error {
	if t.done {
		return storage.ErrTransactionDone
	}
	return t.bucket.Delete(key)
}

func (t *txn) Seek(prefix, pivot []byte, reverse bool) (key, value []byte, err error) {
	if t.done {
		return nil, nil, storage.ErrTransactionDone
	}

	c := t.bucket.Cursor()
	var k, v []byte
	if !reverse {
		if pivot == nil || bytes.Compare(pivot, prefix) < 0 {
			pivot = prefix
		}
		k, v = c.Seek(pivot)
	} else {
		if pivot == nil {
			pivot = storage.PrefixEnd(prefix)
		}
		if pivot == nil {
			k, v = c.Last()
		} else {
			k, v = c.Seek(pivot)
			if k == nil {
				k, v = c.Last()
			} else {
				// Seek lands on the first key >= pivot.
				k, v = c.Prev()
			}
		}
	}

	if k == nil || !bytes.HasPrefix(k, prefix) {
		return nil, nil, nil
	}
	return duplicate(k), duplicate(v), nil
}

func (t *txn) Commit() error {
	if t.done {
		return storage.ErrTransactionDone
	}
	t.done = true
	if !t.tx.Writable() {
		return t.tx.Rollback()
	}
	return t.tx.Commit()
}

func (t *txn) Discard() {
	if t.done {
		return
	}
	t.done = true
	_ = t.tx.Rollback()
}

func duplicate(data []byte) []byte {
	c := make([]byte, len(data))
	copy(c, data)
	return c
}
