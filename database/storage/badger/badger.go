package badger

import (
	"bytes"
	"errors"

	"github.com/dgraph-io/badger"

	"github.com/safing/objectbase/database/storage"
	"github.com/safing/objectbase/log"
)

// Badger engine made pluggable for objectbase.
type Badger struct {
	name string
	db   *badger.DB
}

func init() {
	_ = storage.Register("badger", NewBadger)
}

// NewBadger opens/creates a badger database.
func NewBadger(name, location string) (storage.Engine, error) {
	opts := badger.DefaultOptions(location)
	opts.Logger = &logger{name: name}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Badger{
		name: name,
		db:   db,
	}, nil
}

// Begin starts a badger transaction.
func (b *Badger) Begin(writable bool) (storage.EngineTxn, error) {
	return &txn{
		txn: b.db.NewTransaction(writable),
	}, nil
}

// Maintain runs a light maintenance operation on the database.
func (b *Badger) Maintain() error {
	_ = b.db.RunValueLogGC(0.7)
	return nil
}

// MaintainThorough runs a thorough maintenance operation on the database.
func (b *Badger) MaintainThorough() (err error) {
	for err == nil {
		err = b.db.RunValueLogGC(0.7)
	}
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// Shutdown shuts down the database.
func (b *Badger) Shutdown() error {
	return b.db.Close()
}

type txn struct {
	txn  *badger.Txn
	done bool
}

func (t *txn) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, storage.ErrTransactionDone
	}
	item, err := t.txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *txn) Put(key, value []byte) error {
	if t.done {
		return storage.ErrTransactionDone
	}
	return t.txn.Set(duplicate(key), duplicate(value))
}

func (t *txn) Delete(key []byte) error {
	if t.done {
		return storage.ErrTransactionDone
	}
	return t.txn.Delete(duplicate(key))
}

func (t *txn) Seek(prefix, pivot []byte, reverse bool) (key, value []byte, err error) {
	if t.done {
		return nil, nil, storage.ErrTransactionDone
	}

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = reverse
	it := t.txn.NewIterator(opts)
	defer it.Close()

	if !reverse {
		if pivot == nil || bytes.Compare(pivot, prefix) < 0 {
			pivot = prefix
		}
		it.Seek(pivot)
	} else {
		if pivot == nil {
			pivot = storage.PrefixEnd(prefix)
		}
		if pivot == nil {
			it.Rewind()
		} else {
			// Reverse iterators seek to the last key <= pivot.
			it.Seek(pivot)
			if it.Valid() && bytes.Equal(it.Item().Key(), pivot) {
				it.Next()
			}
		}
	}

	if !it.ValidForPrefix(prefix) {
		return nil, nil, nil
	}
	item := it.Item()
	value, err = item.ValueCopy(nil)
	if err != nil {
		return nil, nil, err
	}
	return item.KeyCopy(nil), value, nil
}

func (t *txn) Commit() error {
	if t.done {
		return storage.ErrTransactionDone
	}
	t.done = true
	defer t.txn.Discard()
	return t.txn.Commit()
}

func (t *txn) Discard() {
	if t.done {
		return
	}
	t.done = true
	t.txn.Discard()
}

func duplicate(data []byte) []byte {
	c := make([]byte, len(data))
	copy(c, data)
	return c
}

// logger routes badger logs to the objectbase log.
type logger struct {
	name string
}

func (l *logger) Errorf(format string, args ...interface{}) {
	log.Errorf("badger(%s): "+format, append([]interface{}{l.name}, args...)...)
}

func (l *logger) Warningf(format string, args ...interface{}) {
	log.Warningf("badger(%s): "+format, append([]interface{}{l.name}, args...)...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	log.Debugf("badger(%s): "+format, append([]interface{}{l.name}, args...)...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	log.Tracef("badger(%s): "+format, append([]interface{}{l.name}, args...)...)
}
