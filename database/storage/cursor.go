package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/safing/objectbase/database/accessor"
	"github.com/safing/objectbase/formats/dsd"
)

// cursor iterates over the engine keyspace of a store or an index. It does
// not hold any engine iterator, every step is a new seek from the current
// position. This keeps it valid while records are changed in the same
// transaction.
type cursor struct {
	store  *objectStore
	schema *StoreSchema
	index  *IndexSchema
	dir    Direction

	prefix   []byte
	from     []byte
	to       []byte
	keysOnly bool

	valid         bool
	engineKey     []byte
	keyLen        int
	encPrimaryKey []byte
	data          []byte
	key           interface{}
	primaryKey    interface{}
}

func (s *objectStore) openCursor(schema *StoreSchema, idx *IndexSchema, r *KeyRange, dir Direction, keysOnly bool) (*cursor, error) {
	if err := s.tx.checkActive(); err != nil {
		return nil, err
	}
	if !dir.Valid() {
		dir = Forward
	}
	from, to, err := r.interval()
	if err != nil {
		return nil, err
	}

	c := &cursor{
		store:    s,
		schema:   schema,
		index:    idx,
		dir:      dir,
		keysOnly: keysOnly,
	}
	if idx != nil {
		c.prefix = schema.indexPrefix(idx)
	} else {
		c.prefix = schema.recordPrefix()
	}
	if from != nil {
		c.from = concat(c.prefix, from)
	}
	if to != nil {
		c.to = concat(c.prefix, to)
	}

	if dir.Reverse() {
		err = c.backward(c.to)
	} else {
		err = c.forward(c.from)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// unique reports whether duplicate keys are skipped. Record keys are unique
// already.
func (c *cursor) unique() bool {
	return c.index != nil && c.dir.Unique()
}

func (c *cursor) forward(pivot []byte) error {
	key, value, err := c.store.tx.txn.Seek(c.prefix, pivot, false)
	if err != nil {
		return err
	}
	if key == nil || (c.to != nil && bytes.Compare(key, c.to) >= 0) {
		c.invalidate()
		return nil
	}
	return c.load(key, value)
}

func (c *cursor) backward(pivot []byte) error {
	txn := c.store.tx.txn
	key, value, err := txn.Seek(c.prefix, pivot, true)
	if err != nil {
		return err
	}
	if key == nil || (c.from != nil && bytes.Compare(key, c.from) < 0) {
		c.invalidate()
		return nil
	}

	if c.unique() {
		// Use the entry with the lowest primary key of this index key.
		_, n, err := DecodeKey(key[len(c.prefix):])
		if err != nil {
			return err
		}
		key, value, err = txn.Seek(key[:len(c.prefix)+n], nil, false)
		if err != nil {
			return err
		}
	}
	return c.load(key, value)
}

func (c *cursor) load(key, value []byte) error {
	rest := key[len(c.prefix):]
	k, n, err := DecodeKey(rest)
	if err != nil {
		return err
	}

	c.engineKey = key
	c.keyLen = n
	c.key = k
	if c.index == nil {
		c.encPrimaryKey = rest
		c.primaryKey = k
		c.data = value
		c.valid = true
		return nil
	}

	c.encPrimaryKey = value
	c.primaryKey, _, err = DecodeKey(value)
	if err != nil {
		return err
	}
	c.data = nil
	if !c.keysOnly {
		c.data, err = c.store.tx.txn.Get(c.schema.recordKey(value))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("index %s points to missing record %v", c.index.Name, c.primaryKey)
			}
			return err
		}
	}
	c.valid = true
	return nil
}

func (c *cursor) invalidate() {
	c.valid = false
	c.engineKey = nil
	c.encPrimaryKey = nil
	c.data = nil
	c.key = nil
	c.primaryKey = nil
}

func (c *cursor) Valid() bool {
	return c.valid
}

func (c *cursor) Direction() Direction {
	return c.dir
}

func (c *cursor) Key() interface{} {
	return c.key
}

func (c *cursor) PrimaryKey() interface{} {
	return c.primaryKey
}

func (c *cursor) Value(v interface{}) error {
	if !c.valid {
		return ErrNotFound
	}
	if c.data == nil {
		return errors.New("cursor does not load values")
	}
	_, err := dsd.Load(c.data, v)
	return err
}

func (c *cursor) Entry() *Entry {
	if !c.valid {
		return nil
	}
	return &Entry{
		Key:        c.key,
		PrimaryKey: c.primaryKey,
		Data:       concat(c.data),
	}
}

// Continue moves the cursor to the next record. On an exhausted cursor it
// does nothing.
func (c *cursor) Continue() error {
	if err := c.store.tx.checkActive(); err != nil {
		return err
	}
	if !c.valid {
		return nil
	}

	switch {
	case c.dir.Reverse() && c.unique():
		return c.backward(c.engineKey[:len(c.prefix)+c.keyLen])
	case c.dir.Reverse():
		return c.backward(c.engineKey)
	case c.unique():
		pivot := PrefixEnd(c.engineKey[:len(c.prefix)+c.keyLen])
		if pivot == nil {
			c.invalidate()
			return nil
		}
		return c.forward(pivot)
	default:
		return c.forward(concat(c.engineKey, []byte{0x00}))
	}
}

// Advance skips count records. Advancing by zero does nothing.
func (c *cursor) Advance(count uint) error {
	for i := uint(0); i < count && c.valid; i++ {
		if err := c.Continue(); err != nil {
			return err
		}
	}
	return nil
}

// Update replaces the current record with value.
func (c *cursor) Update(value interface{}) error {
	if err := c.store.tx.checkWritable(); err != nil {
		return err
	}
	if !c.valid {
		return ErrNotFound
	}

	doc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDataError, err)
	}
	if c.schema.KeyPath != "" {
		v, ok := accessor.NewJSONAccessor(doc).Get(c.schema.KeyPath)
		if !ok {
			return fmt.Errorf("%w: no value at key path %s", ErrDataError, c.schema.KeyPath)
		}
		k, err := NormalizeKey(v)
		if err != nil {
			return fmt.Errorf("%w: value at key path %s: %s", ErrDataError, c.schema.KeyPath, err)
		}
		if !bytes.Equal(appendKey(nil, k), c.encPrimaryKey) {
			return fmt.Errorf("%w: cursor update must not change the key", ErrDataError)
		}
	}

	data, err := dsd.Dump(value, c.store.tx.backend.format)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDataError, err)
	}
	if err := c.store.storeRecord(c.schema, c.encPrimaryKey, data, doc, false); err != nil {
		return err
	}
	c.data = data
	return nil
}

// Delete removes the current record. The cursor stays at its position.
func (c *cursor) Delete() error {
	if err := c.store.tx.checkWritable(); err != nil {
		return err
	}
	if !c.valid {
		return ErrNotFound
	}
	return c.store.deleteRecord(c.schema, c.encPrimaryKey)
}

func (c *cursor) count() (int, error) {
	var n int
	for c.valid {
		n++
		if err := c.Continue(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func concat(parts ...[]byte) []byte {
	var size int
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
