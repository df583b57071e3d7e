package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/safing/objectbase/database/accessor"
	"github.com/safing/objectbase/formats/dsd"
)

// maxGeneratedKey is the largest key a key generator produces.
const maxGeneratedKey = 1 << 53

type objectStore struct {
	tx   *transaction
	name string
}

func (s *objectStore) schema() (*StoreSchema, error) {
	schema, ok := s.tx.scope[s.name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, s.name)
	}
	return schema, nil
}

func (s *objectStore) Name() string {
	return s.name
}

func (s *objectStore) Schema() StoreSchema {
	schema, err := s.schema()
	if err != nil {
		return StoreSchema{Name: s.name}
	}
	return *schema.clone()
}

func (s *objectStore) Add(value interface{}, key interface{}) (interface{}, error) {
	return s.write(value, key, true)
}

func (s *objectStore) Put(value interface{}, key interface{}) (interface{}, error) {
	return s.write(value, key, false)
}

func (s *objectStore) write(value interface{}, key interface{}, noOverwrite bool) (interface{}, error) {
	if err := s.tx.checkWritable(); err != nil {
		return nil, err
	}
	schema, err := s.schema()
	if err != nil {
		return nil, err
	}

	doc, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDataError, err)
	}
	acc := accessor.NewJSONAccessor(doc)

	var (
		generated uint64
		injected  bool
	)
	switch {
	case schema.KeyPath != "":
		if key != nil {
			return nil, fmt.Errorf("%w: store %s uses in-line keys", ErrDataError, schema.Name)
		}
		v, ok := acc.Get(schema.KeyPath)
		switch {
		case ok:
			key, err = NormalizeKey(v)
			if err != nil {
				return nil, fmt.Errorf("%w: value at key path %s: %s", ErrDataError, schema.KeyPath, err)
			}
		case schema.AutoIncrement:
			generated, err = s.nextKey(schema)
			if err != nil {
				return nil, err
			}
			key = float64(generated)
			if err := acc.Set(schema.KeyPath, key); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrDataError, err)
			}
			injected = true
		default:
			return nil, fmt.Errorf("%w: no value at key path %s", ErrDataError, schema.KeyPath)
		}
	case key != nil:
		key, err = NormalizeKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDataError, err)
		}
	case schema.AutoIncrement:
		generated, err = s.nextKey(schema)
		if err != nil {
			return nil, err
		}
		key = float64(generated)
	default:
		return nil, fmt.Errorf("%w: store %s needs an explicit key", ErrDataError, schema.Name)
	}

	// Explicit numeric keys move the key generator forward.
	if schema.AutoIncrement && generated == 0 {
		generated, err = s.bumpedKey(schema, key)
		if err != nil {
			return nil, err
		}
	}

	var data []byte
	if injected {
		var injectedValue interface{}
		if err := json.Unmarshal(acc.Bytes(), &injectedValue); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDataError, err)
		}
		data, err = dsd.Dump(injectedValue, s.tx.backend.format)
	} else {
		data, err = dsd.Dump(value, s.tx.backend.format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDataError, err)
	}

	encKey := appendKey(nil, key)
	if err := s.storeRecord(schema, encKey, data, acc.Bytes(), noOverwrite); err != nil {
		return nil, err
	}
	if generated > 0 {
		if err := saveUint(s.tx.txn, schema.generatorKey(), generated); err != nil {
			return nil, err
		}
	}
	return key, nil
}

// storeRecord writes a record and maintains all indexes. All constraints are
// checked before anything is written.
func (s *objectStore) storeRecord(schema *StoreSchema, encKey, data, doc []byte, noOverwrite bool) error {
	txn := s.tx.txn
	recordKey := schema.recordKey(encKey)

	old, err := txn.Get(recordKey)
	exists := err == nil
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return err
	case noOverwrite:
		return fmt.Errorf("%w: key already exists in store %s", ErrConstraint, schema.Name)
	}

	entries := indexEntries(schema, doc, encKey)
	for _, entry := range entries {
		if !entry.index.Unique {
			continue
		}
		_, owner, err := txn.Seek(entry.valuePrefix, nil, false)
		if err != nil {
			return err
		}
		if owner != nil && !bytes.Equal(owner, encKey) {
			return fmt.Errorf("%w: unique index %s", ErrConstraint, entry.index.Name)
		}
	}

	if exists {
		if err := s.removeIndexEntries(schema, old, encKey); err != nil {
			return err
		}
	}
	for _, entry := range entries {
		if err := txn.Put(entry.key, encKey); err != nil {
			return err
		}
	}
	return txn.Put(recordKey, data)
}

func (s *objectStore) removeIndexEntries(schema *StoreSchema, data, encKey []byte) error {
	if len(schema.Indexes) == 0 {
		return nil
	}
	doc, err := jsonDocument(data)
	if err != nil {
		return err
	}
	for _, entry := range indexEntries(schema, doc, encKey) {
		if err := s.tx.txn.Delete(entry.key); err != nil {
			return err
		}
	}
	return nil
}

func (s *objectStore) nextKey(schema *StoreSchema) (uint64, error) {
	current, err := loadUint(s.tx.txn, schema.generatorKey())
	if err != nil {
		return 0, err
	}
	if current >= maxGeneratedKey {
		return 0, fmt.Errorf("%w: key generator of store %s exhausted", ErrConstraint, schema.Name)
	}
	return current + 1, nil
}

// bumpedKey returns the new generator state for an explicit key, or 0 if it
// does not change.
func (s *objectStore) bumpedKey(schema *StoreSchema, key interface{}) (uint64, error) {
	f, ok := key.(float64)
	if !ok || f < 1 {
		return 0, nil
	}
	current, err := loadUint(s.tx.txn, schema.generatorKey())
	if err != nil {
		return 0, err
	}
	next := uint64(math.Min(math.Floor(f), maxGeneratedKey))
	if next <= current {
		return 0, nil
	}
	return next, nil
}

func (s *objectStore) Get(key interface{}) (*Entry, error) {
	if err := s.tx.checkActive(); err != nil {
		return nil, err
	}
	schema, err := s.schema()
	if err != nil {
		return nil, err
	}
	encKey, err := EncodeKey(key)
	if err != nil {
		return nil, err
	}

	data, err := s.tx.txn.Get(schema.recordKey(encKey))
	if err != nil {
		return nil, err
	}
	k, _, err := DecodeKey(encKey)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Key:        k,
		PrimaryKey: k,
		Data:       data,
	}, nil
}

func (s *objectStore) Delete(key interface{}) error {
	if err := s.tx.checkWritable(); err != nil {
		return err
	}
	schema, err := s.schema()
	if err != nil {
		return err
	}

	if r, ok := key.(*KeyRange); ok {
		return s.deleteRange(schema, r)
	}

	encKey, err := EncodeKey(key)
	if err != nil {
		return err
	}
	return s.deleteRecord(schema, encKey)
}

func (s *objectStore) deleteRecord(schema *StoreSchema, encKey []byte) error {
	recordKey := schema.recordKey(encKey)
	data, err := s.tx.txn.Get(recordKey)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	}

	if err := s.removeIndexEntries(schema, data, encKey); err != nil {
		return err
	}
	return s.tx.txn.Delete(recordKey)
}

func (s *objectStore) deleteRange(schema *StoreSchema, r *KeyRange) error {
	c, err := s.openCursor(schema, nil, r, Forward, false)
	if err != nil {
		return err
	}
	for c.Valid() {
		if err := c.Delete(); err != nil {
			return err
		}
		if err := c.Continue(); err != nil {
			return err
		}
	}
	return nil
}

func (s *objectStore) Clear() error {
	if err := s.tx.checkWritable(); err != nil {
		return err
	}
	schema, err := s.schema()
	if err != nil {
		return err
	}

	// The key generator is not reset.
	if err := deletePrefix(s.tx.txn, schema.recordPrefix()); err != nil {
		return err
	}
	for _, idx := range schema.Indexes {
		if err := deletePrefix(s.tx.txn, schema.indexPrefix(idx)); err != nil {
			return err
		}
	}
	return nil
}

func (s *objectStore) Count(r *KeyRange) (int, error) {
	schema, err := s.schema()
	if err != nil {
		return 0, err
	}
	c, err := s.openCursor(schema, nil, r, Forward, false)
	if err != nil {
		return 0, err
	}
	return c.count()
}

func (s *objectStore) OpenCursor(r *KeyRange, dir Direction) (Cursor, error) {
	schema, err := s.schema()
	if err != nil {
		return nil, err
	}
	return s.openCursor(schema, nil, r, dir, false)
}

func (s *objectStore) Index(name string) (Index, error) {
	if err := s.tx.checkActive(); err != nil {
		return nil, err
	}
	schema, err := s.schema()
	if err != nil {
		return nil, err
	}
	idx := schema.index(name)
	if idx == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, schema.Name, name)
	}
	return &index{
		store:  s,
		schema: idx,
	}, nil
}

// backfill adds all records of the store to a new index.
func (s *objectStore) backfill(schema *StoreSchema, idx *IndexSchema) error {
	single := &StoreSchema{
		ID:      schema.ID,
		Name:    schema.Name,
		Indexes: []*IndexSchema{idx},
	}

	c, err := s.openCursor(schema, nil, nil, Forward, false)
	if err != nil {
		return err
	}
	for c.Valid() {
		doc, err := jsonDocument(c.data)
		if err != nil {
			return err
		}
		encKey := c.encPrimaryKey
		for _, entry := range indexEntries(single, doc, encKey) {
			if idx.Unique {
				_, owner, err := s.tx.txn.Seek(entry.valuePrefix, nil, false)
				if err != nil {
					return err
				}
				if owner != nil && !bytes.Equal(owner, encKey) {
					return fmt.Errorf("%w: unique index %s", ErrConstraint, idx.Name)
				}
			}
			if err := s.tx.txn.Put(entry.key, encKey); err != nil {
				return err
			}
		}
		if err := c.Continue(); err != nil {
			return err
		}
	}
	return nil
}

// jsonDocument returns a stored value as JSON.
func jsonDocument(data []byte) ([]byte, error) {
	if len(data) > 0 && data[0] == dsd.JSON {
		return data[1:], nil
	}
	var v interface{}
	if _, err := dsd.Load(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func validKeyPath(path string) bool {
	return accessor.ValidPath(path)
}
