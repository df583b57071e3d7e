package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/safing/objectbase/formats/dsd"
	"github.com/safing/objectbase/formats/varint"
)

// Engine keyspace layout.
//
//	0x00 'v'                          database version
//	0x00 'n'                          next store ID
//	0x00 's' <name>                   store schema
//	0x01 <storeID> 0x01 <key>         record
//	0x01 <storeID> 0x02 <indexID> <indexKey> <key>   index entry, value <key>
//	0x01 <storeID> 0x03               key generator
const (
	metaPrefix byte = 0x00
	dataPrefix byte = 0x01

	metaVersion     byte = 'v'
	metaNextStoreID byte = 'n'
	metaStore       byte = 's'

	recordSpace    byte = 0x01
	indexSpace     byte = 0x02
	generatorSpace byte = 0x03
)

// StoreSchema describes a store.
type StoreSchema struct {
	ID            uint32
	Name          string
	KeyPath       string
	AutoIncrement bool
	Indexes       []*IndexSchema
}

// IndexSchema describes an index of a store.
type IndexSchema struct {
	ID      uint32
	Name    string
	KeyPath string
	Unique  bool
}

// IndexNames returns the sorted names of all indexes.
func (s StoreSchema) IndexNames() []string {
	names := make([]string, 0, len(s.Indexes))
	for _, idx := range s.Indexes {
		names = append(names, idx.Name)
	}
	sort.Strings(names)
	return names
}

func (s *StoreSchema) index(name string) *IndexSchema {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx
		}
	}
	return nil
}

func (s *StoreSchema) nextIndexID() uint32 {
	var max uint32
	for _, idx := range s.Indexes {
		if idx.ID > max {
			max = idx.ID
		}
	}
	return max + 1
}

// clone returns a copy that can be changed without affecting running transactions.
func (s *StoreSchema) clone() *StoreSchema {
	c := *s
	c.Indexes = make([]*IndexSchema, len(s.Indexes))
	for i, idx := range s.Indexes {
		idxCopy := *idx
		c.Indexes[i] = &idxCopy
	}
	return &c
}

func (s *StoreSchema) storePrefix() []byte {
	prefix := make([]byte, 5, 16)
	prefix[0] = dataPrefix
	binary.BigEndian.PutUint32(prefix[1:], s.ID)
	return prefix
}

func (s *StoreSchema) recordPrefix() []byte {
	return append(s.storePrefix(), recordSpace)
}

func (s *StoreSchema) recordKey(encKey []byte) []byte {
	return append(s.recordPrefix(), encKey...)
}

func (s *StoreSchema) generatorKey() []byte {
	return append(s.storePrefix(), generatorSpace)
}

func (s *StoreSchema) indexPrefix(idx *IndexSchema) []byte {
	prefix := append(s.storePrefix(), indexSpace, 0, 0, 0, 0)
	binary.BigEndian.PutUint32(prefix[len(prefix)-4:], idx.ID)
	return prefix
}

func metaKey(kind byte, name string) []byte {
	return append([]byte{metaPrefix, kind}, name...)
}

func loadUint(txn EngineTxn, key []byte) (uint64, error) {
	data, err := txn.Get(key)
	switch {
	case errors.Is(err, ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, err
	}
	v, _, err := varint.Unpack64(data)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter at %x: %w", key, err)
	}
	return v, nil
}

func saveUint(txn EngineTxn, key []byte, v uint64) error {
	return txn.Put(key, varint.Pack64(v))
}

func saveSchema(txn EngineTxn, s *StoreSchema) error {
	data, err := dsd.Dump(s, dsd.JSON)
	if err != nil {
		return err
	}
	return txn.Put(metaKey(metaStore, s.Name), data)
}

func loadSchemas(txn EngineTxn) (map[string]*StoreSchema, error) {
	schemas := make(map[string]*StoreSchema)
	prefix := []byte{metaPrefix, metaStore}
	var pivot []byte
	for {
		key, value, err := txn.Seek(prefix, pivot, false)
		if err != nil {
			return nil, err
		}
		if key == nil {
			return schemas, nil
		}

		s := &StoreSchema{}
		if _, err := dsd.Load(value, s); err != nil {
			return nil, fmt.Errorf("corrupt store schema %q: %w", key[len(prefix):], err)
		}
		schemas[s.Name] = s

		pivot = append(key, 0x00)
	}
}
