package storage

import (
	"github.com/safing/objectbase/database/accessor"
)

type index struct {
	store  *objectStore
	schema *IndexSchema
}

func (idx *index) Name() string {
	return idx.schema.Name
}

func (idx *index) KeyPath() string {
	return idx.schema.KeyPath
}

func (idx *index) Unique() bool {
	return idx.schema.Unique
}

func (idx *index) Count(r *KeyRange) (int, error) {
	schema, err := idx.store.schema()
	if err != nil {
		return 0, err
	}
	c, err := idx.store.openCursor(schema, idx.schema, r, Forward, true)
	if err != nil {
		return 0, err
	}
	return c.count()
}

func (idx *index) OpenCursor(r *KeyRange, dir Direction) (Cursor, error) {
	schema, err := idx.store.schema()
	if err != nil {
		return nil, err
	}
	return idx.store.openCursor(schema, idx.schema, r, dir, false)
}

type indexEntry struct {
	index *IndexSchema
	// valuePrefix is shared by all entries with the same index key.
	valuePrefix []byte
	key         []byte
}

// indexEntries returns the index entries of a record. Records without a
// valid key at the key path of an index are not part of that index.
func indexEntries(schema *StoreSchema, doc, encKey []byte) []indexEntry {
	if len(schema.Indexes) == 0 {
		return nil
	}

	acc := accessor.NewJSONAccessor(doc)
	entries := make([]indexEntry, 0, len(schema.Indexes))
	for _, idx := range schema.Indexes {
		v, ok := acc.Get(idx.KeyPath)
		if !ok {
			continue
		}
		k, err := NormalizeKey(v)
		if err != nil {
			continue
		}

		valuePrefix := appendKey(schema.indexPrefix(idx), k)
		key := make([]byte, 0, len(valuePrefix)+len(encKey))
		key = append(key, valuePrefix...)
		key = append(key, encKey...)
		entries = append(entries, indexEntry{
			index:       idx,
			valuePrefix: valuePrefix,
			key:         key,
		})
	}
	return entries
}
