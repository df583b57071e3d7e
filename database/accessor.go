package database

import (
	"errors"

	"github.com/safing/objectbase/database/storage"
)

// accessMode returns the transaction mode for mode. Only ReadOnly is
// honored, everything else is ReadWrite.
func accessMode(mode storage.Mode) storage.Mode {
	if mode == storage.ReadOnly {
		return storage.ReadOnly
	}
	return storage.ReadWrite
}

// openStore starts a new transaction scoped to exactly the named store. The
// caller must end the transaction. Unknown stores are config errors.
func (c *Connection) openStore(storeName string, mode storage.Mode) (storage.Transaction, storage.Store, error) {
	tx, err := c.storage.Begin([]string{storeName}, accessMode(mode))
	if err != nil {
		if errors.Is(err, storage.ErrUnknownStore) {
			return nil, nil, configError("open store", storeName, err)
		}
		return nil, nil, err
	}

	s, err := tx.Store(storeName)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	return tx, s, nil
}

// openCursor opens a cursor over the store or the named index of it.
// Unknown indexes are config errors.
func openCursor(s storage.Store, indexName string, r *storage.KeyRange, dir storage.Direction) (storage.Cursor, error) {
	if indexName == "" {
		return s.OpenCursor(r, dir)
	}

	idx, err := s.Index(indexName)
	if err != nil {
		if errors.Is(err, storage.ErrUnknownIndex) {
			return nil, configError("open index", s.Name(), err)
		}
		return nil, err
	}
	return idx.OpenCursor(r, dir)
}
