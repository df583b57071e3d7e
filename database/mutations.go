package database

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/safing/objectbase/database/record"
	"github.com/safing/objectbase/database/storage"
)

// Insert adds value to the store and returns its key. The key is taken from
// the key path of the store or generated. If overwrite is false, inserting
// an existing key fails.
func (c *Connection) Insert(value map[string]interface{}, overwrite bool, storeName string) (interface{}, error) {
	return c.InsertWithKey(value, nil, overwrite, storeName)
}

// InsertWithKey adds value to the store under key. Key must be nil for stores
// with a key path.
func (c *Connection) InsertWithKey(value map[string]interface{}, key interface{}, overwrite bool, storeName string) (interface{}, error) {
	countOp("insert")

	if err := c.enter(); err != nil {
		return nil, fail(c.name, mutationError("insert", storeName, -1, err))
	}
	defer c.leave()

	tx, s, err := c.openStore(storeName, storage.ReadWrite)
	if err != nil {
		return nil, fail(c.name, asError(err, KindMutation, "insert", storeName))
	}
	defer tx.Rollback()

	k, err := write(s, value, key, overwrite)
	if err != nil {
		return nil, fail(c.name, mutationError("insert", storeName, -1, err))
	}
	if err := tx.Commit(); err != nil {
		return nil, fail(c.name, mutationError("insert", storeName, -1, err))
	}
	return k, nil
}

// InsertMany adds all values to the store in order, in one transaction. The
// first failing value aborts the batch: the error carries its position, and
// the values before it stay written.
func (c *Connection) InsertMany(values []map[string]interface{}, overwrite bool, storeName string) ([]interface{}, error) {
	countOp("insert many")

	if err := c.enter(); err != nil {
		return nil, fail(c.name, mutationError("insert many", storeName, -1, err))
	}
	defer c.leave()

	keys, err := c.insertMany(values, overwrite, storeName)
	if err != nil {
		return keys, fail(c.name, asError(err, KindMutation, "insert many", storeName))
	}
	return keys, nil
}

func (c *Connection) insertMany(values []map[string]interface{}, overwrite bool, storeName string) ([]interface{}, error) {
	tx, s, err := c.openStore(storeName, storage.ReadWrite)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	keys := make([]interface{}, 0, len(values))
	for i, value := range values {
		k, err := write(s, value, nil, overwrite)
		if err != nil {
			return keys, abortBatch(tx, mutationError("insert many", storeName, i, err))
		}
		keys = append(keys, k)
	}

	if err := tx.Commit(); err != nil {
		return nil, mutationError("insert many", storeName, -1, err)
	}
	return keys, nil
}

// Remove deletes the record with the given key. Removing a key that does not
// exist succeeds.
func (c *Connection) Remove(key interface{}, storeName string) error {
	countOp("remove")

	if err := c.enter(); err != nil {
		return fail(c.name, mutationError("remove", storeName, -1, err))
	}
	defer c.leave()

	tx, s, err := c.openStore(storeName, storage.ReadWrite)
	if err != nil {
		return fail(c.name, asError(err, KindMutation, "remove", storeName))
	}
	defer tx.Rollback()

	if err := remove(s, key); err != nil {
		return fail(c.name, mutationError("remove", storeName, -1, err))
	}
	if err := tx.Commit(); err != nil {
		return fail(c.name, mutationError("remove", storeName, -1, err))
	}
	return nil
}

// RemoveMany deletes the records with the given keys in order, in one
// transaction. It aborts like InsertMany.
func (c *Connection) RemoveMany(keys []interface{}, storeName string) error {
	countOp("remove many")

	if err := c.enter(); err != nil {
		return fail(c.name, mutationError("remove many", storeName, -1, err))
	}
	defer c.leave()

	if err := c.removeMany(keys, storeName); err != nil {
		return fail(c.name, asError(err, KindMutation, "remove many", storeName))
	}
	return nil
}

func (c *Connection) removeMany(keys []interface{}, storeName string) error {
	tx, s, err := c.openStore(storeName, storage.ReadWrite)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, key := range keys {
		if err := remove(s, key); err != nil {
			return abortBatch(tx, mutationError("remove many", storeName, i, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return mutationError("remove many", storeName, -1, err)
	}
	return nil
}

// Update merges patch into the record with the given key and returns the
// merged record. It returns nil if there is no such record. The merge follows
// the MergeMode of the connection.
func (c *Connection) Update(patch map[string]interface{}, key interface{}, storeName string) (*record.Record, error) {
	countOp("update")

	if err := c.enter(); err != nil {
		return nil, fail(c.name, mutationError("update", storeName, -1, err))
	}
	defer c.leave()

	r, err := c.update(patch, key, storeName)
	if err != nil {
		return nil, fail(c.name, asError(err, KindMutation, "update", storeName))
	}
	return r, nil
}

func (c *Connection) update(patch map[string]interface{}, key interface{}, storeName string) (*record.Record, error) {
	k, err := storage.NormalizeKey(key)
	if err != nil {
		return nil, mutationError("update", storeName, -1, err)
	}

	tx, s, err := c.openStore(storeName, storage.ReadWrite)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	cursor, err := s.OpenCursor(storage.Only(k), storage.Forward)
	if err != nil {
		return nil, mutationError("update", storeName, -1, err)
	}
	if !cursor.Valid() {
		return nil, nil
	}

	r, err := record.FromCursor(cursor)
	if err != nil {
		return nil, mutationError("update", storeName, -1, err)
	}
	merge(r.Value, patch, c.opts.MergeMode)

	if err := cursor.Update(r.Value); err != nil {
		return nil, mutationError("update", storeName, -1, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mutationError("update", storeName, -1, err)
	}

	merged := r.Copy()
	return &merged, nil
}

// merge copies the fields of patch into value.
func merge(value, patch map[string]interface{}, mode MergeMode) {
	switch mode {
	case MergePresent:
		for field, v := range patch {
			value[field] = record.Normalize(v)
		}
	default:
		for field := range value {
			v, ok := patch[field]
			if ok && record.Truthy(v) {
				value[field] = record.Normalize(v)
			}
		}
	}
}

// write stores one value.
func write(s storage.Store, value map[string]interface{}, key interface{}, overwrite bool) (interface{}, error) {
	if value == nil {
		return nil, record.ErrNotAnObject
	}
	if overwrite {
		return s.Put(value, key)
	}
	return s.Add(value, key)
}

func remove(s storage.Store, key interface{}) error {
	if _, ok := key.(*storage.KeyRange); ok {
		return fmt.Errorf("%w: ranges cannot be removed by key", storage.ErrInvalidKey)
	}
	return s.Delete(key)
}

// abortBatch commits the items written before a failed batch item.
func abortBatch(tx storage.Transaction, err *Error) error {
	if commitErr := tx.Commit(); commitErr != nil {
		err.Err = multierror.Append(err.Err, commitErr)
	}
	return err
}
