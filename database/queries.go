package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/safing/objectbase/database/query"
	"github.com/safing/objectbase/database/record"
	"github.com/safing/objectbase/database/storage"
)

// StoreInfo describes a store.
type StoreInfo struct {
	Name          string   `json:"name"`
	Count         int      `json:"count"`
	KeyPath       string   `json:"keyPath,omitempty"`
	AutoIncrement bool     `json:"autoIncrement"`
	Indexes       []string `json:"indexes"`
}

// Query returns the records selected by q, in the order of its direction.
// If q.PageSize is set, q.PageIndex*q.PageSize records are skipped and at
// most q.PageSize records are returned.
func (c *Connection) Query(q *query.Query) ([]record.Record, error) {
	countOp("query")
	defer observeQuery(time.Now())

	var storeName string
	if q != nil {
		storeName = q.StoreName
	}
	if err := c.enter(); err != nil {
		return nil, fail(c.name, queryError("query", storeName, err))
	}
	defer c.leave()

	records, err := c.query(q)
	if err != nil {
		return nil, fail(c.name, asError(err, KindQuery, "query", storeName))
	}
	return records, nil
}

func (c *Connection) query(q *query.Query) ([]record.Record, error) {
	if q == nil {
		return nil, queryError("query", "", errors.New("no query"))
	}
	if _, err := q.Check(); err != nil {
		return nil, queryError("query", q.StoreName, err)
	}

	tx, s, err := c.openStore(q.StoreName, storage.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	cursor, err := openCursor(s, q.IndexName, q.KeyRange, q.Direction)
	if err != nil {
		return nil, err
	}

	if skip := q.Skip(); skip > 0 {
		if err := cursor.Advance(uint(skip)); err != nil {
			return nil, err
		}
	}

	records := make([]record.Record, 0)
	for cursor.Valid() {
		if q.PageSize > 0 && len(records) >= q.PageSize {
			break
		}
		r, err := record.FromCursor(cursor)
		if err != nil {
			return nil, err
		}
		records = append(records, r)

		if err := cursor.Continue(); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// QueryByKeys runs an exact match query for each key over the store, or the
// named index of it. The results are concatenated in key order. Every
// record carries the key it was found with.
func (c *Connection) QueryByKeys(keys []interface{}, indexName, storeName string) ([]record.Record, error) {
	countOp("query by keys")
	defer observeQuery(time.Now())

	if err := c.enter(); err != nil {
		return nil, fail(c.name, queryError("query by keys", storeName, err))
	}
	defer c.leave()

	records, err := c.queryByKeys(keys, indexName, storeName)
	if err != nil {
		return nil, fail(c.name, asError(err, KindQuery, "query by keys", storeName))
	}
	return records, nil
}

func (c *Connection) queryByKeys(keys []interface{}, indexName, storeName string) ([]record.Record, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	normalized := make([]interface{}, len(keys))
	for i, key := range keys {
		k, err := storage.NormalizeKey(key)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		normalized[i] = k
	}

	tx, s, err := c.openStore(storeName, storage.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	records := make([]record.Record, 0, len(keys))
	for _, key := range normalized {
		cursor, err := openCursor(s, indexName, storage.Only(key), storage.Forward)
		if err != nil {
			return nil, err
		}
		for cursor.Valid() {
			r, err := record.FromCursor(cursor)
			if err != nil {
				return nil, err
			}
			r.Key = key
			records = append(records, r)

			if err := cursor.Continue(); err != nil {
				return nil, err
			}
		}
	}
	return records, nil
}

// Get returns the record with the given key, or nil if there is none.
func (c *Connection) Get(key interface{}, storeName string) (*record.Record, error) {
	countOp("get")

	if err := c.enter(); err != nil {
		return nil, fail(c.name, queryError("get", storeName, err))
	}
	defer c.leave()

	r, err := c.get(key, storeName)
	if err != nil {
		return nil, fail(c.name, asError(err, KindQuery, "get", storeName))
	}
	return r, nil
}

func (c *Connection) get(key interface{}, storeName string) (*record.Record, error) {
	tx, s, err := c.openStore(storeName, storage.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := s.Get(key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}

	r, err := record.FromEntry(entry)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Count returns the number of records selected by the key range and index
// of q. Pagination is ignored.
func (c *Connection) Count(q *query.Query) (int, error) {
	countOp("count")

	var storeName string
	if q != nil {
		storeName = q.StoreName
	}
	if err := c.enter(); err != nil {
		return 0, fail(c.name, queryError("count", storeName, err))
	}
	defer c.leave()

	n, err := c.count(q)
	if err != nil {
		return 0, fail(c.name, asError(err, KindQuery, "count", storeName))
	}
	return n, nil
}

func (c *Connection) count(q *query.Query) (int, error) {
	if q == nil {
		return 0, errors.New("no query")
	}
	if _, err := q.Check(); err != nil {
		return 0, err
	}

	tx, s, err := c.openStore(q.StoreName, storage.ReadOnly)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if q.IndexName == "" {
		return s.Count(q.KeyRange)
	}
	idx, err := s.Index(q.IndexName)
	if err != nil {
		if errors.Is(err, storage.ErrUnknownIndex) {
			return 0, configError("count", q.StoreName, err)
		}
		return 0, err
	}
	return idx.Count(q.KeyRange)
}

// GetStoreInfo returns the name, record count, key path and indexes of a store.
func (c *Connection) GetStoreInfo(storeName string) (*StoreInfo, error) {
	countOp("store info")

	if err := c.enter(); err != nil {
		return nil, fail(c.name, queryError("store info", storeName, err))
	}
	defer c.leave()

	info, err := c.storeInfo(storeName)
	if err != nil {
		return nil, fail(c.name, asError(err, KindQuery, "store info", storeName))
	}
	return info, nil
}

func (c *Connection) storeInfo(storeName string) (*StoreInfo, error) {
	tx, s, err := c.openStore(storeName, storage.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	n, err := s.Count(nil)
	if err != nil {
		return nil, err
	}
	schema := s.Schema()
	return &StoreInfo{
		Name:          schema.Name,
		Count:         n,
		KeyPath:       schema.KeyPath,
		AutoIncrement: schema.AutoIncrement,
		Indexes:       schema.IndexNames(),
	}, nil
}
