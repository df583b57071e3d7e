package database

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/safing/objectbase/database/query"
	"github.com/safing/objectbase/database/record"
	"github.com/safing/objectbase/database/storage"
	"github.com/safing/objectbase/log"
)

// ExportAll returns all records of all stores, by store name.
func (c *Connection) ExportAll() (map[string][]record.Record, error) {
	countOp("export")

	if err := c.enter(); err != nil {
		return nil, fail(c.name, exportError("", err))
	}
	defer c.leave()

	export := make(map[string][]record.Record)
	for _, storeName := range c.storage.StoreNames() {
		records, err := c.query(query.New(storeName))
		if err != nil {
			return nil, fail(c.name, exportError(storeName, err))
		}
		export[storeName] = records
		log.Tracef("database: %s: exported %d records from %s", c.name, len(records), storeName)
	}
	return export, nil
}

// ImportAll inserts the values of every store, overwriting existing keys.
// Stores are imported one after the other in name order and stay imported if
// a later one fails.
func (c *Connection) ImportAll(data map[string][]map[string]interface{}) error {
	countOp("import")

	if err := c.enter(); err != nil {
		return fail(c.name, importError("", -1, err))
	}
	defer c.leave()

	names := maps.Keys(data)
	slices.Sort(names)
	for _, storeName := range names {
		values := data[storeName]
		if len(values) == 0 {
			continue
		}
		if _, err := c.insertMany(values, true, storeName); err != nil {
			return fail(c.name, asImportError(err, storeName))
		}
		log.Tracef("database: %s: imported %d records into %s", c.name, len(values), storeName)
	}
	return nil
}

// ImportRecords is like ImportAll, but also restores the keys of records of
// stores without a key path.
func (c *Connection) ImportRecords(data map[string][]record.Record) error {
	countOp("import")

	if err := c.enter(); err != nil {
		return fail(c.name, importError("", -1, err))
	}
	defer c.leave()

	names := maps.Keys(data)
	slices.Sort(names)
	for _, storeName := range names {
		records := data[storeName]
		if len(records) == 0 {
			continue
		}
		if err := c.importRecords(records, storeName); err != nil {
			return fail(c.name, asImportError(err, storeName))
		}
	}
	return nil
}

func (c *Connection) importRecords(records []record.Record, storeName string) error {
	tx, s, err := c.openStore(storeName, storage.ReadWrite)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	inline := s.Schema().KeyPath != ""
	for i, r := range records {
		var key interface{}
		if !inline {
			key = r.Key
		}
		if _, err := write(s, r.Value, key, true); err != nil {
			return abortBatch(tx, importError(storeName, i, err))
		}
	}
	return tx.Commit()
}

// asImportError converts the error of a store import into an import error
// carrying the position of the failed item. Unknown stores stay config errors.
func asImportError(err error, storeName string) *Error {
	e := asError(err, KindImport, "import", storeName)
	switch e.Kind {
	case KindImport, KindConfig:
		return e
	default:
		return importError(storeName, e.Index, e.Err)
	}
}
