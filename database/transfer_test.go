package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/objectbase/database/record"
	"github.com/safing/objectbase/database/storage"
)

func values(records []record.Record) []map[string]interface{} {
	v := make([]map[string]interface{}, 0, len(records))
	for _, r := range records {
		v = append(v, r.Value)
	}
	return v
}

func TestExportImport(t *testing.T) {
	src := openMemory(t, "export-src", nil)
	insertTasks(t, src)
	for _, text := range []string{"one", "two", "three"} {
		_, err := src.Insert(map[string]interface{}{"text": text}, false, "notes")
		require.NoError(t, err)
	}

	export, err := src.ExportAll()
	require.NoError(t, err)
	require.Len(t, export, 2)
	assert.Len(t, export["tasks"], 5)
	assert.Len(t, export["notes"], 3)

	dst := openMemory(t, "export-dst", nil)
	data := make(map[string][]map[string]interface{})
	for store, records := range export {
		data[store] = values(records)
	}
	require.NoError(t, dst.ImportAll(data))

	again, err := dst.ExportAll()
	require.NoError(t, err)
	assert.Equal(t, export, again)

	// Importing twice overwrites keyed records.
	require.NoError(t, dst.ImportAll(map[string][]map[string]interface{}{
		"tasks": data["tasks"],
		"notes": nil,
	}))
	info, err := dst.GetStoreInfo("tasks")
	require.NoError(t, err)
	assert.Equal(t, 5, info.Count)
}

func TestImportRecords(t *testing.T) {
	c := openMemory(t, "import-records", nil)

	err := c.ImportRecords(map[string][]record.Record{
		"notes": {
			{Key: 5.0, Value: map[string]interface{}{"text": "five"}},
			{Key: "x", Value: map[string]interface{}{"text": "x"}},
		},
		"tasks": {
			{Key: 99.0, Value: map[string]interface{}{"id": 1, "title": "a"}},
		},
	})
	require.NoError(t, err)

	export, err := c.ExportAll()
	require.NoError(t, err)
	require.Len(t, export["notes"], 2)
	assert.Equal(t, 5.0, export["notes"][0].Key)
	assert.Equal(t, "x", export["notes"][1].Key)
	require.Len(t, export["tasks"], 1)
	assert.Equal(t, 1.0, export["tasks"][0].Key)

	key, err := c.Insert(map[string]interface{}{"text": "six"}, false, "notes")
	require.NoError(t, err)
	assert.Equal(t, 6.0, key)

	err = c.ImportRecords(map[string][]record.Record{
		"notes": {{Key: true, Value: map[string]interface{}{"text": "bad key"}}},
	})
	assert.True(t, IsKind(err, KindImport))
}

func TestImportAbort(t *testing.T) {
	c := openMemory(t, "import-abort", nil)

	err := c.ImportAll(map[string][]map[string]interface{}{
		"tasks": {
			{"id": 1},
			{"title": "no key"},
			{"id": 3},
		},
		"notes": {
			{"text": "imported first"},
		},
	})
	require.Error(t, err)

	var dbErr *Error
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, KindImport, dbErr.Kind)
	assert.Equal(t, "tasks", dbErr.Store)
	assert.Equal(t, 1, dbErr.Index)
	assert.True(t, errors.Is(err, storage.ErrDataError))

	export, err := c.ExportAll()
	require.NoError(t, err)
	assert.Len(t, export["notes"], 1)
	assert.Len(t, export["tasks"], 1)

	err = c.ImportAll(map[string][]map[string]interface{}{
		"missing": {{"id": 1}},
	})
	assert.True(t, IsKind(err, KindConfig))
}
