package database

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/objectbase/database/query"
	"github.com/safing/objectbase/database/storage"
)

func TestPagination(t *testing.T) {
	c := openMemory(t, "pagination", nil)

	for i := 1; i <= 10; i++ {
		key, err := c.Insert(map[string]interface{}{"text": fmt.Sprintf("note %d", i)}, false, "notes")
		require.NoError(t, err)
		assert.Equal(t, float64(i), key)
	}

	assert.Equal(t, []interface{}{3.0, 4.0}, keysOf(t, c, query.New("notes").Page(1, 2)))
	assert.Equal(t, []interface{}{10.0}, keysOf(t, c, query.New("notes").Page(3, 3)))
	assert.Empty(t, keysOf(t, c, query.New("notes").Page(5, 3)))
	assert.Len(t, keysOf(t, c, query.New("notes")), 10)
	assert.Len(t, keysOf(t, c, query.New("notes").Page(4, 0)), 10)
	assert.Equal(t, []interface{}{8.0, 7.0}, keysOf(t, c, query.New("notes").Page(1, 2).Order(storage.Backward)))

	assert.Empty(t, keysOf(t, c, query.New("notes").Page(math.MaxInt/2+1, 2)))
	n, err := c.Count(query.New("notes").Page(math.MaxInt/2+1, 2))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	_, err = c.Query(query.New("notes").Page(-1, 2))
	assert.True(t, IsKind(err, KindQuery))
	assert.True(t, errors.Is(err, query.ErrNegativePage))
}

func TestDirections(t *testing.T) {
	c := openMemory(t, "directions", nil)
	insertTasks(t, c)

	tests := []struct {
		dir  string
		keys []interface{}
	}{
		{"next", []interface{}{1.0, 2.0, 3.0, 5.0, 4.0}},
		{"nextunique", []interface{}{1.0, 2.0, 4.0}},
		{"prev", []interface{}{4.0, 5.0, 3.0, 2.0, 1.0}},
		{"prevunique", []interface{}{4.0, 2.0, 1.0}},
		{"sideways", []interface{}{1.0, 2.0, 3.0, 5.0, 4.0}},
	}
	for _, tt := range tests {
		q := query.New("tasks").Over("title").Order(query.ParseDirection(tt.dir))
		assert.Equal(t, tt.keys, keysOf(t, c, q), tt.dir)
	}

	// Forward and backward are mirror images.
	forward := keysOf(t, c, query.New("tasks").Over("done"))
	backward := keysOf(t, c, query.New("tasks").Over("done").Order(storage.Backward))
	require.Len(t, backward, len(forward))
	for i := range forward {
		assert.Equal(t, forward[i], backward[len(backward)-1-i])
	}

	// Invalid direction values read forward.
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0, 4.0, 5.0}, keysOf(t, c, query.New("tasks").Order(storage.Direction(9))))
}

func TestKeyRanges(t *testing.T) {
	c := openMemory(t, "ranges", nil)
	insertTasks(t, c)

	tasks := func() *query.Query { return query.New("tasks") }
	assert.Equal(t, []interface{}{2.0, 3.0, 5.0}, keysOf(t, c, tasks().Over("title").Only("b")))
	assert.Equal(t, []interface{}{2.0, 3.0, 5.0}, keysOf(t, c, tasks().Over("title").Range(storage.Bound("b", "c", false, true))))
	assert.Equal(t, []interface{}{4.0}, keysOf(t, c, tasks().Over("title").Range(storage.LowerBound("b", true))))
	assert.Equal(t, []interface{}{2.0, 3.0}, keysOf(t, c, tasks().Range(storage.Bound(1, 4, true, true))))
	assert.Equal(t, []interface{}{1.0, 2.0}, keysOf(t, c, tasks().Range(storage.UpperBound(2, false))))
	assert.Equal(t, []interface{}{3.0}, keysOf(t, c, tasks().Over("title").Only("b").Page(1, 1)))

	_, err := c.Query(tasks().Range(storage.Bound(4, 1, false, false)))
	assert.True(t, IsKind(err, KindQuery))
	assert.True(t, errors.Is(err, storage.ErrDataError))

	_, err = c.Query(tasks().Over("missing"))
	assert.True(t, IsKind(err, KindConfig))
	assert.True(t, errors.Is(err, storage.ErrUnknownIndex))

	_, err = c.Query(query.New("missing"))
	assert.True(t, IsKind(err, KindConfig))
	assert.True(t, errors.Is(err, storage.ErrUnknownStore))

	_, err = c.Query(nil)
	assert.True(t, IsKind(err, KindQuery))
}

func TestQueryByKeys(t *testing.T) {
	c := openMemory(t, "by-keys", nil)
	insertTasks(t, c)

	records, err := c.QueryByKeys([]interface{}{"b", "z", "a"}, "title", "tasks")
	require.NoError(t, err)
	require.Len(t, records, 4)
	for i, r := range records[:3] {
		assert.Equal(t, "b", r.Key, i)
		assert.Equal(t, "b", r.Value["title"])
	}
	assert.Equal(t, "a", records[3].Key)
	assert.Equal(t, 1.0, records[3].Value["id"])

	records, err = c.QueryByKeys([]interface{}{4, 1}, "", "tasks")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 4.0, records[0].Key)
	assert.Equal(t, 1.0, records[1].Key)

	_, err = c.QueryByKeys(nil, "title", "tasks")
	assert.True(t, IsKind(err, KindQuery))
	assert.True(t, errors.Is(err, ErrNoKeys))

	_, err = c.QueryByKeys([]interface{}{true}, "title", "tasks")
	assert.True(t, errors.Is(err, storage.ErrInvalidKey))
}

func TestGetAndCount(t *testing.T) {
	c := openMemory(t, "get-count", nil)
	insertTasks(t, c)

	r, err := c.Get(3, "tasks")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 3.0, r.Key)
	assert.Equal(t, "yes", r.Value["done"])

	r, err = c.Get(42, "tasks")
	require.NoError(t, err)
	assert.Nil(t, r)

	n, err := c.Count(query.New("tasks").Over("title").Only("b"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = c.Count(query.New("tasks").Range(storage.LowerBound(3, false)).Page(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = c.Count(query.New("tasks").Over("missing"))
	assert.True(t, IsKind(err, KindConfig))
}

func TestRecordsAreOwned(t *testing.T) {
	c := openMemory(t, "owned", nil)
	_, err := c.Insert(map[string]interface{}{
		"id":   1,
		"tags": []interface{}{"x", "y"},
		"meta": map[string]interface{}{"n": 1},
	}, false, "tasks")
	require.NoError(t, err)

	records, err := c.Query(query.New("tasks"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	records[0].Value["id"] = 2.0
	records[0].Value["tags"].([]interface{})[0] = "changed"
	records[0].Value["meta"].(map[string]interface{})["n"] = 5.0

	again, err := c.Query(query.New("tasks"))
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, map[string]interface{}{
		"id":   1.0,
		"tags": []interface{}{"x", "y"},
		"meta": map[string]interface{}{"n": 1.0},
	}, again[0].Value)
}

func TestGetStoreInfo(t *testing.T) {
	c := openMemory(t, "store-info", nil)
	insertTasks(t, c)

	info, err := c.GetStoreInfo("tasks")
	require.NoError(t, err)
	assert.Equal(t, &StoreInfo{
		Name:          "tasks",
		Count:         5,
		KeyPath:       "id",
		AutoIncrement: false,
		Indexes:       []string{"done", "id", "title"},
	}, info)

	_, err = c.GetStoreInfo("missing")
	assert.True(t, IsKind(err, KindConfig))
}
