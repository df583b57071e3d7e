package query

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/safing/objectbase/database/storage"
)

// Example:
// query.New("tasks").
//   Over("title").
//   Range(storage.Bound("a", "m", false, true)).
//   Page(2, 10).
//   Order(storage.Backward)

// Errors.
var (
	ErrNoStore      = errors.New("query has no store")
	ErrNegativePage = errors.New("page index and page size must not be negative")
)

// Query describes a directional, paginated iteration over a store or one of
// its indexes.
type Query struct {
	checked bool

	StoreName string
	// IndexName selects an index of the store. Empty iterates the store itself.
	IndexName string
	// KeyRange limits the iterated keys. Nil is unbounded.
	KeyRange *storage.KeyRange
	// PageIndex*PageSize records are skipped. PageIndex is ignored if
	// PageSize is 0.
	PageIndex int
	// PageSize is the maximum number of records. 0 is unbounded.
	PageSize  int
	Direction storage.Direction
}

// New creates a new query over the given store.
func New(storeName string) *Query {
	return &Query{
		StoreName: storeName,
	}
}

// Over iterates the given index instead of the store.
func (q *Query) Over(indexName string) *Query {
	q.IndexName = indexName
	q.checked = false
	return q
}

// Range limits the query to the given key range.
func (q *Query) Range(r *storage.KeyRange) *Query {
	q.KeyRange = r
	q.checked = false
	return q
}

// Only limits the query to a single key.
func (q *Query) Only(key interface{}) *Query {
	return q.Range(storage.Only(key))
}

// Page selects a page of the results.
func (q *Query) Page(index, size int) *Query {
	q.PageIndex = index
	q.PageSize = size
	q.checked = false
	return q
}

// Order sets the iteration direction.
func (q *Query) Order(dir storage.Direction) *Query {
	q.Direction = dir
	q.checked = false
	return q
}

// Check checks for errors in the query.
func (q *Query) Check() (*Query, error) {
	if q.checked {
		return q, nil
	}

	if q.StoreName == "" {
		return nil, ErrNoStore
	}
	if q.PageIndex < 0 || q.PageSize < 0 {
		return nil, fmt.Errorf("%w: page %d, size %d", ErrNegativePage, q.PageIndex, q.PageSize)
	}
	if err := q.KeyRange.Check(); err != nil {
		return nil, err
	}
	if !q.Direction.Valid() {
		q.Direction = storage.Forward
	}

	q.checked = true
	return q, nil
}

// MustBeValid checks for errors in the query and panics if there is an error.
func (q *Query) MustBeValid() *Query {
	_, err := q.Check()
	if err != nil {
		panic(err)
	}
	return q
}

// IsChecked returns whether they query was checked.
func (q *Query) IsChecked() bool {
	return q.checked
}

// Skip returns the number of records skipped before collecting. It saturates
// at math.MaxInt.
func (q *Query) Skip() int {
	if q.PageSize <= 0 || q.PageIndex <= 0 {
		return 0
	}
	if q.PageIndex > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return q.PageIndex * q.PageSize
}

// Print returns the string representation of the query.
func (q *Query) Print() string {
	var b strings.Builder
	fmt.Fprintf(&b, "query %s", q.StoreName)
	if q.IndexName != "" {
		fmt.Fprintf(&b, " over %s", q.IndexName)
	}
	if q.KeyRange != nil {
		fmt.Fprintf(&b, " in %s", q.KeyRange)
	}
	if q.PageSize > 0 {
		fmt.Fprintf(&b, " page %d size %d", q.PageIndex, q.PageSize)
	}
	fmt.Fprintf(&b, " %s", q.Direction)
	return b.String()
}

// ParseDirection returns the direction with the given name: "next",
// "nextunique", "prev" or "prevunique". Anything else is Forward.
func ParseDirection(name string) storage.Direction {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nextunique":
		return storage.ForwardUnique
	case "prev":
		return storage.Backward
	case "prevunique":
		return storage.BackwardUnique
	default:
		return storage.Forward
	}
}
