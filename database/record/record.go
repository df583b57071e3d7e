package record

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/copystructure"

	"github.com/safing/objectbase/database/storage"
	"github.com/safing/objectbase/formats/dsd"
)

// Errors.
var (
	ErrNotAnObject = errors.New("record value is not an object")
)

// Record is a single result of a query. It is owned by the caller and does
// not share memory with storage or other records.
type Record struct {
	Key   interface{}            `json:"key"`
	Value map[string]interface{} `json:"value"`
}

// FromEntry creates a record from a raw storage entry. The primary key of the
// entry becomes the record key.
func FromEntry(e *storage.Entry) (Record, error) {
	if e == nil {
		return Record{}, storage.ErrNotFound
	}

	var v interface{}
	if _, err := dsd.Load(e.Data, &v); err != nil {
		return Record{}, err
	}
	m, ok := Normalize(v).(map[string]interface{})
	if !ok {
		return Record{}, fmt.Errorf("%w: %T", ErrNotAnObject, v)
	}

	key, err := storage.NormalizeKey(e.PrimaryKey)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Key:   key,
		Value: m,
	}, nil
}

// FromCursor creates a record from the current position of a cursor.
func FromCursor(c storage.Cursor) (Record, error) {
	return FromEntry(c.Entry())
}

// Copy returns a deep copy of the record.
func (r Record) Copy() Record {
	return Record{
		Key:   copyValue(r.Key),
		Value: CopyValue(r.Value),
	}
}

// Get returns the value at the dotted path.
func (r Record) Get(path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	var cur interface{} = r.Value
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// CopyValue returns a deep copy of a record value.
func CopyValue(v map[string]interface{}) map[string]interface{} {
	if v == nil {
		return nil
	}
	c, ok := copyValue(v).(map[string]interface{})
	if !ok {
		return nil
	}
	return c
}

func copyValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	c, err := copystructure.Copy(v)
	if err != nil {
		// Record values only hold plain data.
		panic(fmt.Sprintf("record: failed to copy value: %s", err))
	}
	return c
}

// Normalize converts decoded data into the canonical record form: numbers
// become float64, maps become map[string]interface{} and slices become
// []interface{}.
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, elem := range val {
			m[k] = Normalize(elem)
		}
		return m
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, elem := range val {
			m[fmt.Sprint(k)] = Normalize(elem)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(val))
		for i, elem := range val {
			s[i] = Normalize(elem)
		}
		return s
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}

// Truthy reports whether v counts as set: it is not nil, false, zero, NaN or
// the empty string.
func Truthy(v interface{}) bool {
	switch val := Normalize(v).(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0 && !math.IsNaN(val)
	case string:
		return val != ""
	default:
		return true
	}
}
