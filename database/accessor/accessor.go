package accessor

import (
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JSONAccessor is a json document with get and set functions.
type JSONAccessor struct {
	json []byte
}

// NewJSONAccessor adds get and set functions to a JSON document.
func NewJSONAccessor(json []byte) *JSONAccessor {
	return &JSONAccessor{
		json: json,
	}
}

// Set sets the value identified by key.
func (ja *JSONAccessor) Set(key string, value interface{}) error {
	if !ValidPath(key) {
		return newInvalidPathError(key)
	}

	result := gjson.GetBytes(ja.json, key)
	if result.Exists() {
		switch value.(type) {
		case string:
			if result.Type != gjson.String {
				return newInvalidJSONValueTypeError(key, result, value)
			}
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			if result.Type != gjson.Number {
				return newInvalidJSONValueTypeError(key, result, value)
			}
		case bool:
			if result.Type != gjson.True && result.Type != gjson.False {
				return newInvalidJSONValueTypeError(key, result, value)
			}
		}
	}

	updated, err := sjson.SetBytes(ja.json, key, value)
	if err != nil {
		return err
	}
	ja.json = updated
	return nil
}

// Get returns the value found by the given json key and whether it exists.
// Numbers are returned as float64, arrays as []interface{} and objects as
// map[string]interface{}.
func (ja *JSONAccessor) Get(key string) (value interface{}, ok bool) {
	if !ValidPath(key) {
		return nil, false
	}
	result := gjson.GetBytes(ja.json, key)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

// GetString returns the string found by the given json key and whether it could be successfully extracted.
func (ja *JSONAccessor) GetString(key string) (value string, ok bool) {
	result := gjson.GetBytes(ja.json, key)
	if !result.Exists() || result.Type != gjson.String {
		return "", false
	}
	return result.String(), true
}

// GetFloat returns the float found by the given json key and whether it could be successfully extracted.
func (ja *JSONAccessor) GetFloat(key string) (value float64, ok bool) {
	result := gjson.GetBytes(ja.json, key)
	if !result.Exists() || result.Type != gjson.Number {
		return 0, false
	}
	return result.Float(), true
}

// GetBool returns the bool found by the given json key and whether it could be successfully extracted.
func (ja *JSONAccessor) GetBool(key string) (value bool, ok bool) {
	result := gjson.GetBytes(ja.json, key)
	switch {
	case !result.Exists():
		return false, false
	case result.Type == gjson.True:
		return true, true
	case result.Type == gjson.False:
		return false, true
	default:
		return false, false
	}
}

// Exists returns the whether the given key exists.
func (ja *JSONAccessor) Exists(key string) bool {
	if !ValidPath(key) {
		return false
	}
	return gjson.GetBytes(ja.json, key).Exists()
}

// Bytes returns the current JSON document.
func (ja *JSONAccessor) Bytes() []byte {
	return ja.json
}

// ValidPath reports whether path is a dotted path of identifiers, such as
// "address.city". Paths must not use any query syntax.
func ValidPath(path string) bool {
	if path == "" {
		return false
	}
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			switch {
			case r == '_' || r == '$':
			case unicode.IsLetter(r):
			case unicode.IsDigit(r) && i > 0:
			default:
				return false
			}
		}
	}
	return true
}
