package accessor

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/tidwall/gjson"
)

// Common error defintions.
var (
	ErrInvalidPath = errors.New("invalid key path")
)

// InvalidValueTypeError describes an error when trying to set a value
// of an invalid type to a field.
type InvalidValueTypeError struct {
	FieldName string
	FieldKind string
	ValueKind string
}

func (ivte *InvalidValueTypeError) Error() string {
	return fmt.Sprintf("tried to set field %s (%s) to a %s value", ivte.FieldName, ivte.FieldKind, ivte.ValueKind)
}

func newInvalidJSONValueTypeError(key string, field gjson.Result, value interface{}) *InvalidValueTypeError {
	return &InvalidValueTypeError{
		FieldName: key,
		FieldKind: field.Type.String(),
		ValueKind: reflect.ValueOf(value).Kind().String(),
	}
}

func newInvalidPathError(key string) error {
	return fmt.Errorf("%w: %q", ErrInvalidPath, key)
}
