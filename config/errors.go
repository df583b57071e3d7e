package config

import (
	"errors"
	"fmt"
)

// Errors.
var (
	ErrUnsupportedFile = errors.New("unsupported config file type")
	ErrNoDatabase      = errors.New("no database configured")
	ErrInvalidData     = errors.New("invalid data")
)

// InvalidValueError describes an invalid config value.
type InvalidValueError struct {
	Option string
	Value  interface{}
	Msg    string
}

func (ive *InvalidValueError) Error() string {
	msg := fmt.Sprintf("%s: invalid value %+v", ive.Option, ive.Value)
	if ive.Msg != "" {
		msg += ": " + ive.Msg
	}
	return msg
}

// Unwrap returns ErrInvalidData.
func (ive *InvalidValueError) Unwrap() error {
	return ErrInvalidData
}

func newInvalidValueError(option string, value interface{}, msg string) *InvalidValueError {
	return &InvalidValueError{
		Option: option,
		Value:  value,
		Msg:    msg,
	}
}
