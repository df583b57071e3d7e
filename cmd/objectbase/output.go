package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/safing/objectbase/database/record"
)

// printJSON writes v as one line of JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func printRecords(w io.Writer, records []record.Record) error {
	for _, r := range records {
		if err := printJSON(w, r); err != nil {
			return err
		}
	}
	return nil
}

// parseKey parses a key argument. JSON numbers and arrays are keys of their
// type, everything else is a string key.
func parseKey(arg string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return arg
	}
	switch v.(type) {
	case float64, string, []interface{}:
		return v
	default:
		return arg
	}
}

func parseKeys(args []string) []interface{} {
	keys := make([]interface{}, len(args))
	for i, arg := range args {
		keys[i] = parseKey(arg)
	}
	return keys
}

// parseValue parses a JSON object argument.
func parseValue(arg string) (map[string]interface{}, error) {
	var v map[string]interface{}
	d := json.NewDecoder(strings.NewReader(arg))
	if err := d.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", arg, err)
	}
	if v == nil {
		return nil, fmt.Errorf("invalid value %q: not an object", arg)
	}
	return v, nil
}
