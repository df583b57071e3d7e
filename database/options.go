package database

import (
	"github.com/safing/objectbase/formats/dsd"
)

// DefaultStorageType is the engine used if Options do not name one.
const DefaultStorageType = "bbolt"

// MergeMode defines how Update merges a patch into a stored record.
type MergeMode uint8

// Merge modes.
const (
	// MergeTruthy copies a patch field only if the stored record already has
	// the field and the patch value is truthy. Falsy values (false, 0, NaN,
	// "" and nil) cannot be written with Update in this mode.
	MergeTruthy MergeMode = iota
	// MergePresent copies every field of the patch.
	MergePresent
)

func (m MergeMode) String() string {
	switch m {
	case MergeTruthy:
		return "truthy"
	case MergePresent:
		return "present"
	default:
		return "unknown"
	}
}

// Options configure how a database is opened.
type Options struct {
	// StorageType is the name of the engine, such as "bbolt", "badger",
	// "sqlite" or "hashmap".
	StorageType string
	// Location is the root directory. The engine stores its data in
	// <Location>/<name>/<StorageType>.
	Location string
	// Format is the dsd format used to store record values.
	Format    uint8
	MergeMode MergeMode
}

func (o *Options) withDefaults() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.StorageType == "" {
		opts.StorageType = DefaultStorageType
	}
	if opts.Format == dsd.AUTO {
		opts.Format = dsd.DefaultSerializationFormat
	}
	return opts
}

// inMemory reports whether the engine keeps no files.
func (o Options) inMemory() bool {
	return o.StorageType == "hashmap"
}
