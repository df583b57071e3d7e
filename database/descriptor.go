package database

import (
	"fmt"
	"regexp"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/safing/objectbase/database/accessor"
)

var nameConstraint = regexp.MustCompile("^[A-Za-z0-9_-]+$")

// Descriptor describes a database and the schema of its current version.
type Descriptor struct {
	Name    string            `json:"name" yaml:"name" toml:"name"`
	Version uint64            `json:"version" yaml:"version" toml:"version"`
	Stores  []StoreDescriptor `json:"stores" yaml:"stores" toml:"stores"`
}

// StoreDescriptor describes a store.
type StoreDescriptor struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	// KeyPath is the field holding the record key. Empty means records get
	// generated keys.
	KeyPath string `json:"keyPath,omitempty" yaml:"keyPath,omitempty" toml:"keyPath,omitempty"`
	// Indexes maps the indexed field names to their options.
	Indexes map[string]IndexOptions `json:"indexes,omitempty" yaml:"indexes,omitempty" toml:"indexes,omitempty"`
}

// IndexOptions holds the options of an index.
type IndexOptions struct {
	Unique bool `json:"unique" yaml:"unique" toml:"unique"`
}

// Check validates the descriptor.
func (d *Descriptor) Check() error {
	if d == nil {
		return fmt.Errorf("%w: no descriptor", ErrInvalidName)
	}
	if !nameConstraint.MatchString(d.Name) {
		return fmt.Errorf("%w: database name %q must only contain alphanumeric and `_-` characters", ErrInvalidName, d.Name)
	}
	if d.Version == 0 {
		return ErrNoVersion
	}
	if len(d.Stores) == 0 {
		return ErrNoStores
	}

	seen := make(map[string]struct{}, len(d.Stores))
	for _, s := range d.Stores {
		if s.Name == "" {
			return fmt.Errorf("%w: empty store name", ErrInvalidName)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("%w: duplicate store %q", ErrInvalidName, s.Name)
		}
		seen[s.Name] = struct{}{}

		if s.KeyPath != "" && !accessor.ValidPath(s.KeyPath) {
			return fmt.Errorf("%w: key path %q of store %q", ErrInvalidName, s.KeyPath, s.Name)
		}
		for field := range s.Indexes {
			if !accessor.ValidPath(field) {
				return fmt.Errorf("%w: index %q of store %q", ErrInvalidName, field, s.Name)
			}
		}
	}
	return nil
}

// Copy returns a deep copy of the descriptor.
func (d *Descriptor) Copy() *Descriptor {
	c := &Descriptor{
		Name:    d.Name,
		Version: d.Version,
		Stores:  make([]StoreDescriptor, len(d.Stores)),
	}
	for i, s := range d.Stores {
		c.Stores[i] = StoreDescriptor{
			Name:    s.Name,
			KeyPath: s.KeyPath,
			Indexes: maps.Clone(s.Indexes),
		}
	}
	return c
}

// Store returns the descriptor of the named store.
func (d *Descriptor) Store(name string) (StoreDescriptor, bool) {
	for _, s := range d.Stores {
		if s.Name == name {
			return s, true
		}
	}
	return StoreDescriptor{}, false
}

// IndexNames returns the sorted names of the indexes.
func (s StoreDescriptor) IndexNames() []string {
	names := maps.Keys(s.Indexes)
	slices.Sort(names)
	return names
}
