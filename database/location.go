package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/safing/objectbase/utils"
)

var errNoLocation = errors.New("no location for a persistent storage type")

// getLocation returns the storage location for the given name and type.
func getLocation(opts Options, name string) (string, error) {
	if opts.inMemory() {
		return "", nil
	}
	if opts.Location == "" {
		return "", errNoLocation
	}

	location := filepath.Join(opts.Location, name, opts.StorageType)

	// check location
	err := utils.EnsureDirectory(location, 0o700)
	if err != nil {
		return "", fmt.Errorf("location (%s) invalid: %w", location, err)
	}
	return location, nil
}
