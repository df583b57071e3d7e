package utils

import (
	"errors"
	"fmt"
	"os"
	"runtime"
)

// ErrNotADirectory is returned if a path that should be a directory is a file.
var ErrNotADirectory = errors.New("path exists and is not a directory")

// EnsureDirectory ensures that the given directory exists and that is has the given permissions set.
// If a directory is created, also all missing directories up to the required one are created with the given permissions.
func EnsureDirectory(path string, perm os.FileMode) error {
	isDir, mode, err := statDir(path)
	if err != nil {
		return err
	}

	if !isDir {
		err = os.MkdirAll(path, perm)
		if err != nil {
			return fmt.Errorf("could not create dir %s: %w", path, err)
		}
		return nil
	}

	if mode.Perm() != perm {
		if runtime.GOOS == "windows" {
			return nil
		}
		return os.Chmod(path, perm)
	}

	return nil
}

func statDir(path string) (isDir bool, mode os.FileMode, err error) {
	f, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return false, 0, nil
	case err != nil:
		return false, 0, fmt.Errorf("failed to access %s: %w", path, err)
	case !f.IsDir():
		return false, 0, fmt.Errorf("%s: %w", path, ErrNotADirectory)
	}
	return true, f.Mode(), nil
}
