package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirectory(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	dir := filepath.Join(base, "a", "b", "c")

	require.NoError(t, EnsureDirectory(dir, 0o700))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Existing directories get their permissions fixed.
	require.NoError(t, os.Chmod(dir, 0o755))
	require.NoError(t, EnsureDirectory(dir, 0o700))
	if runtime.GOOS != "windows" {
		info, err = os.Stat(dir)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}

	// Files are never replaced.
	file := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(file, []byte("data"), 0o600))
	assert.ErrorIs(t, EnsureDirectory(file, 0o700), ErrNotADirectory)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
}
