package badger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/objectbase/database/storage"
	"github.com/safing/objectbase/database/storage/storagetest"
)

func TestBadger(t *testing.T) {
	t.Parallel()

	storagetest.Run(t, func(t *testing.T) storage.Engine {
		t.Helper()

		e, err := NewBadger("test", t.TempDir())
		require.NoError(t, err)
		return e
	})
}

func TestMaintenance(t *testing.T) {
	t.Parallel()

	e, err := NewBadger("test", t.TempDir())
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, e.Shutdown())
	}()

	maintainer, ok := e.(storage.Maintainer)
	require.True(t, ok)
	assert.NoError(t, maintainer.Maintain())
	assert.NoError(t, maintainer.MaintainThorough())
}
