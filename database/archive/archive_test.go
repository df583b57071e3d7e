package archive

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/objectbase/database"
	"github.com/safing/objectbase/database/record"
	"github.com/safing/objectbase/formats/dsd"
)

var testExport = map[string][]record.Record{
	"tasks": {
		{Key: 1.0, Value: map[string]interface{}{"id": 1.0, "title": "a", "tags": []interface{}{"x"}}},
		{Key: 2.0, Value: map[string]interface{}{"id": 2.0, "title": "b", "meta": map[string]interface{}{"n": 3.0}}},
	},
	"notes": {
		{Key: "named", Value: map[string]interface{}{"text": "hello"}},
	},
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []uint8{dsd.AUTO, dsd.JSON, dsd.CBOR, dsd.MsgPack} {
		for _, compress := range []bool{false, true} {
			var buf bytes.Buffer
			h, err := Write(&buf, testExport, Options{
				Database: "Todos",
				Version:  3,
				Format:   format,
				Compress: compress,
			})
			require.NoError(t, err)
			_, err = uuid.FromString(h.ID)
			require.NoError(t, err)

			a, err := Read(&buf)
			require.NoError(t, err, "%s compress=%v", dsd.FormatName(format), compress)
			assert.Equal(t, *h, a.Header)
			assert.Equal(t, "Todos", a.Header.Database)
			assert.Equal(t, uint64(3), a.Header.Version)
			assert.Equal(t, FormatVersion, a.Header.FormatVersion)
			assert.Equal(t, testExport, a.Data, "%s compress=%v", dsd.FormatName(format), compress)
		}
	}
}

func TestWriteRejectsRaw(t *testing.T) {
	_, err := Write(&bytes.Buffer{}, testExport, Options{Format: dsd.RAW})
	assert.ErrorIs(t, err, dsd.ErrIncompatibleFormat)
}

func TestFormatVersion(t *testing.T) {
	for version, compatible := range map[string]bool{
		"1.0.0": true,
		"1.9.3": true,
		"0.9.0": false,
		"2.0.0": false,
	} {
		data, err := dsd.Dump(&Archive{
			Header: Header{ID: uuid.Must(uuid.NewV4()).String(), FormatVersion: version},
		}, dsd.JSON)
		require.NoError(t, err)

		_, err = Read(bytes.NewReader(data))
		if compatible {
			assert.NoError(t, err, version)
		} else {
			assert.True(t, errors.Is(err, ErrIncompatible), version)
		}
	}

	data, err := dsd.Dump(&Archive{Header: Header{ID: "nope", FormatVersion: "1.0.0"}}, dsd.JSON)
	require.NoError(t, err)
	_, err = Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Read(bytes.NewReader([]byte("garbage")))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestExportRestore(t *testing.T) {
	desc := &database.Descriptor{
		Name:    "archive-test",
		Version: 1,
		Stores: []database.StoreDescriptor{
			{Name: "tasks", KeyPath: "id", Indexes: map[string]database.IndexOptions{"title": {}}},
			{Name: "notes"},
		},
	}
	src, err := database.Open(desc, &database.Options{StorageType: "hashmap"})
	require.NoError(t, err)
	require.NoError(t, src.ImportRecords(testExport))

	var buf bytes.Buffer
	h, err := Export(src, &buf, Options{Format: dsd.CBOR, Compress: true})
	require.NoError(t, err)
	assert.Equal(t, "archive-test", h.Database)
	require.NoError(t, src.Close())

	// Reopen the same name as a fresh database.
	dst, err := database.Open(desc, &database.Options{StorageType: "hashmap"})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, dst.Close())
	}()

	a, err := Read(&buf)
	require.NoError(t, err)
	require.NoError(t, Restore(dst, a))

	export, err := dst.ExportAll()
	require.NoError(t, err)
	assert.Equal(t, testExport, export)
}
