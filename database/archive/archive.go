// Package archive reads and writes database exports as versioned archives.
package archive

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofrs/uuid"
	semver "github.com/hashicorp/go-version"

	"github.com/safing/objectbase/database"
	"github.com/safing/objectbase/database/record"
	"github.com/safing/objectbase/database/storage"
	"github.com/safing/objectbase/formats/dsd"
	"github.com/safing/objectbase/log"
)

// FormatVersion is the archive format version written by Write.
const FormatVersion = "1.0.0"

// Archives written with a format version outside this constraint cannot be read.
var compatibleVersions = semver.MustConstraints(semver.NewConstraint(">= 1.0, < 2.0"))

// Errors.
var (
	ErrIncompatible = errors.New("incompatible archive format version")
	ErrInvalid      = errors.New("invalid archive")
)

// Header describes an archive.
type Header struct {
	ID            string `json:"id"`
	FormatVersion string `json:"formatVersion"`
	Database      string `json:"database"`
	Version       uint64 `json:"version"`
	// CreatedAt is the creation time in unix seconds.
	CreatedAt int64 `json:"createdAt"`
}

// Created returns the creation time of the archive.
func (h *Header) Created() time.Time {
	return time.Unix(h.CreatedAt, 0)
}

// Archive is a header and the exported records by store name.
type Archive struct {
	Header Header                     `json:"header"`
	Data   map[string][]record.Record `json:"data"`
}

// Options configure Write.
type Options struct {
	Database string
	Version  uint64
	// Format is the dsd format of the archive. AUTO selects JSON.
	Format   uint8
	Compress bool
}

// Write writes the export as an archive to w and returns its header.
func Write(w io.Writer, export map[string][]record.Record, opts Options) (*Header, error) {
	format, ok := dsd.ValidateSerializationFormat(opts.Format)
	if !ok || format == dsd.RAW {
		return nil, fmt.Errorf("archive: %w: %s", dsd.ErrIncompatibleFormat, dsd.FormatName(opts.Format))
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("archive: failed to create id: %w", err)
	}
	a := &Archive{
		Header: Header{
			ID:            id.String(),
			FormatVersion: FormatVersion,
			Database:      opts.Database,
			Version:       opts.Version,
			CreatedAt:     time.Now().Unix(),
		},
		Data: export,
	}
	if a.Data == nil {
		a.Data = make(map[string][]record.Record)
	}

	var data []byte
	if opts.Compress {
		data, err = dsd.DumpAndCompress(a, format, dsd.GZIP)
	} else {
		data, err = dsd.Dump(a, format)
	}
	if err != nil {
		return nil, fmt.Errorf("archive: failed to encode: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("archive: failed to write: %w", err)
	}

	log.Debugf("archive: wrote %s of %s v%d (%d bytes)", a.Header.ID, a.Header.Database, a.Header.Version, len(data))
	return &a.Header, nil
}

// Read reads an archive written by Write.
func Read(r io.Reader) (*Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("archive: failed to read: %w", err)
	}

	a := &Archive{}
	if _, err := dsd.Load(data, a); err != nil {
		return nil, fmt.Errorf("archive: %w: %s", ErrInvalid, err)
	}
	if err := a.check(); err != nil {
		return nil, err
	}

	for store, records := range a.Data {
		for i, rec := range records {
			key, err := storage.NormalizeKey(record.Normalize(rec.Key))
			if err != nil {
				return nil, fmt.Errorf("archive: %w: store %s record %d: %s", ErrInvalid, store, i, err)
			}
			value, ok := record.Normalize(rec.Value).(map[string]interface{})
			if !ok && rec.Value != nil {
				return nil, fmt.Errorf("archive: %w: store %s record %d: %s", ErrInvalid, store, i, record.ErrNotAnObject)
			}
			records[i] = record.Record{Key: key, Value: value}
		}
	}
	return a, nil
}

func (a *Archive) check() error {
	v, err := semver.NewVersion(a.Header.FormatVersion)
	if err != nil {
		return fmt.Errorf("archive: %w: format version %q: %s", ErrInvalid, a.Header.FormatVersion, err)
	}
	if !compatibleVersions.Check(v) {
		return fmt.Errorf("archive: %w: %s", ErrIncompatible, v)
	}
	if _, err := uuid.FromString(a.Header.ID); err != nil {
		return fmt.Errorf("archive: %w: id: %s", ErrInvalid, err)
	}
	return nil
}

// Export writes all records of the database as an archive to w.
func Export(c *database.Connection, w io.Writer, opts Options) (*Header, error) {
	export, err := c.ExportAll()
	if err != nil {
		return nil, err
	}
	opts.Database = c.Name()
	opts.Version = c.Version()
	return Write(w, export, opts)
}

// Restore imports all records of the archive into the database, keeping
// their keys.
func Restore(c *database.Connection, a *Archive) error {
	if a.Header.Database != "" && a.Header.Database != c.Name() {
		log.Warningf("archive: restoring %s archive %s into %s", a.Header.Database, a.Header.ID, c.Name())
	}
	return c.ImportRecords(a.Data)
}
