package sqlite

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/safing/objectbase/database/storage"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS entries (
	k BLOB PRIMARY KEY,
	v BLOB NOT NULL
) WITHOUT ROWID`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// SQLite engine made pluggable for objectbase. All entries live in a single
// table ordered by their blob key.
type SQLite struct {
	name string
	db   *sql.DB
}

func init() {
	_ = storage.Register("sqlite", NewSQLite)
}

// NewSQLite opens/creates a sqlite database.
func NewSQLite(name, location string) (storage.Engine, error) {
	db, err := sql.Open("sqlite3", filepath.Join(location, "db.sqlite"))
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: failed to connect to database: %w", err)
	}

	// SQLite supports only one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: failed to apply schema: %w", err)
	}

	return &SQLite{
		name: name,
		db:   db,
	}, nil
}

// Begin starts a sqlite transaction.
func (s *SQLite) Begin(writable bool) (storage.EngineTxn, error) {
	tx, err := s.db.Begin()
	if err != nil {
		if errors.Is(err, sql.ErrConnDone) {
			return nil, storage.ErrShutdown
		}
		return nil, mapError(err)
	}
	return &txn{
		tx:       tx,
		writable: writable,
	}, nil
}

// Maintain optimizes the query planner statistics.
func (s *SQLite) Maintain() error {
	_, err := s.db.Exec("PRAGMA optimize")
	return mapError(err)
}

// MaintainThorough checkpoints the write ahead log and rebuilds the database file.
func (s *SQLite) MaintainThorough() error {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return mapError(err)
	}
	_, err := s.db.Exec("VACUUM")
	return mapError(err)
}

// Shutdown closes the database.
func (s *SQLite) Shutdown() error {
	return s.db.Close()
}

type txn struct {
	tx       *sql.Tx
	writable bool
	done     bool
}

var errReadOnly = errors.New("sqlite: write in read-only transaction")

func (t *txn) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, storage.ErrTransactionDone
	}
	var value []byte
	err := t.tx.QueryRow("SELECT v FROM entries WHERE k = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, mapError(err)
	}
	return value, nil
}

func (t *txn) Put(key, value []byte) error {
	switch {
	case t.done:
		return storage.ErrTransactionDone
	case !t.writable:
		return errReadOnly
	}
	_, err := t.tx.Exec("INSERT INTO entries (k, v) VALUES (?, ?) ON CONFLICT (k) DO UPDATE SET v = excluded.v", key, value)
	return mapError(err)
}

func (t *txn) Delete(key []byte) error {
	switch {
	case t.done:
		return storage.ErrTransactionDone
	case !t.writable:
		return errReadOnly
	}
	_, err := t.tx.Exec("DELETE FROM entries WHERE k = ?", key)
	return mapError(err)
}

func (t *txn) Seek(prefix, pivot []byte, reverse bool) (key, value []byte, err error) {
	if t.done {
		return nil, nil, storage.ErrTransactionDone
	}

	end := storage.PrefixEnd(prefix)
	var row *sql.Row
	if !reverse {
		if pivot == nil || bytes.Compare(pivot, prefix) < 0 {
			pivot = prefix
		}
		if end == nil {
			row = t.tx.QueryRow("SELECT k, v FROM entries WHERE k >= ? ORDER BY k ASC LIMIT 1", pivot)
		} else {
			row = t.tx.QueryRow("SELECT k, v FROM entries WHERE k >= ? AND k < ? ORDER BY k ASC LIMIT 1", pivot, end)
		}
	} else {
		if pivot == nil {
			pivot = end
		}
		if pivot == nil {
			row = t.tx.QueryRow("SELECT k, v FROM entries WHERE k >= ? ORDER BY k DESC LIMIT 1", prefix)
		} else {
			row = t.tx.QueryRow("SELECT k, v FROM entries WHERE k >= ? AND k < ? ORDER BY k DESC LIMIT 1", prefix, pivot)
		}
	}

	if err := row.Scan(&key, &value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, mapError(err)
	}
	return key, value, nil
}

func (t *txn) Commit() error {
	if t.done {
		return storage.ErrTransactionDone
	}
	t.done = true
	if !t.writable {
		return mapError(t.tx.Rollback())
	}
	return mapError(t.tx.Commit())
}

func (t *txn) Discard() {
	if t.done {
		return
	}
	t.done = true
	_ = t.tx.Rollback()
}

// mapError adds context to sqlite errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("sqlite: database is locked: %w", err)
		case sqlite3.ErrReadonly:
			return fmt.Errorf("sqlite: database is read-only: %w", err)
		}
	}
	return fmt.Errorf("sqlite: %w", err)
}
