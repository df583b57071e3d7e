package database

import (
	"errors"
	"fmt"
)

// Errors.
var (
	ErrShuttingDown = errors.New("database system is shutting down")
	ErrClosed       = errors.New("connection is closed")
	ErrAlreadyOpen  = errors.New("database is already open")
	ErrInvalidName  = errors.New("invalid name")
	ErrNoStores     = errors.New("descriptor has no stores")
	ErrNoVersion    = errors.New("version must be at least 1")
	ErrNoKeys       = errors.New("no keys given")
)

// ErrorKind classifies the errors returned by a Connection.
type ErrorKind uint8

// Error kinds.
const (
	KindConfig ErrorKind = iota + 1
	KindConnection
	KindUpgrade
	KindQuery
	KindMutation
	KindExport
	KindImport
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConnection:
		return "connection"
	case KindUpgrade:
		return "upgrade"
	case KindQuery:
		return "query"
	case KindMutation:
		return "mutation"
	case KindExport:
		return "export"
	case KindImport:
		return "import"
	default:
		return "unknown"
	}
}

// Error is returned by all operations of a Connection.
type Error struct {
	Kind ErrorKind
	// Op is the name of the failed operation.
	Op string
	// Store is the name of the affected store, if any.
	Store string
	// Index is the position of the failed item of a batch, or -1.
	Index int
	Err   error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Store != "" {
		msg += " " + e.Store
	}
	if e.Index >= 0 {
		msg += fmt.Sprintf(" [item %d]", e.Index)
	}
	return fmt.Sprintf("database: %s failed (%s error): %s", msg, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so that errors.Is(err, &Error{Kind: KindQuery}) works.
// Upgrade errors are also connection errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Store != "" || t.Err != nil {
		return false
	}
	return e.Kind == t.Kind || (t.Kind == KindConnection && e.Kind == KindUpgrade)
}

// IsKind reports whether any error in the chain of err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

func newError(kind ErrorKind, op, store string, err error) *Error {
	return &Error{
		Kind:  kind,
		Op:    op,
		Store: store,
		Index: -1,
		Err:   err,
	}
}

func configError(op, store string, err error) *Error {
	return newError(KindConfig, op, store, err)
}

func connectionError(op string, err error) *Error {
	return newError(KindConnection, op, "", err)
}

func upgradeError(err error) *Error {
	return newError(KindUpgrade, "upgrade", "", err)
}

func queryError(op, store string, err error) *Error {
	return newError(KindQuery, op, store, err)
}

func mutationError(op, store string, index int, err error) *Error {
	e := newError(KindMutation, op, store, err)
	e.Index = index
	return e
}

func exportError(store string, err error) *Error {
	return newError(KindExport, "export", store, err)
}

func importError(store string, index int, err error) *Error {
	e := newError(KindImport, "import", store, err)
	e.Index = index
	return e
}
