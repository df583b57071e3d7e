package storage

import "errors"

// Errors for storages.
var (
	ErrNotFound        = errors.New("storage entry not found")
	ErrInvalidKey      = errors.New("invalid key")
	ErrConstraint      = errors.New("constraint violated")
	ErrUnknownStore    = errors.New("unknown store")
	ErrUnknownIndex    = errors.New("unknown index")
	ErrStoreExists     = errors.New("store already exists")
	ErrIndexExists     = errors.New("index already exists")
	ErrReadOnly        = errors.New("transaction is read-only")
	ErrTransactionDone = errors.New("transaction already finished")
	ErrInvalidMode     = errors.New("invalid transaction mode")
	ErrDataError       = errors.New("invalid data for store")
	ErrVersion         = errors.New("requested version is lower than the stored version")
	ErrScope           = errors.New("store not in transaction scope")
	ErrShutdown        = errors.New("storage is shut down")
)
