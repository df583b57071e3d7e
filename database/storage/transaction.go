package storage

import (
	"fmt"
)

type transaction struct {
	backend *Backend
	txn     EngineTxn
	mode    Mode
	scope   map[string]*StoreSchema
	done    bool
}

// Store returns a handle to a store in the transaction scope.
func (tx *transaction) Store(name string) (Store, error) {
	return tx.store(name)
}

func (tx *transaction) store(name string) (*objectStore, error) {
	if tx.done {
		return nil, ErrTransactionDone
	}

	s, ok := tx.scope[name]
	if !ok {
		if tx.mode != VersionChangeMode && tx.backend.hasStore(name) {
			return nil, fmt.Errorf("%w: %s", ErrScope, name)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, name)
	}

	return &objectStore{
		tx:   tx,
		name: s.Name,
	}, nil
}

func (tx *transaction) Mode() Mode {
	return tx.mode
}

func (tx *transaction) Commit() error {
	if tx.mode == VersionChangeMode {
		return fmt.Errorf("%w: version change transactions commit with the upgrade", ErrInvalidMode)
	}
	if tx.done {
		return ErrTransactionDone
	}
	tx.done = true

	if !tx.mode.Writable() {
		tx.txn.Discard()
		return nil
	}
	return tx.txn.Commit()
}

func (tx *transaction) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	tx.txn.Discard()
}

func (tx *transaction) checkWritable() error {
	switch {
	case tx.done:
		return ErrTransactionDone
	case !tx.mode.Writable():
		return ErrReadOnly
	}
	return nil
}

func (tx *transaction) checkActive() error {
	if tx.done {
		return ErrTransactionDone
	}
	return nil
}

// versionChange is the context of a running upgrade.
type versionChange struct {
	tx          *transaction
	oldVersion  uint64
	newVersion  uint64
	nextStoreID uint64
}

func (vc *versionChange) OldVersion() uint64 {
	return vc.oldVersion
}

func (vc *versionChange) NewVersion() uint64 {
	return vc.newVersion
}

func (vc *versionChange) StoreNames() []string {
	return sortedNames(vc.tx.scope)
}

func (vc *versionChange) HasStore(name string) bool {
	_, ok := vc.tx.scope[name]
	return ok
}

func (vc *versionChange) Store(name string) (Store, error) {
	return vc.tx.store(name)
}

func (vc *versionChange) CreateStore(name string, opts StoreOptions) (Store, error) {
	if err := vc.tx.checkWritable(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty store name", ErrDataError)
	}
	if vc.HasStore(name) {
		return nil, fmt.Errorf("%w: %s", ErrStoreExists, name)
	}
	if opts.KeyPath != "" && !validKeyPath(opts.KeyPath) {
		return nil, fmt.Errorf("%w: invalid key path %q", ErrDataError, opts.KeyPath)
	}

	s := &StoreSchema{
		ID:            uint32(vc.nextStoreID),
		Name:          name,
		KeyPath:       opts.KeyPath,
		AutoIncrement: opts.AutoIncrement,
	}
	vc.nextStoreID++

	// Remove leftovers of an earlier store with the same ID.
	if err := deletePrefix(vc.tx.txn, s.storePrefix()); err != nil {
		return nil, err
	}
	if err := saveSchema(vc.tx.txn, s); err != nil {
		return nil, err
	}
	vc.tx.scope[name] = s

	return &objectStore{
		tx:   vc.tx,
		name: s.Name,
	}, nil
}

func (vc *versionChange) DeleteStore(name string) error {
	if err := vc.tx.checkWritable(); err != nil {
		return err
	}
	s, ok := vc.tx.scope[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStore, name)
	}

	if err := deletePrefix(vc.tx.txn, s.storePrefix()); err != nil {
		return err
	}
	if err := vc.tx.txn.Delete(metaKey(metaStore, name)); err != nil {
		return err
	}
	delete(vc.tx.scope, name)
	return nil
}

func (vc *versionChange) CreateIndex(storeName, indexName, keyPath string, opts IndexOptions) error {
	if err := vc.tx.checkWritable(); err != nil {
		return err
	}
	s, ok := vc.tx.scope[storeName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStore, storeName)
	}
	if indexName == "" {
		return fmt.Errorf("%w: empty index name", ErrDataError)
	}
	if s.index(indexName) != nil {
		return fmt.Errorf("%w: %s.%s", ErrIndexExists, storeName, indexName)
	}
	if !validKeyPath(keyPath) {
		return fmt.Errorf("%w: invalid key path %q", ErrDataError, keyPath)
	}

	updated := s.clone()
	idx := &IndexSchema{
		ID:      updated.nextIndexID(),
		Name:    indexName,
		KeyPath: keyPath,
		Unique:  opts.Unique,
	}
	updated.Indexes = append(updated.Indexes, idx)

	// Index all existing records.
	store := &objectStore{tx: vc.tx, name: storeName}
	if err := store.backfill(updated, idx); err != nil {
		return err
	}

	if err := saveSchema(vc.tx.txn, updated); err != nil {
		return err
	}
	vc.tx.scope[storeName] = updated
	return nil
}
