package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tevino/abool"

	"github.com/safing/objectbase/formats/dsd"
)

// Backend implements the object-store Interface on top of an Engine.
type Backend struct {
	name   string
	engine Engine
	format uint8

	// lock guards version and stores. Upgrades hold it exclusively.
	lock    sync.RWMutex
	version uint64
	stores  map[string]*StoreSchema

	shutdown *abool.AtomicBool
}

// NewBackend loads the object-store metadata from engine. Record values are
// serialized with format.
func NewBackend(name string, engine Engine, format uint8) (*Backend, error) {
	format, ok := dsd.ValidateSerializationFormat(format)
	if !ok || format == dsd.RAW {
		return nil, fmt.Errorf("%w: %s", dsd.ErrIncompatibleFormat, dsd.FormatName(format))
	}

	txn, err := engine.Begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Discard()

	version, err := loadUint(txn, metaKey(metaVersion, ""))
	if err != nil {
		return nil, err
	}
	stores, err := loadSchemas(txn)
	if err != nil {
		return nil, err
	}

	return &Backend{
		name:     name,
		engine:   engine,
		format:   format,
		version:  version,
		stores:   stores,
		shutdown: abool.New(),
	}, nil
}

// Name returns the name of the backend.
func (b *Backend) Name() string {
	return b.name
}

// Version returns the stored schema version. A new database has version 0.
func (b *Backend) Version() uint64 {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.version
}

// StoreNames returns the sorted names of all stores.
func (b *Backend) StoreNames() []string {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return sortedNames(b.stores)
}

// Upgrade changes the schema to version by calling fn within a single
// version-change transaction. If fn fails, nothing is changed.
func (b *Backend) Upgrade(version uint64, fn func(VersionChange) error) error {
	if b.shutdown.IsSet() {
		return ErrShutdown
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if version < b.version {
		return fmt.Errorf("%w: stored %d, requested %d", ErrVersion, b.version, version)
	}
	if version == b.version {
		return nil
	}

	txn, err := b.engine.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Discard()

	nextStoreID, err := loadUint(txn, metaKey(metaNextStoreID, ""))
	if err != nil {
		return err
	}
	if nextStoreID == 0 {
		nextStoreID = 1
	}

	stores := make(map[string]*StoreSchema, len(b.stores))
	for name, s := range b.stores {
		stores[name] = s
	}

	vc := &versionChange{
		oldVersion:  b.version,
		newVersion:  version,
		nextStoreID: nextStoreID,
	}
	vc.tx = &transaction{
		backend: b,
		txn:     txn,
		mode:    VersionChangeMode,
		scope:   stores,
	}

	if err := fn(vc); err != nil {
		return err
	}
	if vc.tx.done {
		return ErrTransactionDone
	}

	if err := saveUint(txn, metaKey(metaNextStoreID, ""), vc.nextStoreID); err != nil {
		return err
	}
	if err := saveUint(txn, metaKey(metaVersion, ""), version); err != nil {
		return err
	}
	vc.tx.done = true
	if err := txn.Commit(); err != nil {
		return err
	}

	b.stores = stores
	b.version = version
	return nil
}

// Begin starts a transaction over the stores in scope.
func (b *Backend) Begin(scope []string, mode Mode) (Transaction, error) {
	return b.begin(scope, mode)
}

func (b *Backend) begin(scope []string, mode Mode) (*transaction, error) {
	if b.shutdown.IsSet() {
		return nil, ErrShutdown
	}
	if mode != ReadOnly && mode != ReadWrite {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, mode)
	}

	b.lock.RLock()
	defer b.lock.RUnlock()

	stores := make(map[string]*StoreSchema, len(scope))
	for _, name := range scope {
		s, ok := b.stores[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStore, name)
		}
		stores[name] = s
	}

	txn, err := b.engine.Begin(mode == ReadWrite)
	if err != nil {
		return nil, err
	}

	return &transaction{
		backend: b,
		txn:     txn,
		mode:    mode,
		scope:   stores,
	}, nil
}

// Shutdown shuts down the engine.
func (b *Backend) Shutdown() error {
	if !b.shutdown.SetToIf(false, true) {
		return nil
	}

	// Wait for running upgrades.
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.engine.Shutdown()
}

func (b *Backend) hasStore(name string) bool {
	b.lock.RLock()
	defer b.lock.RUnlock()

	_, ok := b.stores[name]
	return ok
}

func sortedNames(stores map[string]*StoreSchema) []string {
	names := make([]string, 0, len(stores))
	for name := range stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Maintain runs the quick maintenance cycle of the engine, if it has one.
func (b *Backend) Maintain() error {
	if b.shutdown.IsSet() {
		return ErrShutdown
	}
	if m, ok := b.engine.(Maintainer); ok {
		return m.Maintain()
	}
	return nil
}

// MaintainThorough runs the thorough maintenance cycle of the engine, if it has one.
func (b *Backend) MaintainThorough() error {
	if b.shutdown.IsSet() {
		return ErrShutdown
	}
	if m, ok := b.engine.(Maintainer); ok {
		return m.MaintainThorough()
	}
	return nil
}
