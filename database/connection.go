package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tevino/abool"

	"github.com/safing/objectbase/database/storage"
	"github.com/safing/objectbase/log"
)

// Connection is an open database. It is safe for concurrent use.
type Connection struct {
	name    string
	desc    *Descriptor
	opts    Options
	storage storage.Interface

	// lock guards storage.
	//  Lock: the connection is closing
	// RLock: an operation is running
	lock         sync.RWMutex
	shuttingDown *abool.AtomicBool
}

// Open opens the database described by desc. If the stored schema version is
// lower than desc.Version, all stores of desc are deleted and recreated
// before Open returns. Only one connection per database name may be open.
func Open(desc *Descriptor, opts *Options) (*Connection, error) {
	countOp("open")

	if err := desc.Check(); err != nil {
		return nil, fail("", configError("open", "", err))
	}
	desc = desc.Copy()
	o := opts.withDefaults()

	if err := reserve(desc.Name); err != nil {
		return nil, fail(desc.Name, connectionError("open", err))
	}

	c, err := open(desc, o)
	if err != nil {
		unregister(desc.Name)
		return nil, fail(desc.Name, err)
	}

	register(c)
	log.Infof("database: opened %s at version %d with %s storage", c.name, desc.Version, o.StorageType)
	return c, nil
}

func open(desc *Descriptor, opts Options) (*Connection, *Error) {
	location, err := getLocation(opts, desc.Name)
	if err != nil {
		return nil, connectionError("open", err)
	}

	engine, err := storage.StartEngine(opts.StorageType, desc.Name, location)
	if err != nil {
		return nil, connectionError("open", err)
	}

	backend, err := storage.NewBackend(desc.Name, engine, opts.Format)
	if err != nil {
		_ = engine.Shutdown()
		return nil, connectionError("open", err)
	}

	c := &Connection{
		name:         desc.Name,
		desc:         desc,
		opts:         opts,
		storage:      backend,
		shuttingDown: abool.New(),
	}

	stored := backend.Version()
	switch {
	case desc.Version < stored:
		_ = backend.Shutdown()
		return nil, connectionError("open", fmt.Errorf("%w: stored %d, requested %d", storage.ErrVersion, stored, desc.Version))
	case desc.Version > stored:
		if err := c.migrate(stored); err != nil {
			_ = backend.Shutdown()
			return nil, upgradeError(err)
		}
	}

	return c, nil
}

// migrate recreates all stores of the descriptor in one version change.
func (c *Connection) migrate(from uint64) error {
	log.Infof("database: upgrading %s from version %d to %d", c.name, from, c.desc.Version)

	return c.storage.Upgrade(c.desc.Version, func(vc storage.VersionChange) error {
		for _, s := range c.desc.Stores {
			if vc.HasStore(s.Name) {
				log.Debugf("database: %s: deleting store %s", c.name, s.Name)
				if err := vc.DeleteStore(s.Name); err != nil {
					return fmt.Errorf("failed to delete store %s: %w", s.Name, err)
				}
			}

			_, err := vc.CreateStore(s.Name, storage.StoreOptions{
				KeyPath:       s.KeyPath,
				AutoIncrement: s.KeyPath == "",
			})
			if err != nil {
				return fmt.Errorf("failed to create store %s: %w", s.Name, err)
			}

			for _, field := range s.IndexNames() {
				opts := s.Indexes[field]
				err := vc.CreateIndex(s.Name, field, field, storage.IndexOptions{Unique: opts.Unique})
				if err != nil {
					return fmt.Errorf("failed to create index %s on store %s: %w", field, s.Name, err)
				}
			}
			log.Debugf("database: %s: created store %s with %d indexes", c.name, s.Name, len(s.Indexes))
		}
		return nil
	})
}

// Name returns the name of the database.
func (c *Connection) Name() string {
	return c.name
}

// Version returns the schema version of the database.
func (c *Connection) Version() uint64 {
	return c.desc.Version
}

// Descriptor returns a copy of the descriptor the database was opened with.
func (c *Connection) Descriptor() *Descriptor {
	return c.desc.Copy()
}

// StoreNames returns the sorted names of all stores, including stores that
// are not part of the descriptor.
func (c *Connection) StoreNames() ([]string, error) {
	if err := c.enter(); err != nil {
		return nil, fail(c.name, connectionError("store names", err))
	}
	defer c.leave()

	return c.storage.StoreNames(), nil
}

// Close closes the connection and the underlying storage. Closing a closed
// connection does nothing.
func (c *Connection) Close() error {
	if !c.shuttingDown.SetToIf(false, true) {
		return nil
	}
	countOp("close")

	// Wait for running operations.
	c.lock.Lock()
	defer c.lock.Unlock()

	unregister(c.name)
	if err := c.storage.Shutdown(); err != nil {
		return fail(c.name, connectionError("close", err))
	}
	log.Infof("database: closed %s", c.name)
	return nil
}

// Maintain runs the quick maintenance cycle of the storage.
func (c *Connection) Maintain() error {
	return c.maintain(false)
}

// MaintainThorough runs the thorough maintenance cycle of the storage.
func (c *Connection) MaintainThorough() error {
	return c.maintain(true)
}

func (c *Connection) maintain(thorough bool) error {
	countOp("maintain")
	if err := c.enter(); err != nil {
		return fail(c.name, connectionError("maintain", err))
	}
	defer c.leave()

	m, ok := c.storage.(storage.Maintainer)
	if !ok {
		return nil
	}
	var err error
	if thorough {
		err = m.MaintainThorough()
	} else {
		err = m.Maintain()
	}
	if err != nil {
		return fail(c.name, connectionError("maintain", err))
	}
	return nil
}

// enter marks the start of an operation. Every successful enter must be
// followed by leave.
func (c *Connection) enter() error {
	if c.shuttingDown.IsSet() {
		return ErrClosed
	}
	c.lock.RLock()
	if c.shuttingDown.IsSet() {
		c.lock.RUnlock()
		return ErrClosed
	}
	return nil
}

func (c *Connection) leave() {
	c.lock.RUnlock()
}

// fail logs and counts a failed operation.
func fail(name string, err *Error) error {
	countError(err.Kind)
	if name == "" {
		log.Warningf("%s", err)
	} else {
		log.Warningf("%s (%s)", err, name)
	}
	return err
}

// asError returns err as *Error, using kind if it is not one yet.
func asError(err error, kind ErrorKind, op, store string) *Error {
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr
	}
	return newError(kind, op, store, err)
}
