package database

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
)

var (
	// connections holds all open connections by database name. A nil value
	// reserves a name while its connection is opening.
	connections     = make(map[string]*Connection)
	connectionsLock sync.Mutex
)

func reserve(name string) error {
	connectionsLock.Lock()
	defer connectionsLock.Unlock()

	if _, ok := connections[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyOpen, name)
	}
	connections[name] = nil
	return nil
}

func register(c *Connection) {
	connectionsLock.Lock()
	defer connectionsLock.Unlock()

	connections[c.name] = c
}

func unregister(name string) {
	connectionsLock.Lock()
	defer connectionsLock.Unlock()

	delete(connections, name)
}

func openConnections() int {
	connectionsLock.Lock()
	defer connectionsLock.Unlock()

	var n int
	for _, c := range connections {
		if c != nil {
			n++
		}
	}
	return n
}

// Get returns the open connection of the named database.
func Get(name string) (*Connection, bool) {
	connectionsLock.Lock()
	defer connectionsLock.Unlock()

	c, ok := connections[name]
	if !ok || c == nil {
		return nil, false
	}
	return c, true
}

// Names returns the sorted names of all open databases.
func Names() []string {
	connectionsLock.Lock()
	defer connectionsLock.Unlock()

	names := make([]string, 0, len(connections))
	for name, c := range connections {
		if c != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// CloseAll closes all open connections and returns all errors encountered.
func CloseAll() error {
	connectionsLock.Lock()
	all := make([]*Connection, 0, len(connections))
	for _, c := range connections {
		if c != nil {
			all = append(all, c)
		}
	}
	connectionsLock.Unlock()

	var result *multierror.Error
	for _, c := range all {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
