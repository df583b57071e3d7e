package storage

// Mode is the mode of a transaction.
type Mode uint8

// Transaction modes.
const (
	ReadOnly Mode = iota + 1
	ReadWrite
	VersionChangeMode
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "readonly"
	case ReadWrite:
		return "readwrite"
	case VersionChangeMode:
		return "versionchange"
	default:
		return "invalid"
	}
}

// Writable reports whether the mode allows writes.
func (m Mode) Writable() bool {
	return m == ReadWrite || m == VersionChangeMode
}

// Direction is the iteration direction of a cursor.
type Direction uint8

// Cursor directions.
const (
	Forward Direction = iota
	ForwardUnique
	Backward
	BackwardUnique
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "next"
	case ForwardUnique:
		return "nextunique"
	case Backward:
		return "prev"
	case BackwardUnique:
		return "prevunique"
	default:
		return "next"
	}
}

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d <= BackwardUnique
}

// Reverse reports whether the direction iterates descending.
func (d Direction) Reverse() bool {
	return d == Backward || d == BackwardUnique
}

// Unique reports whether the direction skips duplicate index keys.
func (d Direction) Unique() bool {
	return d == ForwardUnique || d == BackwardUnique
}

// StoreOptions configures a new store.
type StoreOptions struct {
	// KeyPath is the dotted path of the in-line key. Empty means out-of-line keys.
	KeyPath       string
	AutoIncrement bool
}

// IndexOptions configures a new index.
type IndexOptions struct {
	Unique bool
}

// Entry is a raw entry read from a store or index.
type Entry struct {
	// Key is the index key for index cursors and the record key otherwise.
	Key        interface{}
	PrimaryKey interface{}
	// Data holds the dsd encoded record value.
	Data []byte
}

// Interface defines the object-store capability the database client works on.
type Interface interface {
	Version() uint64
	Upgrade(version uint64, fn func(VersionChange) error) error
	StoreNames() []string
	Begin(scope []string, mode Mode) (Transaction, error)
	Shutdown() error
}

// VersionChange is the schema changing context of an upgrade.
type VersionChange interface {
	OldVersion() uint64
	NewVersion() uint64
	StoreNames() []string
	HasStore(name string) bool
	CreateStore(name string, opts StoreOptions) (Store, error)
	DeleteStore(name string) error
	CreateIndex(storeName, indexName, keyPath string, opts IndexOptions) error
	// Store returns a writable handle to a store during the upgrade.
	Store(name string) (Store, error)
}

// Transaction is a scoped unit of work. It is not safe for concurrent use.
type Transaction interface {
	Store(name string) (Store, error)
	Mode() Mode
	Commit() error
	Rollback()
}

// Store is a handle to a named store within a transaction.
type Store interface {
	Name() string
	Schema() StoreSchema
	// Add inserts value and fails with ErrConstraint if the key already exists.
	Add(value interface{}, key interface{}) (interface{}, error)
	// Put inserts or replaces value.
	Put(value interface{}, key interface{}) (interface{}, error)
	Get(key interface{}) (*Entry, error)
	// Delete removes the record at key, or all records within a *KeyRange.
	Delete(key interface{}) error
	Clear() error
	Count(r *KeyRange) (int, error)
	OpenCursor(r *KeyRange, dir Direction) (Cursor, error)
	Index(name string) (Index, error)
}

// Index is a handle to an index of a store within a transaction.
type Index interface {
	Name() string
	KeyPath() string
	Unique() bool
	Count(r *KeyRange) (int, error)
	OpenCursor(r *KeyRange, dir Direction) (Cursor, error)
}

// Cursor iterates over the records of a store or index.
type Cursor interface {
	// Valid reports whether the cursor points at a record.
	Valid() bool
	Direction() Direction
	Key() interface{}
	PrimaryKey() interface{}
	// Value decodes the current record value into v.
	Value(v interface{}) error
	Entry() *Entry
	Continue() error
	Advance(count uint) error
	Update(value interface{}) error
	Delete() error
}
