package database

// Register all bundled engines.
import (
	_ "github.com/safing/objectbase/database/storage/badger"
	_ "github.com/safing/objectbase/database/storage/bbolt"
	_ "github.com/safing/objectbase/database/storage/hashmap"
	_ "github.com/safing/objectbase/database/storage/sqlite"
)
