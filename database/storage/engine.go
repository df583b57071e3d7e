package storage

// Engine is a flat, ordered key/value store with transactions. All data of the
// object-store layer is kept in a single engine keyspace.
type Engine interface {
	// Begin starts a new engine transaction.
	Begin(writable bool) (EngineTxn, error)
	// Shutdown closes the engine and releases all resources.
	Shutdown() error
}

// EngineTxn is a single engine transaction. It is not safe for concurrent use.
// Keys and values returned by an EngineTxn are owned by the caller.
type EngineTxn interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(key []byte) ([]byte, error)
	// Put stores value at key.
	Put(key, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error
	// Seek returns the next entry with the given prefix.
	// Forward, it returns the first key greater or equal to pivot.
	// In reverse, it returns the last key strictly less than pivot.
	// A nil pivot means the start (forward) or the end (reverse) of the prefix.
	// A nil key is returned if there is no such entry.
	Seek(prefix, pivot []byte, reverse bool) (key, value []byte, err error)
	// Commit persists all changes of a writable transaction and ends it.
	// Committing a read-only transaction just ends it.
	Commit() error
	// Discard ends the transaction without persisting anything.
	// It is safe to call Discard after Commit.
	Discard()
}

// PrefixEnd returns the smallest key that is greater than all keys with the
// given prefix, or nil if there is no such key.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// deletePrefix removes all entries with the given prefix.
func deletePrefix(txn EngineTxn, prefix []byte) error {
	var pivot []byte
	for {
		key, _, err := txn.Seek(prefix, pivot, false)
		if err != nil {
			return err
		}
		if key == nil {
			return nil
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		pivot = key
	}
}

// Maintainer is implemented by engines that support maintenance runs.
type Maintainer interface {
	// Maintain runs a quick maintenance cycle.
	Maintain() error
	// MaintainThorough runs a full maintenance cycle that may take longer.
	MaintainThorough() error
}
