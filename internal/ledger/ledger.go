// Package ledger defines the versioned key-value store every registry
// operation writes through. The store tracks a monotonically increasing
// version per key; writes carry the version the writer read, and a whole
// transaction is rejected with sentinel.ErrConflict when any key has moved.
// Absent keys have version 0.
package ledger

import "context"

// Write is one staged compare-and-swap write. ExpectedVersion must equal the
// stored version at commit time (0 for a create); on success the stored
// version becomes ExpectedVersion+1.
type Write struct {
	Key             string
	Value           []byte
	ExpectedVersion uint64
}

// Txn accumulates the writes of a single operation. Apply commits them all or
// none, so an operation that stages every affected entity is atomic without
// cross-organization locking.
type Txn struct {
	writes []Write
}

func NewTxn() *Txn {
	return &Txn{}
}

// Put stages a write. A later write to the same key replaces the staged value
// but keeps the originally read version, so the commit still compares against
// the state the operation observed first.
func (t *Txn) Put(key string, value []byte, expectedVersion uint64) {
	for i := range t.writes {
		if t.writes[i].Key == key {
			t.writes[i].Value = value
			return
		}
	}
	t.writes = append(t.writes, Write{Key: key, Value: value, ExpectedVersion: expectedVersion})
}

// Writes returns the staged writes in insertion order.
func (t *Txn) Writes() []Write {
	return t.writes
}

// Store is the ledger contract. Implementations must make Apply atomic: no
// partial writes may ever be visible, and a version mismatch on any key fails
// the whole batch with sentinel.ErrConflict.
type Store interface {
	// Get returns the value and version stored under key, or
	// sentinel.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, uint64, error)

	// Exists reports whether key holds a value.
	Exists(ctx context.Context, key string) (bool, error)

	// Apply commits all staged writes or none of them.
	Apply(ctx context.Context, txn *Txn) error
}
