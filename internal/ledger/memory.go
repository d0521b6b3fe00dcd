package ledger

import (
	"context"
	"sync"

	"landledger/pkg/platform/sentinel"
)

type entry struct {
	value   []byte
	version uint64
}

// InMemoryStore keeps the ledger in process memory. It is the reference
// implementation for the Store contract and backs tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]entry)}
}

func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, 0, sentinel.ErrNotFound
	}
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, e.version, nil
}

func (s *InMemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok, nil
}

func (s *InMemoryStore) Apply(_ context.Context, txn *Txn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every version before touching anything so a conflict leaves
	// the ledger byte-identical to its pre-call state.
	for _, w := range txn.Writes() {
		current := s.entries[w.Key].version
		if current != w.ExpectedVersion {
			return sentinel.ErrConflict
		}
	}
	for _, w := range txn.Writes() {
		value := make([]byte, len(w.Value))
		copy(value, w.Value)
		s.entries[w.Key] = entry{value: value, version: w.ExpectedVersion + 1}
	}
	return nil
}
