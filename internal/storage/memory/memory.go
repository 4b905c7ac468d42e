// Package memory is a process-local store with the same atomicity as the
// PostgreSQL store: every mutation is one critical section. It backs tests
// and local demos; data is lost on restart.
package memory

import (
	"context"
	"sync"
)

// Store bundles every repository over shared state.
type Store struct {
	Sequences *SequenceStore
	Foods     *FoodRepository
	Catalog   *CatalogRepository
	Orders    *OrderRepository
	APIKeys   *APIKeyRepository
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		Sequences: NewSequenceStore(),
		Foods:     NewFoodRepository(),
		Catalog:   NewCatalogRepository(),
		Orders:    NewOrderRepository(),
		APIKeys:   NewAPIKeyRepository(),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// SequenceStore keeps named counters.
type SequenceStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewSequenceStore creates an empty SequenceStore.
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{counters: make(map[string]int64)}
}

// Increment creates the counter at base if missing and returns its next value.
func (s *SequenceStore) Increment(ctx context.Context, name string, base int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.counters[name]
	if !ok {
		seq = base
	}
	seq++
	s.counters[name] = seq
	return seq, nil
}
