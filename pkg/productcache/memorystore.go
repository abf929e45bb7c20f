package productcache

import (
	"context"
	"sync"
	"time"

	"github.com/illmade-knight/go-productcache/pkg/product"
)

// MemoryStore is a thread-safe, in-process Store. It is useful in tests and
// wherever persistence across restarts is not needed.
type MemoryStore struct {
	mu     sync.RWMutex
	cached *CachedProducts
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// DeleteCachedProducts removes the snapshot. Deleting an empty store succeeds.
func (s *MemoryStore) DeleteCachedProducts(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	return nil
}

// Insert replaces the snapshot.
func (s *MemoryStore) Insert(_ context.Context, products []product.Product, timestamp time.Time) error {
	items := make([]product.Product, len(products))
	copy(items, products)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = &CachedProducts{Products: items, Timestamp: timestamp}
	return nil
}

// Retrieve returns the snapshot, or (nil, nil) when the store is empty.
func (s *MemoryStore) Retrieve(_ context.Context) (*CachedProducts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil {
		return nil, nil
	}
	items := make([]product.Product, len(s.cached.Products))
	copy(items, s.cached.Products)
	return &CachedProducts{Products: items, Timestamp: s.cached.Timestamp}, nil
}
