package memory

import (
	"context"
	"sort"
	"sync"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/storage"
)

// CatalogStore is an in-memory implementation of storage.CatalogStore.
type CatalogStore struct {
	mu      sync.RWMutex
	data    map[string]domain.CatalogEntry // keyed by lowercase address
	order   map[string]int
	nextPos int
}

// NewCatalogStore creates a new in-memory catalog store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		data:  make(map[string]domain.CatalogEntry),
		order: make(map[string]int),
	}
}

// Compile-time interface check.
var _ storage.CatalogStore = (*CatalogStore)(nil)

// Upsert writes entries in slice order. Fails the whole batch on an entry without address.
func (s *CatalogStore) Upsert(_ context.Context, entries []domain.CatalogEntry) error {
	for _, e := range entries {
		if domain.NormalizeAddress(e.Address) == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		e.Address = domain.NormalizeAddress(e.Address)
		s.data[e.Address] = e
		s.order[e.Address] = s.nextPos
		s.nextPos++
	}
	return nil
}

// List returns all entries ordered by position ASC.
func (s *CatalogStore) List(_ context.Context) ([]domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CatalogEntry, 0, len(s.data))
	for _, e := range s.data {
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		return s.order[result[i].Address] < s.order[result[j].Address]
	})

	return result, nil
}

// GetByAddress retrieves an entry by address. Returns ErrNotFound if not exists.
func (s *CatalogStore) GetByAddress(_ context.Context, address string) (*domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[domain.NormalizeAddress(address)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	entryCopy := e
	return &entryCopy, nil
}

// Count returns the number of stored entries.
func (s *CatalogStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}
