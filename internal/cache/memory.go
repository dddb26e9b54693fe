package cache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore is an unbounded in-memory Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Entry),
	}
}

// Load returns the entry for key.
func (s *MemoryStore) Load(_ context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	return e, ok, nil
}

// Save overwrites the entry for e.Key.
func (s *MemoryStore) Save(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[e.Key] = e
	return nil
}

// Len returns the number of stored entries, fresh or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ Store = (*MemoryStore)(nil)

// LRUStore is an in-memory Store bounded to a fixed number of entries.
// The least recently used entry is evicted when full.
type LRUStore struct {
	lru *lru.Cache[string, Entry]
}

// NewLRUStore creates a bounded store. size must be positive.
func NewLRUStore(size int) (*LRUStore, error) {
	c, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	return &LRUStore{lru: c}, nil
}

// Load returns the entry for key and marks it recently used.
func (s *LRUStore) Load(_ context.Context, key string) (Entry, bool, error) {
	e, ok := s.lru.Get(key)
	return e, ok, nil
}

// Save adds or overwrites the entry.
func (s *LRUStore) Save(_ context.Context, e Entry) error {
	s.lru.Add(e.Key, e)
	return nil
}

// Len returns the number of stored entries.
func (s *LRUStore) Len() int {
	return s.lru.Len()
}

var _ Store = (*LRUStore)(nil)
