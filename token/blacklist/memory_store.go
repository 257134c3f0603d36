package blacklist

import (
	"sync"
	"time"
)

// InMemoryStore is the default single-process ledger. Entries survive until
// Cleanup removes the expired ones; lookups never consult the expiry, so an
// expired entry is at worst a harmless redundant match.
type InMemoryStore struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]Entry),
	}
}

func (s *InMemoryStore) Insert(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Token] = entry
	return nil
}

func (s *InMemoryStore) Contains(raw string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.entries[raw]
	return exists, nil
}

// Cleanup removes entries whose expiry has passed.
func (s *InMemoryStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for raw, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, raw)
		}
	}
}
