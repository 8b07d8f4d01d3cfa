package store

import (
	"sync"

	"github.com/kavinm/tn-district-weather/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory snapshot holder for tests
// and embedders that do not want the filesystem.
type MemoryStore struct {
	mu   sync.RWMutex
	snap weather.Snapshot
	set  bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the held snapshot.
func (s *MemoryStore) Save(snapshot weather.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snapshot
	s.set = true
	return nil
}

// Load returns the held snapshot, or ErrNoSnapshot before the first Save.
func (s *MemoryStore) Load() (weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return weather.Snapshot{}, ErrNoSnapshot
	}
	return s.snap, nil
}
