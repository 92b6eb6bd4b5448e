package tracking

import (
	"context"
	"sync"
)

// Store persists the backlog snapshot as a single opaque value.
// Load returns "" or EmptySnapshot when nothing is stored.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, snapshot string) error
}

// MemoryStore keeps the snapshot in memory. Useful for tests and for hosts
// that do not need to survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	value string
	saves int
}

// NewMemoryStore returns a store holding snapshot.
func NewMemoryStore(snapshot string) *MemoryStore {
	return &MemoryStore{value: snapshot}
}

// Load returns the stored snapshot.
func (s *MemoryStore) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, nil
}

// Save replaces the stored snapshot.
func (s *MemoryStore) Save(ctx context.Context, snapshot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = snapshot
	s.saves++
	return nil
}

// Value returns the stored snapshot.
func (s *MemoryStore) Value() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
