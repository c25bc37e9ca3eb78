package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore keeps values in a process-local map. Values are held in
// clear, like every other backend: storage-level access reveals them.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

var ErrNotFound = errors.New("not found")

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.data[key]; ok {
		return v, nil
	}

	return "", ErrNotFound
}

func (s *MemoryStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value

	return nil
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *MemoryStore) Check(_ context.Context) error { return nil }
