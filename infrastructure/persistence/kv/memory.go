// Package kv provides the durable key-value stores behind the
// persistence adapter: an in-memory map for tests and ephemeral runs, a
// filesystem store, and a SQLite store.
package kv

import (
	"context"
	"strings"
	"sync"

	"kgraph/pkg/errors"
)

// MemoryStore is a thread-safe in-memory key-value store
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get implements ports.KeyValueStore
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, errors.NewNotFoundError("key " + key)
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set implements ports.KeyValueStore
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored
	return nil
}

// Delete implements ports.KeyValueStore. Deleting a missing key is not
// an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Keys implements ports.KeyValueStore
func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0)
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Close implements ports.KeyValueStore
func (s *MemoryStore) Close() error {
	return nil
}
