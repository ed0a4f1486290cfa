package storage

import (
	"context"
	"sync"
)

// InMemoryStorage is used for tests and local scenarios.
type InMemoryStorage struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{data: make(map[string]map[string]string)}
}

func (s *InMemoryStorage) Get(_ context.Context, deviceID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[deviceID][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *InMemoryStorage) Set(_ context.Context, deviceID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[deviceID] == nil {
		s.data[deviceID] = make(map[string]string)
	}
	s.data[deviceID][key] = value
	return nil
}

func (s *InMemoryStorage) Delete(_ context.Context, deviceID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data[deviceID], k)
	}
	return nil
}
