package memory

import (
	"context"
	"sync"
)

// DeviceStore is an in-memory implementation of store.DeviceStore.
type DeviceStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewDeviceStore() *DeviceStore {
	return &DeviceStore{values: make(map[string][]byte)}
}

func (s *DeviceStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (s *DeviceStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *DeviceStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
