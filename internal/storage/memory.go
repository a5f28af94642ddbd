package storage

import (
	"context"
	"sync"
)

// Memory keeps values in a map for the lifetime of the process
type Memory struct {
	values map[string][]byte
	mtx    sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string][]byte),
	}
}

func (m *Memory) Read(_ context.Context, key string) ([]byte, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *Memory) Write(_ context.Context, key string, value []byte) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.values = make(map[string][]byte)
	return nil
}

// Len returns the number of stored keys
func (m *Memory) Len() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return len(m.values)
}

var _ Storage = (*Memory)(nil)
