package storage

import (
	"context"
	"sync"
)

// Memory is an in-memory Adapter. Sessions stored through it do not survive a
// process restart; it is the default when the host wires nothing else.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

// Save implements Adapter.
func (m *Memory) Save(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Load implements Adapter.
func (m *Memory) Load(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

// Remove implements Adapter.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

var _ Adapter = (*Memory)(nil)
