package store

import (
	"context"
	"sync"
)

// Memory is a map-backed ClientKeys for dev and tests.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory key store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the stored value for a client key, or "" when absent.
func (m *Memory) Get(_ context.Context, clientID, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[clientID+"/"+key], nil
}

// Set stores a client key; later writes win.
func (m *Memory) Set(_ context.Context, clientID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[clientID+"/"+key] = value
	return nil
}
