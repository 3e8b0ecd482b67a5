package store

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store, used when no database can be opened.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func memKey(owner, key string) string { return owner + "\x00" + key }

func (m *MemoryStore) Get(_ context.Context, owner, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[memKey(owner, key)]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Put(_ context.Context, owner, key, value string) error {
	m.mu.Lock()
	m.data[memKey(owner, key)] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, owner, key string) error {
	m.mu.Lock()
	delete(m.data, memKey(owner, key))
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
