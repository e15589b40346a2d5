package theme

import (
	"context"
	"sync"
)

// MemoryStorage keeps values for the lifetime of the process.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: map[string]string{}}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Backend hands out the Storage of one visitor.
type Backend interface {
	For(visitor string) Storage
	Close() error
}

// MemoryBackend is a Backend over per-visitor MemoryStorage.
type MemoryBackend struct {
	mu       sync.Mutex
	visitors map[string]*MemoryStorage
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{visitors: map[string]*MemoryStorage{}}
}

func (b *MemoryBackend) For(visitor string) Storage {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.visitors[visitor]
	if !ok {
		s = NewMemoryStorage()
		b.visitors[visitor] = s
	}
	return s
}

func (b *MemoryBackend) Close() error { return nil }
