package snapshot

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("snapshot: backend closed")

// Backend is a small durable key-value store. PutAll replaces every given key
// in one step: readers see either all of the old values or all of the new ones.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	PutAll(ctx context.Context, entries map[string][]byte) error
	Close() error
}

// MemoryBackend keeps values in process memory.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryBackend) PutAll(_ context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for k, v := range entries {
		m.values[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
