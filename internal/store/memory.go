package store

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// MemoryFactory keeps one MemoryStore per owner for the lifetime of the process.
func MemoryFactory() Factory {
	var mu sync.Mutex
	stores := make(map[string]*MemoryStore)
	return func(owner string) Store {
		mu.Lock()
		defer mu.Unlock()
		s, ok := stores[owner]
		if !ok {
			s = NewMemoryStore()
			stores[owner] = s
		}
		return s
	}
}

func (m *MemoryStore) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := m.data[key]; ok {
			out[key] = append([]byte(nil), value...)
		}
	}
	return out, nil
}

func (m *MemoryStore) Put(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	for key, value := range entries {
		m.data[key] = append([]byte(nil), value...)
	}
	return nil
}

// Close makes every later call fail with ErrClosed.
func (m *MemoryStore) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}
