package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. It does not survive restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]Entry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key Key) (Entry, bool, error) {
	if err := checkKey(key); err != nil {
		return Entry{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	e.Value = slices.Clone(e.Value)
	return e, true, nil
}

func (m *MemoryStore) Put(_ context.Context, key Key, value []byte) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; exists {
		return false, nil
	}
	m.entries[key] = Entry{Key: key, Value: slices.Clone(value), CreatedAt: m.now().UTC()}
	return true, nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error { return nil }
