package credstore

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store for tests and ephemeral setups. Unlike
// SQLiteStore it keeps secrets unsealed; never use it for real
// enrollments.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

type memEntry struct {
	secret string
	meta   Meta
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]memEntry)}
}

// Get implements Store.
func (m *MemStore) Get(_ context.Context, account string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[account]
	if !ok {
		return "", ErrNotFound
	}
	return e.secret, nil
}

// Put implements Store.
func (m *MemStore) Put(_ context.Context, account, encodedSecret string, meta Meta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[account] = memEntry{secret: encodedSecret, meta: meta}
	return nil
}

// Delete implements Store.
func (m *MemStore) Delete(_ context.Context, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[account]; !ok {
		return ErrNotFound
	}
	delete(m.entries, account)
	return nil
}

// List implements Store.
func (m *MemStore) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]Entry, 0, len(m.entries))
	for account, e := range m.entries {
		entries = append(entries, Entry{Account: account, Meta: e.meta})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Account < entries[j].Account })
	return entries, nil
}
