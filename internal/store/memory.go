package store

import (
	"sort"
	"sync"
)

// MemoryStore keeps entries in a map guarded by a RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	opts    options
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry), opts: buildOptions(opts)}
}

func (m *MemoryStore) Get(key string) (Entry, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || e.Expired(m.opts.now()) {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *MemoryStore) Set(e Entry) error {
	m.mu.Lock()
	m.entries[e.Key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ScanIndex(index, value string) ([]Entry, error) {
	now := m.opts.now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Indexes[index] == value && !e.Expired(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) PurgeExpired() (int, error) {
	now := m.opts.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.entries = make(map[string]Entry)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
