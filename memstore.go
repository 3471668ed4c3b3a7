package minicask

import "sort"

// MemStore is a map-backed store with the same surface as Store but no
// durability: nothing survives the process, and there are no segments
// and no compaction. It remains useful for tests and short-lived
// tooling; Store supersedes it everywhere persistence matters.
type MemStore struct {
	data map[string]string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

// Get returns the value for key and whether it exists.
func (m *MemStore) Get(key string) (string, bool) {
	value, ok := m.data[key]
	return value, ok
}

// Set stores value under key.
func (m *MemStore) Set(key, value string) {
	m.data[key] = value
}

// Remove deletes key, returning ErrKeyNotFound if it has no value.
func (m *MemStore) Remove(key string) error {
	if _, ok := m.data[key]; !ok {
		return ErrKeyNotFound
	}
	delete(m.data, key)
	return nil
}

// Keys returns the keys in ascending order.
func (m *MemStore) Keys() []string {
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored keys.
func (m *MemStore) Len() int {
	return len(m.data)
}
