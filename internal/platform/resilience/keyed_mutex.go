package resilience

import (
	"sort"
	"sync"
)

// KeyedMutex serializes work per string key. Mutexes are created on first
// use and kept for the lifetime of the process; the key space is expected
// to be bounded (match ids, rating keys).
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (m *KeyedMutex) Lock(key string) {
	m.mutexFor(key).Lock()
}

func (m *KeyedMutex) Unlock(key string) {
	m.mutexFor(key).Unlock()
}

// LockKeys locks every key in ascending order so that two callers locking
// overlapping key sets cannot deadlock. Duplicate keys are locked once.
// The returned function releases all held locks.
func (m *KeyedMutex) LockKeys(keys []string) (unlock func()) {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	sort.Strings(unique)

	for _, key := range unique {
		m.Lock(key)
	}
	return func() {
		for i := len(unique) - 1; i >= 0; i-- {
			m.Unlock(unique[i])
		}
	}
}

func (m *KeyedMutex) mutexFor(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}
