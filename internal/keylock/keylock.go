// Package keylock provides mutual exclusion scoped to string keys, so
// unrelated items and days never contend on one global lock.
package keylock

import (
	"sort"
	"sync"
)

// KeyedMutex hands out one mutex per key. Locks are never evicted; the
// key space here is small (items x days) and resets with the process.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (km *KeyedMutex) get(key string) *sync.Mutex {
	km.mu.Lock()
	defer km.mu.Unlock()
	m, ok := km.locks[key]
	if !ok {
		m = &sync.Mutex{}
		km.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for key and returns its unlock function.
func (km *KeyedMutex) Lock(key string) func() {
	m := km.get(key)
	m.Lock()
	return m.Unlock
}

// LockAll acquires the mutexes for all keys in sorted order, so two
// callers locking overlapping key sets cannot deadlock. Duplicate keys
// are acquired once. The returned function releases every lock.
func (km *KeyedMutex) LockAll(keys []string) func() {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Strings(uniq)

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, k := range uniq {
		m := km.get(k)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
