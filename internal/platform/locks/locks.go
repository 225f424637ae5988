// Package locks provides a mutex keyed by string, used for single-writer
// guarantees scoped to an entity (a swap id, an account) rather than the
// whole process.
package locks

import "sync"

// KeyedMutex hands out one mutex per key. Mutexes are created on first use
// and retained; key cardinality is bounded by active entities.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
