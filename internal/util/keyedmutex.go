package util

import "sync"

// KeyedMutex serializes work per key while leaving distinct keys fully
// independent. Used to order decisions for the same identity: two rapid
// join/leave transitions must never be evaluated against each other's stale
// registry snapshot.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: map[int64]*keyedLock{},
	}
}

func (m *KeyedMutex) Lock(key int64) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyedLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
}

func (m *KeyedMutex) Unlock(key int64) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		m.mu.Unlock()
		panic("keyedmutex: unlock of unheld key")
	}
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()

	l.mu.Unlock()
}
