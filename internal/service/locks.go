package service

import "sync"

// keyedMutex provides a mutex per string key.  The state machine takes a
// per-plate lock around every session read-modify-write and a per-spot
// lock around occupied-flag changes, so overlapping events for the same
// vehicle or spot serialize while unrelated events run in parallel.
// Entries are reference counted and removed once the last holder unlocks,
// so the map does not grow with the set of plates ever seen.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key and returns the matching unlock
// function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
