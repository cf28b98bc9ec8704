// Package services provides the application services orchestrating the
// scoring and experimentation engines.
package services

import "sync"

// visitorLocks serializes state mutations per visitor. Concurrent activities
// for different visitors proceed in parallel; two activities for the same
// visitor are applied one after the other so neither update is lost.
type visitorLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newVisitorLocks() *visitorLocks {
	return &visitorLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a visitor and returns its unlock func.
func (v *visitorLocks) Lock(visitorID string) func() {
	v.mu.Lock()
	lock, ok := v.locks[visitorID]
	if !ok {
		lock = &sync.Mutex{}
		v.locks[visitorID] = lock
	}
	v.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
