package service

import "sync"

// libraryLocks serializes indexing per library key. Acquire never blocks:
// contention is reported to the caller instead of queued.
type libraryLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newLibraryLocks() *libraryLocks {
	return &libraryLocks{held: make(map[string]struct{})}
}

// Acquire takes the lock for key, or returns false when it is already held.
func (l *libraryLocks) Acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// Release frees the lock for key.
func (l *libraryLocks) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
