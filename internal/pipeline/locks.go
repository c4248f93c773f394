package pipeline

import "sync"

// editionLocks serializes pipeline runs per edition. A start request against
// a locked edition is rejected immediately, never queued.
type editionLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newEditionLocks() *editionLocks {
	return &editionLocks{held: make(map[string]struct{})}
}

// TryAcquire takes the lock for an edition if it is free.
func (l *editionLocks) TryAcquire(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[id]; taken {
		return false
	}
	l.held[id] = struct{}{}
	return true
}

// Release frees the lock for an edition. Releasing an unheld lock is a no-op.
func (l *editionLocks) Release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
}

// Held reports whether a run currently holds the lock for an edition.
func (l *editionLocks) Held(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, taken := l.held[id]
	return taken
}
