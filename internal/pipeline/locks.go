package pipeline

import "sync"

// lockRegistry provides per-document mutual exclusion. TryAcquire is
// non-blocking: a held lock means another run owns the document.
type lockRegistry struct {
	mu   sync.Mutex
	held map[int]struct{}
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{held: make(map[int]struct{})}
}

func (l *lockRegistry) TryAcquire(documentID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[documentID]; ok {
		return false
	}
	l.held[documentID] = struct{}{}
	return true
}

func (l *lockRegistry) Release(documentID int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, documentID)
}
