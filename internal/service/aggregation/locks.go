package aggregation

import "sync"

// LockManager hands out one mutex per log ID. Entries are dropped once no
// goroutine holds or waits for them, so the map only grows with contention.
type LockManager struct {
	locks map[string]*logLock
	mu    sync.Mutex
}

type logLock struct {
	mu   sync.Mutex
	refs int
}

// NewLockManager creates an empty lock registry.
func NewLockManager() *LockManager {
	return &LockManager{
		locks: make(map[string]*logLock),
	}
}

// Lock blocks until the caller owns logID and returns the release func.
func (lm *LockManager) Lock(logID string) (unlock func()) {
	lm.mu.Lock()
	l, exists := lm.locks[logID]
	if !exists {
		l = &logLock{}
		lm.locks[logID] = l
	}
	l.refs++
	lm.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		lm.mu.Lock()
		defer lm.mu.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(lm.locks, logID)
		}
	}
}

// Len reports how many log IDs currently have a holder or waiter.
func (lm *LockManager) Len() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.locks)
}
