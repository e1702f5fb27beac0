package distlock

import (
	"context"
	"sync"
)

type localLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// localLock is a DistLock for single-process deployments (SQLite mode).
type localLock struct {
	set   *localLocks
	key   string
	owned bool
}

func (l *localLock) Acquire(context.Context) (bool, error) {
	l.set.mu.Lock()
	defer l.set.mu.Unlock()
	if _, busy := l.set.held[l.key]; busy {
		return false, nil
	}
	l.set.held[l.key] = struct{}{}
	l.owned = true
	return true, nil
}

func (l *localLock) Release(context.Context) error {
	if !l.owned {
		return nil
	}
	l.set.mu.Lock()
	delete(l.set.held, l.key)
	l.set.mu.Unlock()
	l.owned = false
	return nil
}
