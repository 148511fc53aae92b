package ledger

import (
	"slices"
	"sync"
)

// locker hands out one mutex per account id. Entries are dropped once no
// goroutine holds or waits on them.
type locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newLocker() *locker {
	return &locker{locks: make(map[string]*keyLock)}
}

// Lock acquires every id in sorted order, each once, and returns the release
// func. Two transfers over the same pair in opposite directions therefore
// cannot deadlock.
func (l *locker) Lock(ids ...string) (unlock func()) {
	keys := slices.Clone(ids)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]*keyLock, len(keys))
	for i, key := range keys {
		held[i] = l.acquire(key)
	}
	return func() {
		for i := len(keys) - 1; i >= 0; i-- {
			l.release(keys[i], held[i])
		}
	}
}

func (l *locker) acquire(key string) *keyLock {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	return kl
}

func (l *locker) release(key string, kl *keyLock) {
	kl.mu.Unlock()

	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// size is the number of live entries.
func (l *locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
