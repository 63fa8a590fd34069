package reconcile

import "sync"

// bucketLocks hands out one mutex per bucket key and forgets it once no
// caller holds or waits on it.
type bucketLocks struct {
	mu    sync.Mutex
	locks map[string]*bucketLock
}

type bucketLock struct {
	mu   sync.Mutex
	refs int
}

func newBucketLocks() *bucketLocks {
	return &bucketLocks{locks: make(map[string]*bucketLock)}
}

// lock blocks until key is free and returns its release func.
func (l *bucketLocks) lock(key string) func() {
	l.mu.Lock()
	bl, ok := l.locks[key]
	if !ok {
		bl = &bucketLock{}
		l.locks[key] = bl
	}
	bl.refs++
	l.mu.Unlock()

	bl.mu.Lock()
	return func() {
		bl.mu.Unlock()
		l.mu.Lock()
		bl.refs--
		if bl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *bucketLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
