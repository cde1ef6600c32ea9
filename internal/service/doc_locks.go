package service

import (
	"sync"

	"github.com/google/uuid"
)

// docLocks serializes state-changing commands per document inside this process.
// Entries are reference counted and dropped when the last holder releases.
type docLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*docLock
}

type docLock struct {
	sync.RWMutex
	refs int
}

func newDocLocks() *docLocks {
	return &docLocks{locks: make(map[uuid.UUID]*docLock)}
}

func (l *docLocks) acquire(id uuid.UUID) *docLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &docLock{}
		l.locks[id] = lk
	}
	lk.refs++
	return lk
}

func (l *docLocks) release(id uuid.UUID, lk *docLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, id)
	}
}

// Lock takes the exclusive side for id and returns its release func.
func (l *docLocks) Lock(id uuid.UUID) func() {
	lk := l.acquire(id)
	lk.Lock()
	return func() {
		lk.Unlock()
		l.release(id, lk)
	}
}

// RLock takes the shared side for id; signers of one document share it.
func (l *docLocks) RLock(id uuid.UUID) func() {
	lk := l.acquire(id)
	lk.RLock()
	return func() {
		lk.RUnlock()
		l.release(id, lk)
	}
}
