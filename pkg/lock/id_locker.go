package lock

import (
	"sync"

	"github.com/apex/log"
)

// IdLocker hands out one mutex per entity UUID so callers can serialize work
// against a single entity without a global lock. Mutexes are created on first
// use and kept for the life of the locker.
type IdLocker struct {
	mapMutex sync.Mutex
	idMap    map[string]*sync.Mutex
}

func NewIdLocker() *IdLocker {
	return &IdLocker{
		idMap: make(map[string]*sync.Mutex),
	}
}

func (l *IdLocker) AcquireLock(id string) {
	l.mapMutex.Lock()
	idMutex, ok := l.idMap[id]
	if !ok {
		idMutex = &sync.Mutex{}
		l.idMap[id] = idMutex
	}
	l.mapMutex.Unlock()
	idMutex.Lock()
}

func (l *IdLocker) ReleaseLock(id string) {
	l.mapMutex.Lock()
	m, ok := l.idMap[id]
	l.mapMutex.Unlock()
	if !ok {
		log.Errorf("ReleaseLock called on id (%s) with no mutex", id)

		return
	}

	m.Unlock()
}

func (l *IdLocker) WithLock(id string, f func() error) error {
	l.AcquireLock(id)
	defer l.ReleaseLock(id)
	return f()
}

// Forget drops the mutex for id. Only call this once nothing can be holding or
// waiting on the lock, for example after the entity was evicted.
func (l *IdLocker) Forget(id string) {
	l.mapMutex.Lock()
	delete(l.idMap, id)
	l.mapMutex.Unlock()
}
