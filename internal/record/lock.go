package record

import "sync"

// Locker serializes work on the same record.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewLocker returns an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*entry)}
}

// Lock blocks until the record id is free and returns the matching unlock.
func (l *Locker) Lock(id int64) func() {
	l.mu.Lock()

	e, ok := l.locks[id]
	if !ok {
		e = &entry{}
		l.locks[id] = e
	}

	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		defer l.mu.Unlock()

		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
	}
}
