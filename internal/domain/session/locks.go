package session

import "sync"

// Locks hands out one RWMutex per session id. Writers to a session's
// associations or history hold the write side; context reads hold the read
// side. Entries are dropped once no goroutine holds or waits on them.
type Locks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.RWMutex
	refs int
}

// NewLocks creates an empty lock registry.
func NewLocks() *Locks {
	return &Locks{entries: make(map[string]*lockEntry)}
}

// Lock acquires the write lock for id and returns its release func.
func (l *Locks) Lock(id string) func() {
	e := l.acquire(id)
	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.release(id)
	}
}

// RLock acquires the read lock for id and returns its release func.
func (l *Locks) RLock(id string) func() {
	e := l.acquire(id)
	e.mu.RLock()
	return func() {
		e.mu.RUnlock()
		l.release(id)
	}
}

// Len returns the number of live entries.
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Locks) acquire(id string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		e = &lockEntry{}
		l.entries[id] = e
	}
	e.refs++
	return e
}

func (l *Locks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(l.entries, id)
	}
}
