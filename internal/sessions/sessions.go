// Package sessions serializes conversation turns per session. The engine
// assumes a single writer per session; this locker is how the transport
// layer provides that guarantee without serializing unrelated sessions
// against each other.
package sessions

import (
	"sync"
	"time"
)

type entry struct {
	mu       *sync.Mutex
	lastUsed time.Time
}

// Locker hands out one mutex per session ID. Idle entries are pruned so a
// long-running server doesn't accumulate a mutex per historical session.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxIdle time.Duration
}

// NewLocker creates a session locker. maxIdle bounds how long an unused
// entry is kept; zero means one hour.
func NewLocker(maxIdle time.Duration) *Locker {
	if maxIdle <= 0 {
		maxIdle = time.Hour
	}
	return &Locker{
		entries: make(map[string]*entry),
		maxIdle: maxIdle,
	}
}

// Lock acquires the per-session mutex and returns its unlock func.
func (l *Locker) Lock(sessionID string) func() {
	l.mu.Lock()
	e, ok := l.entries[sessionID]
	if !ok {
		e = &entry{mu: &sync.Mutex{}}
		l.entries[sessionID] = e
	}
	e.lastUsed = time.Now()
	l.prune()
	l.mu.Unlock()

	e.mu.Lock()
	return e.mu.Unlock
}

// prune drops idle entries. Called with l.mu held. An entry currently
// locked by a turn is never older than the turn itself, so the idle window
// (hours) can't race an in-flight request (seconds).
func (l *Locker) prune() {
	cutoff := time.Now().Add(-l.maxIdle)
	for id, e := range l.entries {
		if e.lastUsed.Before(cutoff) {
			delete(l.entries, id)
		}
	}
}

// Len reports the number of live entries.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
