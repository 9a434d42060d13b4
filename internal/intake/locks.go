package intake

import (
	"sync"

	id "canon/pkg/domain"
)

// sessionLocks serializes writes per session. Batches for different sessions
// proceed concurrently; two batches for the same session queue up.
//
// Entries are reference-counted and removed once the last holder releases,
// so a long-lived process does not accumulate a mutex per session ever seen.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[id.SessionID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[id.SessionID]*lockEntry)}
}

func (l *sessionLocks) acquire(sessionID id.SessionID) func() {
	l.mu.Lock()
	entry, ok := l.locks[sessionID]
	if !ok {
		entry = &lockEntry{}
		l.locks[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}
