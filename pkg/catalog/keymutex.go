package catalog

import (
	"sync"

	"github.com/google/uuid"
)

// keyMutex serializes cover mutations per album. The primary-flag
// protocol is read-then-write; without a per-album exclusion scope two
// concurrent callers could both observe stale primary state and leave
// an album with zero or two primaries.
//
// Entries are refcounted and removed once the last holder releases, so
// the map does not grow with the number of albums ever touched.
type keyMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[uuid.UUID]*keyLock)}
}

// Lock acquires the mutex for key and returns the release func. The
// release func must be called exactly once on every exit path.
func (m *keyMutex) Lock(key uuid.UUID) func() {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}
