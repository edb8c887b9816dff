// Package locks provides a reader/writer lock that tolerates nested acquisition
// by the same Owner, reports misuse as errors and can be torn down exactly once.
package locks

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

var (
	ErrNotHeld     = errors.New("lock is not held by owner")
	ErrLockUpgrade = errors.New("read lock cannot be upgraded to a write lock")
	ErrDisposed    = errors.New("lock has been disposed")
	ErrLockHeld    = errors.New("lock is still held")
)

// ReentrantRWMutex admits many readers or a single writer.
//
// An owner holding the write side may acquire either side again, and an owner holding
// the read side may acquire the read side again. Only the outermost release of each
// side lets other goroutines in. Requesting the write side while only holding the read
// side fails with ErrLockUpgrade rather than deadlocking.
//
// Waiting writers block new readers, except readers that already hold the lock.
// Beyond that no fairness is promised.
//
// The zero value is ready to use. Close must be called once the lock is no longer needed.
type ReentrantRWMutex struct {
	mu   sync.Mutex
	cond sync.Cond

	writer     Owner
	writeHeld  bool
	writeDepth int

	readers   map[Owner]int // read depth per owner, anonymous holders share one key
	readCount int

	waitingWriters int
	disposed       bool
}

// Must be called with mu held.
func (m *ReentrantRWMutex) init() {
	if m.cond.L == nil {
		m.cond.L = &m.mu
	}
	if m.readers == nil {
		m.readers = make(map[Owner]int)
	}
}

func (m *ReentrantRWMutex) ownsWrite(o Owner) bool {
	return !o.IsAnonymous() && m.writeHeld && m.writer == o
}

// Lock acquires the write side for o, blocking until no other owner holds either side.
func (m *ReentrantRWMutex) Lock(o Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()

	if m.disposed {
		return ErrDisposed
	}

	if m.ownsWrite(o) {
		m.writeDepth++
		return nil
	}

	if !o.IsAnonymous() && m.readers[o] > 0 {
		return fmt.Errorf("%w (owner %s)", ErrLockUpgrade, o)
	}

	m.waitingWriters++
	for m.writeHeld || m.readCount > 0 {
		m.cond.Wait()
		if m.disposed {
			m.waitingWriters--
			return ErrDisposed
		}
	}
	m.waitingWriters--

	m.writeHeld = true
	m.writer = o
	m.writeDepth = 1

	return nil
}

// Unlock releases one level of write acquisition held by o.
// A release by Anonymous matches any anonymous writer, see Anonymous.
func (m *ReentrantRWMutex) Unlock(o Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()

	if !m.writeHeld || m.writer != o {
		log.WithFields(log.Fields{"owner": o.String(), "side": "write"}).Warn("release of a lock that is not held")
		return fmt.Errorf("%w: write side (owner %s)", ErrNotHeld, o)
	}

	m.writeDepth--
	if m.writeDepth == 0 {
		m.writeHeld = false
		m.writer = Anonymous
		m.cond.Broadcast()
	}

	return nil
}

// RLock acquires the read side for o.
func (m *ReentrantRWMutex) RLock(o Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()

	if m.disposed {
		return ErrDisposed
	}

	reentrant := m.ownsWrite(o) || (!o.IsAnonymous() && m.readers[o] > 0)
	if !reentrant {
		for m.writeHeld || m.waitingWriters > 0 {
			m.cond.Wait()
			if m.disposed {
				return ErrDisposed
			}
		}
	}

	m.readers[o]++
	m.readCount++

	return nil
}

// RUnlock releases one level of read acquisition held by o.
//
// Anonymous readers share a single depth counter, so RUnlock(Anonymous) from a
// goroutine that never called RLock silently releases another anonymous reader's
// hold. Only minted owners get ErrNotHeld for such a release.
func (m *ReentrantRWMutex) RUnlock(o Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()

	depth := m.readers[o]
	if depth == 0 {
		log.WithFields(log.Fields{"owner": o.String(), "side": "read"}).Warn("release of a lock that is not held")
		return fmt.Errorf("%w: read side (owner %s)", ErrNotHeld, o)
	}

	if depth == 1 {
		delete(m.readers, o)
	} else {
		m.readers[o] = depth - 1
	}

	m.readCount--
	if m.readCount == 0 {
		m.cond.Broadcast()
	}

	return nil
}

// WithLock runs fn while o holds the write side. The lock is released on every
// exit path, a panic in fn included.
func (m *ReentrantRWMutex) WithLock(o Owner, fn func() error) (err error) {
	if err = m.Lock(o); err != nil {
		return err
	}
	defer func() {
		if uerr := m.Unlock(o); uerr != nil && err == nil {
			err = uerr
		}
	}()

	return fn()
}

// WithRLock runs fn while o holds the read side. The lock is released on every
// exit path, a panic in fn included.
func (m *ReentrantRWMutex) WithRLock(o Owner, fn func() error) (err error) {
	if err = m.RLock(o); err != nil {
		return err
	}
	defer func() {
		if uerr := m.RUnlock(o); uerr != nil && err == nil {
			err = uerr
		}
	}()

	return fn()
}

// WriteDepth reports how many times o currently holds the write side.
func (m *ReentrantRWMutex) WriteDepth(o Owner) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.writeHeld || m.writer != o {
		return 0
	}

	return m.writeDepth
}

// ReadDepth reports how many times o currently holds the read side.
func (m *ReentrantRWMutex) ReadDepth(o Owner) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.readers[o]
}

// Close disposes of the lock. It is safe to call more than once; only the first
// successful call has any effect. Closing a lock that is still held returns ErrLockHeld
// and leaves the lock usable.
func (m *ReentrantRWMutex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()

	if m.disposed {
		return nil
	}

	if m.writeHeld || m.readCount > 0 {
		return fmt.Errorf("%w (writer: %t, readers: %d)", ErrLockHeld, m.writeHeld, m.readCount)
	}

	m.disposed = true
	m.cond.Broadcast()

	return nil
}
