package locks

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	lop "github.com/samber/lo/parallel"
)

func TestNestedWriteLock(t *testing.T) {
	var m ReentrantRWMutex
	o := NewOwner()

	for range 3 {
		if err := m.Lock(o); err != nil {
			t.Fatal(err)
		}
	}

	if depth := m.WriteDepth(o); depth != 3 {
		t.Errorf("expected write depth 3, got %d", depth)
	}

	// Read side can be taken while holding the write side.
	if err := m.RLock(o); err != nil {
		t.Fatal(err)
	}
	if err := m.RUnlock(o); err != nil {
		t.Fatal(err)
	}

	for range 3 {
		if err := m.Unlock(o); err != nil {
			t.Fatal(err)
		}
	}

	if depth := m.WriteDepth(o); depth != 0 {
		t.Errorf("expected write depth 0 after outermost release, got %d", depth)
	}

	// Another owner gets in once the outermost release happened.
	other := NewOwner()
	if err := m.Lock(other); err != nil {
		t.Fatal(err)
	}
	if err := m.Unlock(other); err != nil {
		t.Fatal(err)
	}
}

func TestNestedReadLock(t *testing.T) {
	var m ReentrantRWMutex
	o := NewOwner()

	if err := m.RLock(o); err != nil {
		t.Fatal(err)
	}

	// A writer queued behind the first read must not block the nested read.
	acquired := make(chan struct{})
	go func() {
		writer := NewOwner()
		if err := m.Lock(writer); err != nil {
			t.Error(err)
		}
		close(acquired)
		_ = m.Unlock(writer)
	}()

	waitForQueuedWriter(t, &m)

	if err := m.RLock(o); err != nil {
		t.Fatal(err)
	}
	if depth := m.ReadDepth(o); depth != 2 {
		t.Errorf("expected read depth 2, got %d", depth)
	}

	select {
	case <-acquired:
		t.Fatal("writer acquired the lock while a reader held it")
	default:
	}

	_ = m.RUnlock(o)
	_ = m.RUnlock(o)

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("writer never acquired the lock after readers left")
	}
}

func TestUpgradeRefused(t *testing.T) {
	var m ReentrantRWMutex
	o := NewOwner()

	if err := m.RLock(o); err != nil {
		t.Fatal(err)
	}
	defer m.RUnlock(o)

	if err := m.Lock(o); !errors.Is(err, ErrLockUpgrade) {
		t.Errorf("expected ErrLockUpgrade, got %v", err)
	}
}

func TestReleaseNotHeld(t *testing.T) {
	var m ReentrantRWMutex
	o := NewOwner()

	if err := m.Unlock(o); !errors.Is(err, ErrNotHeld) {
		t.Errorf("expected ErrNotHeld on write release, got %v", err)
	}
	if err := m.RUnlock(o); !errors.Is(err, ErrNotHeld) {
		t.Errorf("expected ErrNotHeld on read release, got %v", err)
	}

	// Double release.
	if err := m.Lock(o); err != nil {
		t.Fatal(err)
	}
	if err := m.Unlock(o); err != nil {
		t.Fatal(err)
	}
	if err := m.Unlock(o); !errors.Is(err, ErrNotHeld) {
		t.Errorf("expected ErrNotHeld on double release, got %v", err)
	}

	// Release by an owner that does not hold the lock.
	if err := m.Lock(o); err != nil {
		t.Fatal(err)
	}
	if err := m.Unlock(NewOwner()); !errors.Is(err, ErrNotHeld) {
		t.Errorf("expected ErrNotHeld for foreign owner, got %v", err)
	}
	if err := m.Unlock(o); err != nil {
		t.Errorf("expected real holder to release, got %v", err)
	}
}

func TestAnonymousReaders(t *testing.T) {
	var m ReentrantRWMutex

	if err := m.RLock(Anonymous); err != nil {
		t.Fatal(err)
	}
	if err := m.RLock(Anonymous); err != nil {
		t.Fatal(err)
	}
	if depth := m.ReadDepth(Anonymous); depth != 2 {
		t.Errorf("expected 2 anonymous readers, got %d", depth)
	}

	_ = m.RUnlock(Anonymous)
	_ = m.RUnlock(Anonymous)

	if err := m.RUnlock(Anonymous); !errors.Is(err, ErrNotHeld) {
		t.Errorf("expected ErrNotHeld, got %v", err)
	}
}

// A minted owner catches a release it never acquired. Anonymous cannot.
func TestForeignReadRelease(t *testing.T) {
	var m ReentrantRWMutex

	holder, stranger := NewOwner(), NewOwner()
	if err := m.RLock(holder); err != nil {
		t.Fatal(err)
	}
	if err := m.RUnlock(stranger); !errors.Is(err, ErrNotHeld) {
		t.Errorf("expected ErrNotHeld for a minted stranger, got %v", err)
	}
	if depth := m.ReadDepth(holder); depth != 1 {
		t.Errorf("expected holder to keep its read, depth %d", depth)
	}
	_ = m.RUnlock(holder)

	if err := m.RLock(Anonymous); err != nil {
		t.Fatal(err)
	}
	// Indistinguishable from the real holder releasing.
	if err := m.RUnlock(Anonymous); err != nil {
		t.Errorf("expected anonymous release to go through, got %v", err)
	}
	if depth := m.ReadDepth(Anonymous); depth != 0 {
		t.Errorf("expected shared anonymous depth 0, got %d", depth)
	}
}

func TestWithLockReleasesOnPanic(t *testing.T) {
	var m ReentrantRWMutex
	o := NewOwner()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()

		_ = m.WithLock(o, func() error {
			panic("boom")
		})
	}()

	if depth := m.WriteDepth(o); depth != 0 {
		t.Errorf("expected lock to be released after panic, depth %d", depth)
	}

	func() {
		defer func() { recover() }()
		_ = m.WithRLock(o, func() error {
			panic("boom")
		})
	}()

	if depth := m.ReadDepth(o); depth != 0 {
		t.Errorf("expected read lock to be released after panic, depth %d", depth)
	}
}

func TestWithLockReturnsError(t *testing.T) {
	var m ReentrantRWMutex
	want := errors.New("callback failed")

	err := m.WithLock(NewOwner(), func() error { return want })
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}

	if err := m.Close(); err != nil {
		t.Errorf("expected lock to be free after failed callback, got %v", err)
	}
}

func TestWritersExclusive(t *testing.T) {
	var m ReentrantRWMutex

	counter := 0
	lop.ForEach(lo.Range(64), func(_ int, _ int) {
		o := NewOwner()
		for range 100 {
			_ = m.WithLock(o, func() error {
				counter++
				return nil
			})
		}
	})

	if counter != 6400 {
		t.Errorf("expected 6400 increments, got %d", counter)
	}
}

func TestReadersShare(t *testing.T) {
	var m ReentrantRWMutex

	const readers = 8
	var inside sync.WaitGroup
	inside.Add(readers)

	release := make(chan struct{})
	var done sync.WaitGroup
	for range readers {
		done.Add(1)
		go func() {
			defer done.Done()
			_ = m.WithRLock(Anonymous, func() error {
				inside.Done()
				<-release
				return nil
			})
		}()
	}

	// Every reader gets in before any of them leaves.
	waitOrFail(t, &inside)
	close(release)
	waitOrFail(t, &done)
}

func TestClose(t *testing.T) {
	var m ReentrantRWMutex
	o := NewOwner()

	if err := m.Lock(o); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); !errors.Is(err, ErrLockHeld) {
		t.Errorf("expected ErrLockHeld, got %v", err)
	}
	if err := m.Unlock(o); err != nil {
		t.Fatal(err)
	}

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("expected second close to be a no-op, got %v", err)
	}

	if err := m.Lock(o); !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed, got %v", err)
	}
	if err := m.RLock(o); !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed, got %v", err)
	}
}

func TestOwner(t *testing.T) {
	if !Anonymous.IsAnonymous() {
		t.Error("expected zero owner to be anonymous")
	}

	a, b := NewOwner(), NewOwner()
	if a == b {
		t.Error("expected distinct owners")
	}
	if a.IsAnonymous() {
		t.Error("expected minted owner not to be anonymous")
	}
	if Anonymous.String() != "anonymous" {
		t.Errorf("expected 'anonymous', got %s", Anonymous.String())
	}
}

// Blocks until some writer is parked in Lock behind the current holders.
func waitForQueuedWriter(t *testing.T, m *ReentrantRWMutex) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		m.mu.Lock()
		queued := m.waitingWriters
		m.mu.Unlock()

		if queued > 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("writer never queued")
		}
		runtime.Gosched()
	}
}

func waitOrFail(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()

	ch := make(chan struct{})
	go func() {
		wg.Wait()
		close(ch)
	}()

	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting")
	}
}

func BenchmarkUncontendedLock(b *testing.B) {
	var m ReentrantRWMutex
	o := NewOwner()

	for b.Loop() {
		_ = m.Lock(o)
		_ = m.Unlock(o)
	}
}
