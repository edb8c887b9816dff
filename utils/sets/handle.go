package sets

import "guarded/utils/locks"

// Handle performs GuardedSet operations on behalf of a single locks.Owner.
//
// Every call acquires the set's lock for that owner, so calls made from inside Update
// or View (or from a Hasher running under them) re-enter the lock instead of
// deadlocking. Asking for a mutation from inside View fails with locks.ErrLockUpgrade.
type Handle[T any] struct {
	set   *GuardedSet[T]
	owner locks.Owner
}

func (h *Handle[T]) Owner() locks.Owner {
	return h.owner
}

func (h *Handle[T]) Add(item T) (added bool, err error) {
	err = h.set.lock.WithLock(h.owner, func() error {
		added = h.set.add(item)
		return nil
	})

	return
}

func (h *Handle[T]) Contains(item T) (found bool, err error) {
	err = h.set.lock.WithRLock(h.owner, func() error {
		found = h.set.contains(item)
		return nil
	})

	return
}

func (h *Handle[T]) Remove(item T) (removed bool, err error) {
	err = h.set.lock.WithLock(h.owner, func() error {
		removed = h.set.remove(item)
		return nil
	})

	return
}

func (h *Handle[T]) Clear() error {
	return h.set.lock.WithLock(h.owner, func() error {
		h.set.clear()
		return nil
	})
}

func (h *Handle[T]) Count() (n int, err error) {
	err = h.set.lock.WithRLock(h.owner, func() error {
		n = h.set.count
		return nil
	})

	return
}

// Update runs fn while holding the set exclusively. Calls through h inside fn nest.
func (h *Handle[T]) Update(fn func(h *Handle[T]) error) error {
	return h.set.lock.WithLock(h.owner, func() error {
		return fn(h)
	})
}

// View runs fn while holding the set shared. Reads through h inside fn nest.
func (h *Handle[T]) View(fn func(h *Handle[T]) error) error {
	return h.set.lock.WithRLock(h.owner, func() error {
		return fn(h)
	})
}
