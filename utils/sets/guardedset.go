package sets

import "guarded/utils/locks"

// GuardedSet is a set that can be shared between goroutines.
//
// Membership is decided by the Hasher given to NewGuarded. Reads (Contains, Count, Items)
// share the lock, mutations (Add, Remove, Clear) take it exclusively, so writers are
// serialized even when they touch unrelated elements.
//
// The plain methods acquire the lock anonymously and are not reentrant: calling back into
// the set from inside a Hasher deadlocks. Use As to get a Handle that nests safely.
//
// Close must be called once the set is no longer used.
type GuardedSet[T any] struct {
	hasher  Hasher[T]
	buckets map[uint64][]T
	count   int
	lock    locks.ReentrantRWMutex
}

func NewGuarded[T any](hasher Hasher[T]) *GuardedSet[T] {
	if hasher == nil {
		panic("sets: NewGuarded called with a nil hasher")
	}

	return &GuardedSet[T]{
		hasher:  hasher,
		buckets: make(map[uint64][]T),
	}
}

// The lock is only unavailable after Close, which callers must not race with.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Adds item if it is not already a member, reporting whether it was inserted.
// Of many goroutines adding the same element, exactly one sees true.
func (s *GuardedSet[T]) Add(item T) (added bool) {
	must(s.lock.WithLock(locks.Anonymous, func() error {
		added = s.add(item)
		return nil
	}))

	return
}

func (s *GuardedSet[T]) Contains(item T) (found bool) {
	must(s.lock.WithRLock(locks.Anonymous, func() error {
		found = s.contains(item)
		return nil
	}))

	return
}

// Removes item, reporting whether it was a member.
func (s *GuardedSet[T]) Remove(item T) (removed bool) {
	must(s.lock.WithLock(locks.Anonymous, func() error {
		removed = s.remove(item)
		return nil
	}))

	return
}

func (s *GuardedSet[T]) Clear() {
	must(s.lock.WithLock(locks.Anonymous, func() error {
		s.clear()
		return nil
	}))
}

// Returns the number of elements at the time of the call.
// The value can be outdated as soon as it is returned.
func (s *GuardedSet[T]) Count() (n int) {
	must(s.lock.WithRLock(locks.Anonymous, func() error {
		n = s.count
		return nil
	}))

	return
}

// Returns a copy of every element in no particular order.
func (s *GuardedSet[T]) Items() (items []T) {
	must(s.lock.WithRLock(locks.Anonymous, func() error {
		items = s.items()
		return nil
	}))

	return
}

// Close disposes of the set's lock. Calling it again is a no-op.
// Using the set after a successful Close panics.
func (s *GuardedSet[T]) Close() error {
	return s.lock.Close()
}

// As returns a Handle through which owner can nest operations on s.
func (s *GuardedSet[T]) As(owner locks.Owner) *Handle[T] {
	return &Handle[T]{set: s, owner: owner}
}

// The funcs below expect the caller to hold the lock.

func (s *GuardedSet[T]) indexIn(bucket []T, item T) int {
	for i, v := range bucket {
		if s.hasher.Equal(v, item) {
			return i
		}
	}

	return -1
}

func (s *GuardedSet[T]) add(item T) bool {
	h := s.hasher.Hash(item)
	bucket := s.buckets[h]
	if s.indexIn(bucket, item) >= 0 {
		return false
	}

	s.buckets[h] = append(bucket, item)
	s.count++

	return true
}

func (s *GuardedSet[T]) contains(item T) bool {
	return s.indexIn(s.buckets[s.hasher.Hash(item)], item) >= 0
}

func (s *GuardedSet[T]) remove(item T) bool {
	h := s.hasher.Hash(item)
	bucket := s.buckets[h]

	i := s.indexIn(bucket, item)
	if i < 0 {
		return false
	}

	if len(bucket) == 1 {
		delete(s.buckets, h)
	} else {
		last := len(bucket) - 1
		bucket[i] = bucket[last]

		var zero T
		bucket[last] = zero
		s.buckets[h] = bucket[:last]
	}

	s.count--
	return true
}

func (s *GuardedSet[T]) clear() {
	clear(s.buckets)
	s.count = 0
}

func (s *GuardedSet[T]) items() []T {
	items := make([]T, 0, s.count)
	for _, bucket := range s.buckets {
		items = append(items, bucket...)
	}

	return items
}
