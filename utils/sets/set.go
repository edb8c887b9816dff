package sets

import (
	"cmp"
	"maps"
	"slices"

	"github.com/samber/lo"
)

// Set is a plain set of comparable keys. It is not safe for concurrent use,
// see GuardedSet for a set that is shared between goroutines.
type Set[K comparable] map[K]struct{}

func Make[K comparable](capacity int) Set[K] {
	return make(Set[K], capacity)
}

func FromSlice[K comparable](keys []K) Set[K] {
	s := make(Set[K], len(keys))
	for _, k := range keys {
		s.Append(k)
	}

	return s
}

func (s Set[K]) Has(key K) bool {
	_, ok := s[key]
	return ok
}

// Adds key to this set.
func (s Set[K]) Append(key K) {
	s[key] = struct{}{}
}

// Like Append, but reports whether the key was missing beforehand.
func (s Set[K]) Insert(key K) bool {
	if s.Has(key) {
		return false
	}

	s[key] = struct{}{}
	return true
}

// Returns all elements in this set as a slice. Never nil.
func (s Set[K]) Keys() []K {
	return lo.Keys[K, struct{}](s)
}

// Returns a new set containing all elements from s and the given sets.
func (s Set[K]) Union(sets ...Set[K]) Set[K] {
	merged := maps.Clone(s)
	if merged == nil {
		merged = make(Set[K])
	}

	for _, set := range sets {
		for k := range set {
			merged.Append(k)
		}
	}

	return merged
}

// Returns all elements in s that are not in other.
func (s Set[K]) Difference(other Set[K]) Set[K] {
	set := make(Set[K])
	for k := range s {
		if !other.Has(k) {
			set.Append(k)
		}
	}

	return set
}

// Returns the keys of s in ascending order.
func Sorted[K cmp.Ordered](s Set[K]) []K {
	keys := s.Keys()
	slices.Sort(keys)

	return keys
}
