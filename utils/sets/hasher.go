package sets

import (
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/cases"
)

// Hasher decides when two values of T are the same element of a GuardedSet.
// Values that are Equal must produce the same Hash.
//
// Implementations are called concurrently from readers holding the shared lock,
// so they must be safe for concurrent use.
type Hasher[T any] interface {
	Hash(v T) uint64
	Equal(a, b T) bool
}

// HasherFunc adapts a pair of funcs to a Hasher.
type HasherFunc[T any] struct {
	HashFunc  func(v T) uint64
	EqualFunc func(a, b T) bool
}

func (h HasherFunc[T]) Hash(v T) uint64 {
	return h.HashFunc(v)
}

func (h HasherFunc[T]) Equal(a, b T) bool {
	return h.EqualFunc(a, b)
}

type comparableHasher[T comparable] struct {
	seed maphash.Seed
}

// ComparableHasher hashes any comparable T with a per-hasher random seed and compares with ==.
func ComparableHasher[T comparable]() Hasher[T] {
	return comparableHasher[T]{seed: maphash.MakeSeed()}
}

func (h comparableHasher[T]) Hash(v T) uint64 {
	return maphash.Comparable(h.seed, v)
}

func (comparableHasher[T]) Equal(a, b T) bool {
	return a == b
}

type stringHasher struct{}

// StringHasher compares strings exactly, hashing them with xxhash.
func StringHasher() Hasher[string] {
	return stringHasher{}
}

func (stringHasher) Hash(v string) uint64 {
	return xxhash.Sum64String(v)
}

func (stringHasher) Equal(a, b string) bool {
	return a == b
}

type foldHasher struct{}

// FoldHasher compares strings case-insensitively using Unicode case folding,
// so "Straße" and "STRASSE" are the same element.
func FoldHasher() Hasher[string] {
	return foldHasher{}
}

// A cases.Caser keeps state between calls, so each call gets its own.
func fold(v string) string {
	return cases.Fold().String(v)
}

func (foldHasher) Hash(v string) uint64 {
	return xxhash.Sum64String(fold(v))
}

func (foldHasher) Equal(a, b string) bool {
	return a == b || fold(a) == fold(b)
}
