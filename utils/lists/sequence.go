package lists

import "iter"

// Sequence is what a worker needs from a shared list: appending, indexed reads,
// the length, searching and bulk copies. There is deliberately no way to insert at a
// position, remove or clear through it; only the owner of a GuardedList can Clear it.
type Sequence[T any] interface {
	Add(item T)
	Get(index int) (T, error)
	Count() int
	FindIndex(match func(item T) bool) int
	CopyTo(dst []T, offset int) (int, error)
	All() iter.Seq2[int, T]
}

var _ Sequence[int] = (*GuardedList[int])(nil)

// Returns the index of the first element equal to v, or -1.
func IndexOf[T comparable](s Sequence[T], v T) int {
	return s.FindIndex(func(item T) bool {
		return item == v
	})
}

func Contains[T comparable](s Sequence[T], v T) bool {
	return IndexOf(s, v) != -1
}
