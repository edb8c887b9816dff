package lists

import "iter"

// Mutable is the general list contract some callers are written against.
// GuardedList only honours the Sequence part of it.
type Mutable[T any] interface {
	Sequence[T]
	Set(index int, item T) error
	Insert(index int, item T) error
	RemoveAt(index int) error
	Remove(item T) (bool, error)
	Clear() error
}

type refusing[T any] struct {
	list *GuardedList[T]
}

var _ Mutable[int] = refusing[int]{}

func (r refusing[T]) Add(item T) { r.list.Add(item) }

func (r refusing[T]) Get(index int) (T, error) { return r.list.Get(index) }

func (r refusing[T]) Count() int { return r.list.Count() }

func (r refusing[T]) FindIndex(match func(T) bool) int { return r.list.FindIndex(match) }

func (r refusing[T]) CopyTo(dst []T, offset int) (int, error) {
	return r.list.CopyTo(dst, offset)
}

func (r refusing[T]) All() iter.Seq2[int, T] {
	return r.list.All()
}

func (refusing[T]) Set(int, T) error {
	return unsupported("set")
}

func (refusing[T]) Insert(int, T) error {
	return unsupported("insert")
}

func (refusing[T]) RemoveAt(int) error {
	return unsupported("remove at")
}

func (refusing[T]) Remove(T) (bool, error) {
	return false, unsupported("remove")
}

// Clearing is reserved for whoever holds the *GuardedList itself.
func (refusing[T]) Clear() error {
	return unsupported("clear")
}
