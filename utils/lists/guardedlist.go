// Package lists provides GuardedList, an append-only list that is shared between goroutines.
//
// Appends are serialized by a mutex, but Count and Get never take it. A reader sees the
// counter as it was last published, which may lag behind an Add that is still in flight
// on another goroutine. This relaxed consistency is deliberate: the hot read path never
// waits on writers. The price is that a bounds check against Count is not atomic with the
// read that follows it, and that FindIndex, CopyTo and iteration only cover what was
// published when they started.
//
// Storage is split into fixed-size chunks that never move once allocated. Growing the list
// publishes a new chunk directory, and Clear swaps in a fresh generation instead of
// wiping the old one, so a reader racing a writer can see old data but never a slot that
// is being written or relocated.
package lists

import (
	"iter"
	"sync"
	"sync/atomic"
)

const chunkSize = 64

type chunk[T any] [chunkSize]T

// One storage generation. Slots below count are written once and never again.
type generation[T any] struct {
	chunks atomic.Pointer[[]*chunk[T]]
	count  atomic.Int64
}

func newGeneration[T any]() *generation[T] {
	g := &generation[T]{}
	g.chunks.Store(&[]*chunk[T]{})

	return g
}

// Caller must have loaded count before calling, so the directory already covers i.
func (g *generation[T]) at(i int) T {
	chunks := *g.chunks.Load()
	return chunks[i/chunkSize][i%chunkSize]
}

// GuardedList is an append-only list safe for concurrent use. The zero value is an empty list.
type GuardedList[T any] struct {
	mu  sync.Mutex // guards appends and generation swaps
	cur atomic.Pointer[generation[T]]
}

func New[T any]() *GuardedList[T] {
	l := &GuardedList[T]{}
	l.cur.Store(newGeneration[T]())

	return l
}

func (l *GuardedList[T]) load() *generation[T] {
	if g := l.cur.Load(); g != nil {
		return g
	}

	l.cur.CompareAndSwap(nil, newGeneration[T]())
	return l.cur.Load()
}

// Appends item to the tail. Concurrent appends land in the order they acquired the lock.
func (l *GuardedList[T]) Add(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g := l.load()
	n := int(g.count.Load())

	chunks := *g.chunks.Load()
	if n/chunkSize == len(chunks) {
		chunks = append(chunks, new(chunk[T]))
		g.chunks.Store(&chunks)
	}

	chunks[n/chunkSize][n%chunkSize] = item
	g.count.Store(int64(n + 1))
}

// Returns the element at index, checked against the published count without locking.
// An index outside [0, Count()) yields an *IndexError.
func (l *GuardedList[T]) Get(index int) (T, error) {
	g := l.load()
	count := int(g.count.Load())

	if index < 0 || index >= count {
		var zero T
		return zero, &IndexError{Index: index, Count: count}
	}

	return g.at(index), nil
}

// Returns the published number of elements without locking.
// It may not include an Add that is still running.
func (l *GuardedList[T]) Count() int {
	return int(l.load().count.Load())
}

// Empties the list. Readers that started before Clear may still finish on the old contents.
func (l *GuardedList[T]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cur.Store(newGeneration[T]())
}

// Returns the index of the first element matching match, or -1.
// Only elements published when the call started are considered, and match runs
// without any lock held, so it may call back into the list.
func (l *GuardedList[T]) FindIndex(match func(item T) bool) int {
	g := l.load()
	count := int(g.count.Load())

	for i := range count {
		if match(g.at(i)) {
			return i
		}
	}

	return -1
}

// Copies the published elements into dst starting at offset and returns how many were copied.
// Nothing is copied when dst cannot hold them all.
func (l *GuardedList[T]) CopyTo(dst []T, offset int) (int, error) {
	if offset < 0 || offset > len(dst) {
		return 0, &OffsetError{Offset: offset, Len: len(dst)}
	}

	g := l.load()
	count := int(g.count.Load())
	if len(dst)-offset < count {
		return 0, &ShortBufferError{Need: count, Have: len(dst) - offset}
	}

	chunks := *g.chunks.Load()
	for copied := 0; copied < count; copied += chunkSize {
		c := chunks[copied/chunkSize]
		copy(dst[offset+copied:offset+count], c[:min(chunkSize, count-copied)])
	}

	return count, nil
}

// All yields index/element pairs for the elements published when iteration starts.
// It is a snapshot, not a live view: later Adds and Clears are not reflected.
func (l *GuardedList[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		g := l.load()
		count := int(g.count.Load())

		for i := range count {
			if !yield(i, g.at(i)) {
				return
			}
		}
	}
}

// Values is like All without the indices.
func (l *GuardedList[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range l.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Mutable exposes l through the broad Mutable contract. Everything beyond appending,
// reading and searching fails with ErrUnsupported.
func (l *GuardedList[T]) Mutable() Mutable[T] {
	return refusing[T]{list: l}
}
