package lists

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange  = errors.New("index out of range")
	ErrShortBuffer = errors.New("destination too small")

	// Wraps errors.ErrUnsupported so callers can test for either.
	ErrUnsupported = fmt.Errorf("guarded list: %w", errors.ErrUnsupported)
)

// IndexError reports an index outside [0, Count). Count is the bound that was observed
// when the index was checked, which can be stale by the time the error is read.
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Count)
}

func (e *IndexError) Unwrap() error {
	return ErrOutOfRange
}

// OffsetError reports a CopyTo offset outside [0, Len]. An offset equal to Len is valid
// and only succeeds when there is nothing to copy.
type OffsetError struct {
	Offset int
	Len    int
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("offset %d out of range [0, %d]", e.Offset, e.Len)
}

func (e *OffsetError) Unwrap() error {
	return ErrOutOfRange
}

type ShortBufferError struct {
	Need int
	Have int
}

func (e *ShortBufferError) Error() string {
	return fmt.Sprintf("destination too small: need %d slots, have %d", e.Need, e.Have)
}

func (e *ShortBufferError) Unwrap() error {
	return ErrShortBuffer
}

func unsupported(op string) error {
	return fmt.Errorf("%s: %w", op, ErrUnsupported)
}
