package locks

import "github.com/google/uuid"

// Owner identifies the holder of a ReentrantRWMutex.
//
// Goroutines have no identity of their own, so a caller that needs nested
// acquisition mints an Owner once and passes it to every call in the nest.
// The zero Owner is anonymous: it may hold the lock, but it is never reentrant.
type Owner struct {
	id uuid.UUID
}

// Anonymous is the zero Owner.
//
// All anonymous holders are indistinguishable, so the lock cannot tell which of them
// a release belongs to: RUnlock(Anonymous) succeeds as long as any anonymous reader
// is inside, even if the caller never acquired. ErrNotHeld is only reliable for
// minted owners. Pair anonymous acquisitions through WithLock and WithRLock, or use
// NewOwner when releases have to be attributed.
var Anonymous Owner

func NewOwner() Owner {
	return Owner{id: uuid.New()}
}

func (o Owner) IsAnonymous() bool {
	return o.id == uuid.Nil
}

func (o Owner) String() string {
	if o.IsAnonymous() {
		return "anonymous"
	}

	return o.id.String()
}
