package ledger

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrLinkMismatch is reported when a block's previous digest does not
	// match the current digest of its predecessor.
	ErrLinkMismatch = errors.New("previous digest mismatch")

	// ErrHashMismatchOrDifficultyUnmet is reported when a block's stored
	// digest differs from the recomputed one or, in proof-of-work mode,
	// lacks the required leading zeros.
	ErrHashMismatchOrDifficultyUnmet = errors.New("digest mismatch or difficulty requirement not met")

	ErrEmptyChain      = errors.New("blockchain is empty")
	ErrOrder           = errors.New("block out of order")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUnknownHasher   = errors.New("unknown hasher")
	ErrNilBlock        = errors.New("nil block")
)

// OrderError is returned by Append when order checking is enabled and the
// block's index is not the next position in the chain.
type OrderError struct {
	Expected uint64
	Got      uint64
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("invalid index: expected %d, got %d", e.Expected, e.Got)
}

func (e *OrderError) Unwrap() error {
	return ErrOrder
}
