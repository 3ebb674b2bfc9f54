package ledger

import (
	"fmt"

	"github.com/luca-patrignani/powchain/pow"
)

// Reason names the rule a block violated.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonHashMismatchOrDifficultyUnmet
	ReasonLinkMismatch
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonHashMismatchOrDifficultyUnmet:
		return "hash mismatch or difficulty unmet"
	case ReasonLinkMismatch:
		return "link mismatch"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// ValidationResult is the verdict of a validation pass. When Valid is false,
// BlockIndex and Reason locate the violation; Expected and Actual carry the
// values that disagreed.
type ValidationResult struct {
	Valid      bool
	BlockIndex int
	Reason     Reason
	Expected   string
	Actual     string
	Difficulty int
}

func (r ValidationResult) String() string {
	if r.Valid {
		return "valid"
	}
	switch r.Reason {
	case ReasonHashMismatchOrDifficultyUnmet:
		if r.Expected != r.Actual {
			return fmt.Sprintf("block %d: digest mismatch (expected %s, got %s)", r.BlockIndex, r.Expected, r.Actual)
		}
		return fmt.Sprintf("block %d: digest %s does not meet difficulty %d", r.BlockIndex, r.Actual, r.Difficulty)
	case ReasonLinkMismatch:
		return fmt.Sprintf("block %d: previous digest mismatch (expected %s, got %s)", r.BlockIndex, r.Expected, r.Actual)
	default:
		return fmt.Sprintf("block %d: %s", r.BlockIndex, r.Reason)
	}
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Result: r}
}

// ValidationError wraps a failed ValidationResult. It unwraps to
// ErrHashMismatchOrDifficultyUnmet or ErrLinkMismatch.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	return "invalid chain: " + e.Result.String()
}

func (e *ValidationError) Unwrap() error {
	switch e.Result.Reason {
	case ReasonHashMismatchOrDifficultyUnmet:
		return ErrHashMismatchOrDifficultyUnmet
	case ReasonLinkMismatch:
		return ErrLinkMismatch
	default:
		return nil
	}
}

// Validate walks blocks from index 1 and returns the first violation. For
// each block the digest is checked first (recomputed digest equals stored
// digest and, in proof-of-work mode, stored digest meets difficulty), then
// the link to its predecessor. The genesis block is never checked.
func Validate(blocks []*Block, mode Mode, difficulty int) ValidationResult {
	for i := 1; i < len(blocks); i++ {
		if res, ok := checkDigest(blocks, i, mode, difficulty); !ok {
			return res
		}
		if res, ok := checkLink(blocks, i); !ok {
			return res
		}
	}
	return ValidationResult{Valid: true}
}

// ValidateAll is Validate without short-circuiting: every violated rule of
// every block is reported, in chain order. An empty result means the chain
// is valid.
func ValidateAll(blocks []*Block, mode Mode, difficulty int) []ValidationResult {
	var out []ValidationResult
	for i := 1; i < len(blocks); i++ {
		if res, ok := checkDigest(blocks, i, mode, difficulty); !ok {
			out = append(out, res)
		}
		if res, ok := checkLink(blocks, i); !ok {
			out = append(out, res)
		}
	}
	return out
}

func checkDigest(blocks []*Block, i int, mode Mode, difficulty int) (ValidationResult, bool) {
	current := blocks[i]
	expected := current.CalculateDigest()
	meets := mode != ModeProofOfWork || pow.MeetsDifficulty(current.digest, difficulty)
	if expected != "" && current.digest == expected && meets {
		return ValidationResult{}, true
	}
	return ValidationResult{
		BlockIndex: i,
		Reason:     ReasonHashMismatchOrDifficultyUnmet,
		Expected:   expected,
		Actual:     current.digest,
		Difficulty: difficulty,
	}, false
}

func checkLink(blocks []*Block, i int) (ValidationResult, bool) {
	current, previous := blocks[i], blocks[i-1]
	if current.prevDigest == previous.digest {
		return ValidationResult{}, true
	}
	return ValidationResult{
		BlockIndex: i,
		Reason:     ReasonLinkMismatch,
		Expected:   previous.digest,
		Actual:     current.prevDigest,
	}, false
}
