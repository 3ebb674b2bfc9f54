package pow

import (
	"context"
	"strings"
	"time"
)

// Candidate is a block being mined. The miner only touches its nonce and
// stored digest.
type Candidate interface {
	Nonce() uint64
	Digest() string
	SetNonce(nonce uint64)
	RecomputeDigest() string
	// DigestWithNonce returns the digest for nonce without mutating the
	// candidate.
	DigestWithNonce(nonce uint64) string
}

// Result describes a finished search.
type Result struct {
	Nonce    uint64
	Digest   string
	Attempts uint64
	Elapsed  time.Duration
}

// HashRate returns the number of attempts per second.
func (r Result) HashRate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Attempts) / r.Elapsed.Seconds()
}

// Target returns the prefix a digest needs to meet difficulty. Difficulties
// below one have an empty target.
func Target(difficulty int) string {
	if difficulty <= 0 {
		return ""
	}
	return strings.Repeat("0", difficulty)
}

// MeetsDifficulty reports whether digest starts with difficulty zeros.
func MeetsDifficulty(digest string, difficulty int) bool {
	return strings.HasPrefix(digest, Target(difficulty))
}

// Mine increments the candidate's nonce and recomputes its digest until the
// stored digest meets difficulty. The candidate is mutated in place. If the
// stored digest already qualifies Mine returns immediately with zero
// attempts, which is always the case for difficulty 0.
func Mine(c Candidate, difficulty int) Result {
	r, _ := MineContext(context.Background(), c, difficulty)
	return r
}

// MineContext is Mine with cancellation. On cancellation the candidate is
// left at the last nonce tried and ctx.Err() is returned.
func MineContext(ctx context.Context, c Candidate, difficulty int) (Result, error) {
	start := time.Now()
	target := Target(difficulty)
	done := ctx.Done()
	var attempts uint64
	for !strings.HasPrefix(c.Digest(), target) {
		select {
		case <-done:
			return Result{Nonce: c.Nonce(), Digest: c.Digest(), Attempts: attempts, Elapsed: time.Since(start)}, ctx.Err()
		default:
		}
		c.SetNonce(c.Nonce() + 1)
		c.RecomputeDigest()
		attempts++
	}
	return Result{
		Nonce:    c.Nonce(),
		Digest:   c.Digest(),
		Attempts: attempts,
		Elapsed:  time.Since(start),
	}, nil
}
