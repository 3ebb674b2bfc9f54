package pow

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MineParallel searches the nonce space with workers goroutines. Worker w
// tries nonce+w+1, nonce+w+1+workers, ... and never mutates the candidate.
// The first worker to find a qualifying nonce raises a shared flag and the
// others stop. Among the winners observed before everyone stopped, the
// lowest nonce is committed to the candidate exactly once, after all workers
// have returned.
//
// On cancellation the candidate is not modified and ctx.Err() is returned.
func MineParallel(ctx context.Context, c Candidate, difficulty int, workers int) (Result, error) {
	if workers < 1 {
		workers = 1
	}
	start := time.Now()
	target := Target(difficulty)
	if strings.HasPrefix(c.Digest(), target) {
		return Result{Nonce: c.Nonce(), Digest: c.Digest(), Elapsed: time.Since(start)}, nil
	}

	var (
		found    atomic.Bool
		attempts atomic.Uint64
		mu       sync.Mutex
		winner   *Result
		wg       sync.WaitGroup
	)
	base := c.Nonce()
	stride := uint64(workers)
	done := ctx.Done()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset uint64) {
			defer wg.Done()
			for nonce := base + offset; !found.Load(); nonce += stride {
				select {
				case <-done:
					return
				default:
				}
				digest := c.DigestWithNonce(nonce)
				attempts.Add(1)
				if strings.HasPrefix(digest, target) {
					mu.Lock()
					if winner == nil || nonce < winner.Nonce {
						winner = &Result{Nonce: nonce, Digest: digest}
					}
					mu.Unlock()
					found.Store(true)
					return
				}
			}
		}(uint64(w) + 1)
	}
	wg.Wait()

	if winner == nil {
		return Result{Nonce: c.Nonce(), Digest: c.Digest(), Attempts: attempts.Load(), Elapsed: time.Since(start)}, ctx.Err()
	}
	c.SetNonce(winner.Nonce)
	c.RecomputeDigest()
	return Result{
		Nonce:    c.Nonce(),
		Digest:   c.Digest(),
		Attempts: attempts.Load(),
		Elapsed:  time.Since(start),
	}, nil
}
