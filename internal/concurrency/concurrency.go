// Package concurrency bounds fan-out across a set of independent jobs,
// running up to a fixed number concurrently and collecting every job's
// result rather than stopping at the first success or failure.
package concurrency

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Job is one unit of bounded-concurrency work producing a result of type R.
type Job[R any] func(ctx context.Context) (R, error)

// Result pairs a job's index (its position in the input slice) with its
// outcome, so callers can report per-task failures without losing track of
// which task they came from.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// RunLimited runs every job with at most limit running concurrently,
// waiting for all of them to finish and returning every result — including
// failures — rather than cancelling the remaining jobs or returning only
// the first outcome. A limit of 0 or less defaults to 1.
//
// Unlike golang.org/x/sync/errgroup's default behavior, one job's failure
// never cancels its siblings: a single bad archive must not abort an
// otherwise-healthy batch run.
func RunLimited[R any](ctx context.Context, limit int, jobs []Job[R]) []Result[R] {
	if limit <= 0 {
		limit = 1
	}

	results := make([]Result[R], len(jobs))
	sem := semaphore.NewWeighted(int64(limit))
	var wg sync.WaitGroup

	for i, job := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = Result[R]{Index: i, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, job Job[R]) {
			defer wg.Done()
			defer sem.Release(1)
			v, err := job(ctx)
			results[i] = Result[R]{Index: i, Value: v, Err: err}
		}(i, job)
	}

	wg.Wait()
	return results
}
