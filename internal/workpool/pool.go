// Package workpool bounds concurrent pipeline/validation runs behind a
// fixed-size semaphore so an HTTP handler can fan a batch of domains
// out to goroutines without unbounded concurrency, and so a slow run
// can be cancelled via its caller's context.Context without blocking
// other requests (SPEC_FULL.md §5). Grounded on the teacher's
// context-aware concurrent-gathering pattern in
// internal campaign code, built on golang.org/x/sync/errgroup.
package workpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs tasks with bounded concurrency.
type Pool struct {
	limit int
}

// New builds a Pool that runs at most limit tasks concurrently. A
// non-positive limit means unbounded.
func New(limit int) *Pool {
	return &Pool{limit: limit}
}

// Task is one unit of pool work: build/validate/preview a single
// domain, or any other cancellable operation.
type Task func(ctx context.Context) error

// Run executes every task, cancelling outstanding work and returning
// the first non-nil error as soon as one task fails (errgroup
// semantics). The parent ctx being cancelled propagates to every task.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	eg, egCtx := errgroup.WithContext(ctx)
	if p.limit > 0 {
		eg.SetLimit(p.limit)
	}
	for _, task := range tasks {
		task := task
		eg.Go(func() error {
			return task(egCtx)
		})
	}
	return eg.Wait()
}

// RunCollecting is Run's variant for callers (such as a batch validate
// endpoint) that want every task's result rather than fail-fast: all
// tasks run to completion regardless of individual errors, which this
// package records per-index instead of aborting the others.
func (p *Pool) RunCollecting(ctx context.Context, tasks []Task) []error {
	eg, egCtx := errgroup.WithContext(context.Background())
	if p.limit > 0 {
		eg.SetLimit(p.limit)
	}
	errs := make([]error, len(tasks))
	for i, task := range tasks {
		i, task := i, task
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				errs[i] = ctx.Err()
			default:
				errs[i] = task(egCtx)
			}
			return nil
		})
	}
	_ = eg.Wait()
	return errs
}
