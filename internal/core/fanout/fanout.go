// Package fanout provides a structured wait-for-all combinator for issuing
// independent fetches in parallel and joining their results, collecting
// partial failures instead of aborting the whole batch.
package fanout

import (
	"context"
	"sync"
)

// Result is the outcome of one branch. Err is non-nil when the branch failed;
// Value then holds the zero value of T.
type Result[T any] struct {
	Value T
	Err   error
}

// Failed reports how many branches of a joined batch returned an error.
func Failed[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// All runs every branch concurrently and waits for all of them to settle.
// Results are returned in branch order. A failing branch yields its zero
// value so the caller can still aggregate over the successful ones.
func All[T any](ctx context.Context, branches []func(ctx context.Context) (T, error)) []Result[T] {
	results := make([]Result[T], len(branches))

	var wg sync.WaitGroup
	for i, branch := range branches {
		wg.Add(1)
		go func(i int, branch func(ctx context.Context) (T, error)) {
			defer wg.Done()
			v, err := branch(ctx)
			if err != nil {
				var zero T
				results[i] = Result[T]{Value: zero, Err: err}
				return
			}
			results[i] = Result[T]{Value: v}
		}(i, branch)
	}
	wg.Wait()

	return results
}

// Map fans one branch function out over a slice of inputs.
func Map[In, Out any](ctx context.Context, inputs []In, fn func(ctx context.Context, in In) (Out, error)) []Result[Out] {
	branches := make([]func(ctx context.Context) (Out, error), len(inputs))
	for i, in := range inputs {
		in := in
		branches[i] = func(ctx context.Context) (Out, error) {
			return fn(ctx, in)
		}
	}
	return All(ctx, branches)
}
