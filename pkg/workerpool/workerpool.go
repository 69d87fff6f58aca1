// Package workerpool runs bounded concurrent work with fail-fast cancellation.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Process invokes process for every item with at most workerCount calls in flight.
// The first error cancels the context handed to the remaining calls and is returned.
func Process[T any](ctx context.Context, workerCount int, items []T, process func(context.Context, T) error) error {
	g, gctx := group(ctx, workerCount)
	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return process(gctx, item)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Range invokes process for every value in [start, end) the same way Process does,
// without materializing the values.
func Range(ctx context.Context, workerCount int, start, end uint64, process func(context.Context, uint64) error) error {
	g, gctx := group(ctx, workerCount)
	for v := start; v < end; v++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return process(gctx, v)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func group(ctx context.Context, workerCount int) (*errgroup.Group, context.Context) {
	if workerCount <= 0 {
		workerCount = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount)
	return g, gctx
}
