// Package extractor walks the chain and streams input and output rows to their emitters.
package extractor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/goodnatureofminers/blockinsight7000-extractor/pkg/workerpool"
)

// EstimateTotal returns the number of transactions in heights [0, end) using header
// lookups only. Up to workers lookups run at once.
func EstimateTotal(ctx context.Context, source Source, end uint64, workers int) (uint64, error) {
	var total atomic.Uint64
	err := workerpool.Range(ctx, workers, 0, end, func(ctx context.Context, height uint64) error {
		n, err := source.TxCount(ctx, height)
		if err != nil {
			return fmt.Errorf("%w: tx count at height %d: %w", ErrStoreRead, height, err)
		}
		total.Add(n)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total.Load(), nil
}

// ResolveEnd returns the exclusive end height of the walk: the store's block count, or
// maxHeight when it is set and lower.
func ResolveEnd(ctx context.Context, source Source, maxHeight uint64) (uint64, error) {
	count, err := source.BlockCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: block count: %w", ErrStoreRead, err)
	}
	if maxHeight > 0 && maxHeight < count {
		return maxHeight, nil
	}
	return count, nil
}
