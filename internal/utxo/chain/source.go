// Package chain defines the read-only chain store contract and the helpers that walk it.
package chain

import (
	"context"
	"fmt"
	"iter"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Source is a read-only chain store that serves connected blocks.
	Source interface {
		// BlockCount returns the exclusive upper bound of available heights.
		BlockCount(ctx context.Context) (uint64, error)
		// TxCount returns the number of transactions at height without decoding the block body.
		TxCount(ctx context.Context, height uint64) (uint64, error)
		FetchBlock(ctx context.Context, height uint64) (*model.Block, error)
	}

	// OutputLookup fetches the outputs of already confirmed transactions.
	OutputLookup interface {
		TransactionOutputsLookupByTxIDs(ctx context.Context, txids []string) (map[string][]model.TransactionOutputLookup, error)
	}
)

// Blocks yields the connected blocks at heights [0, end) in ascending order.
// Only the block being yielded is held; the sequence stops after the first error.
func Blocks(ctx context.Context, source Source, end uint64) iter.Seq2[*model.Block, error] {
	return func(yield func(*model.Block, error) bool) {
		for height := uint64(0); height < end; height++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			block, err := source.FetchBlock(ctx, height)
			if err != nil {
				yield(nil, fmt.Errorf("fetch block height %d: %w", height, err))
				return
			}
			if block == nil {
				yield(nil, fmt.Errorf("fetch block height %d: empty block", height))
				return
			}
			if block.Height != height {
				yield(nil, fmt.Errorf("fetch block height %d: store returned height %d", height, block.Height))
				return
			}

			if !yield(block, nil) {
				return
			}
		}
	}
}
