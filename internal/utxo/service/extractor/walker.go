package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/address"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
	"go.uber.org/zap"
)

// Walker turns connected blocks into rows, one block at a time.
type Walker struct {
	source  Source
	metrics Metrics
	logger  *zap.Logger
}

func NewWalker(source Source, metrics Metrics, logger *zap.Logger) *Walker {
	return &Walker{source: source, metrics: metrics, logger: logger}
}

// Walk visits heights [0, end) in order. For every transaction it calls onInput for each
// input and then onOutput for each output; after each block it reports the block's
// transaction count to onProgress. The first error stops the walk.
func (w *Walker) Walk(
	ctx context.Context,
	end uint64,
	onInput, onOutput func(model.Row) error,
	onProgress func(uint64),
) error {
	started := time.Now()
	for block, err := range chain.Blocks(ctx, w.source, end) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrStoreRead, err)
		}

		if err := w.walkBlock(block, onInput, onOutput); err != nil {
			return err
		}

		w.metrics.ObserveBlock(block.Height, block.InputCount(), block.OutputCount(), started)
		w.logger.Debug("block walked",
			zap.Uint64("height", block.Height),
			zap.Int("txs", len(block.Txs)),
		)
		onProgress(uint64(len(block.Txs)))
		started = time.Now()
	}
	return nil
}

func (w *Walker) walkBlock(block *model.Block, onInput, onOutput func(model.Row) error) error {
	ts := block.Timestamp.Unix()
	for _, tx := range block.Txs {
		for _, in := range tx.Inputs {
			row := model.Row{Timestamp: ts, Label: address.Canonicalize(in.Addresses), Value: in.Value}
			if err := onInput(row); err != nil {
				return fmt.Errorf("block %d tx %s input %d: %w", block.Height, tx.TxID, in.Index, err)
			}
		}
		for _, out := range tx.Outputs {
			row := model.Row{Timestamp: ts, Label: address.Canonicalize(out.Addresses), Value: out.Value}
			if err := onOutput(row); err != nil {
				return fmt.Errorf("block %d tx %s output %d: %w", block.Height, tx.TxID, out.Index, err)
			}
		}
	}
	return nil
}
