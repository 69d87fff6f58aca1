package extractor

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Source is the chain store the job reads. It matches chain.Source.
	Source interface {
		BlockCount(ctx context.Context) (uint64, error)
		TxCount(ctx context.Context, height uint64) (uint64, error)
		FetchBlock(ctx context.Context, height uint64) (*model.Block, error)
	}

	// RowEmitter writes the rows of one stream. Close flushes before releasing the sink.
	RowEmitter interface {
		Emit(ctx context.Context, row model.Row) error
		Flush(ctx context.Context) error
		Close() error
	}

	Metrics interface {
		ObserveEstimate(err error, total uint64, started time.Time)
		ObserveBlock(height uint64, inputs, outputs int, started time.Time)
		SetProcessed(processed uint64)
	}
)
