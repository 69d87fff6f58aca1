package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
)

const defaultEmitterBatchSize = 100_000

var errEmitterClosed = errors.New("clickhouse emitter closed")

// Emitter buffers rows of one stream and inserts them in batches. Each row is numbered
// with its position in the stream so chain order survives the unordered inserts.
type Emitter struct {
	store     RowStore
	stream    model.Stream
	batchSize int
	metrics   EmitterMetrics
	buf       []model.PositionedRow
	next      uint64
	closed    bool
}

// NewEmitter clears rows left by a previous run of stream and returns an emitter for it.
func NewEmitter(ctx context.Context, store RowStore, stream model.Stream, batchSize int, metrics EmitterMetrics) (*Emitter, error) {
	if batchSize <= 0 {
		batchSize = defaultEmitterBatchSize
	}
	if err := store.TruncateRows(ctx, stream); err != nil {
		return nil, fmt.Errorf("reset %s rows: %w", stream, err)
	}
	return &Emitter{
		store:     store,
		stream:    stream,
		batchSize: batchSize,
		metrics:   metrics,
		buf:       make([]model.PositionedRow, 0, batchSize),
	}, nil
}

// Emit buffers row and inserts the buffer once it holds a full batch.
func (e *Emitter) Emit(ctx context.Context, row model.Row) (err error) {
	defer func() {
		e.metrics.ObserveEmit(err)
	}()

	if e.closed {
		return errEmitterClosed
	}

	e.buf = append(e.buf, model.PositionedRow{Position: e.next, Row: row})
	e.next++
	if len(e.buf) >= e.batchSize {
		return e.insert(ctx)
	}
	return nil
}

// Flush inserts buffered rows.
func (e *Emitter) Flush(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		e.metrics.ObserveFlush(err, started)
	}()

	if e.closed {
		return errEmitterClosed
	}
	return e.insert(ctx)
}

// Close inserts what is left and checks that the table holds every emitted row.
// The repository itself stays open.
func (e *Emitter) Close() error {
	if e.closed {
		return nil
	}
	ctx := context.Background()
	err := e.Flush(ctx)
	e.closed = true
	if err != nil {
		return err
	}

	stored, err := e.store.RowCount(ctx, e.stream)
	if err != nil {
		return fmt.Errorf("verify %s rows: %w", e.stream, err)
	}
	if stored != e.next {
		return fmt.Errorf("verify %s rows: stored %d, emitted %d", e.stream, stored, e.next)
	}
	return nil
}

func (e *Emitter) insert(ctx context.Context) error {
	if len(e.buf) == 0 {
		return nil
	}
	if err := e.store.InsertRows(ctx, e.stream, e.buf); err != nil {
		return err
	}
	e.buf = e.buf[:0]
	return nil
}
