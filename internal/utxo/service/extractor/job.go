package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Config holds everything a Job needs. The job owns both emitters and closes them.
type Config struct {
	Source  Source
	Inputs  RowEmitter
	Outputs RowEmitter
	Metrics Metrics
	Logger  *zap.Logger
	// MaxHeight bounds the walk to heights [0, MaxHeight). Zero walks to the tip.
	MaxHeight        uint64
	HeaderWorkers    int
	ProgressInterval time.Duration
}

// Summary describes a finished run.
type Summary struct {
	End        uint64
	TotalTxs   uint64
	WalkedTxs  uint64
	InputRows  uint64
	OutputRows uint64
}

// Job extracts input and output rows for every block of the chain store.
type Job struct {
	source        Source
	inputs        RowEmitter
	outputs       RowEmitter
	metrics       Metrics
	logger        *zap.Logger
	maxHeight     uint64
	headerWorkers int
	walker        *Walker
	progress      *Reporter
}

func NewJob(cfg Config) (*Job, error) {
	if cfg.Source == nil {
		return nil, errors.New("chain store is required")
	}
	if cfg.Inputs == nil || cfg.Outputs == nil {
		return nil, errors.New("input and output emitters are required")
	}
	if cfg.Metrics == nil {
		return nil, errors.New("extractor metrics is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.HeaderWorkers
	if workers <= 0 {
		workers = defaultHeaderWorkers
	}

	return &Job{
		source:        cfg.Source,
		inputs:        cfg.Inputs,
		outputs:       cfg.Outputs,
		metrics:       cfg.Metrics,
		logger:        logger,
		maxHeight:     cfg.MaxHeight,
		headerWorkers: workers,
		walker:        NewWalker(cfg.Source, cfg.Metrics, logger.Named("walker")),
		progress:      NewReporter(logger.Named("progress"), cfg.Metrics, cfg.ProgressInterval),
	}, nil
}

// Run estimates the total, walks the chain and closes both emitters. Emitters are closed
// on every path, so rows emitted before a failure are still flushed.
func (j *Job) Run(ctx context.Context) (summary Summary, err error) {
	defer func() {
		if closeErr := j.close(); closeErr != nil {
			err = multierror.Append(err, closeErr).ErrorOrNil()
		}
	}()

	end, err := ResolveEnd(ctx, j.source, j.maxHeight)
	if err != nil {
		return summary, err
	}
	summary.End = end

	started := time.Now()
	total, err := EstimateTotal(ctx, j.source, end, j.headerWorkers)
	j.metrics.ObserveEstimate(err, total, started)
	if err != nil {
		return summary, fmt.Errorf("estimate total: %w", err)
	}
	summary.TotalTxs = total
	j.logger.Info("estimated total", zap.Uint64("end", end), zap.Uint64("total_txs", total))

	j.progress.Start(total)
	err = j.walker.Walk(ctx, end,
		j.emitter(ctx, j.inputs, &summary.InputRows),
		j.emitter(ctx, j.outputs, &summary.OutputRows),
		j.progress.Advance,
	)
	summary.WalkedTxs = j.progress.Processed()
	if err != nil {
		return summary, err
	}

	if err = j.flush(ctx); err != nil {
		return summary, err
	}
	j.progress.Finish()
	return summary, nil
}

func (j *Job) emitter(ctx context.Context, e RowEmitter, count *uint64) func(model.Row) error {
	return func(row model.Row) error {
		if err := e.Emit(ctx, row); err != nil {
			return fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}
		*count++
		return nil
	}
}

func (j *Job) flush(ctx context.Context) error {
	if err := j.inputs.Flush(ctx); err != nil {
		return fmt.Errorf("%w: flush %s: %w", ErrSinkWrite, model.Inputs, err)
	}
	if err := j.outputs.Flush(ctx); err != nil {
		return fmt.Errorf("%w: flush %s: %w", ErrSinkWrite, model.Outputs, err)
	}
	return nil
}

func (j *Job) close() error {
	var result *multierror.Error
	if err := j.inputs.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: close %s: %w", ErrSinkWrite, model.Inputs, err))
	}
	if err := j.outputs.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: close %s: %w", ErrSinkWrite, model.Outputs, err))
	}
	return result.ErrorOrNil()
}
