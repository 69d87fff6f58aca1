package extractor

import (
	"time"

	"go.uber.org/zap"
)

// Reporter logs walk progress against the estimated total at most once per interval.
type Reporter struct {
	logger    *zap.Logger
	metrics   Metrics
	interval  time.Duration
	now       func() time.Time
	total     uint64
	processed uint64
	started   time.Time
	lastLog   time.Time
}

func NewReporter(logger *zap.Logger, metrics Metrics, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = defaultProgressInterval
	}
	return &Reporter{
		logger:   logger,
		metrics:  metrics,
		interval: interval,
		now:      time.Now,
	}
}

// Start resets the counters for a walk over total transactions.
func (r *Reporter) Start(total uint64) {
	r.total = total
	r.processed = 0
	r.started = r.now()
	r.lastLog = r.started
	r.metrics.SetProcessed(0)
	r.logger.Info("extraction started", zap.Uint64("total_txs", total))
}

// Advance adds n processed transactions.
func (r *Reporter) Advance(n uint64) {
	r.processed += n
	r.metrics.SetProcessed(r.processed)

	now := r.now()
	if now.Sub(r.lastLog) < r.interval {
		return
	}
	r.lastLog = now
	r.log("extraction progress", now)
}

// Finish logs the final counters.
func (r *Reporter) Finish() {
	r.log("extraction walked", r.now())
}

func (r *Reporter) Processed() uint64 {
	return r.processed
}

func (r *Reporter) log(msg string, now time.Time) {
	elapsed := now.Sub(r.started)
	fields := []zap.Field{
		zap.Uint64("processed_txs", r.processed),
		zap.Uint64("total_txs", r.total),
		zap.Duration("elapsed", elapsed.Truncate(time.Second)),
	}
	if r.total > 0 {
		fields = append(fields, zap.Float64("percent", float64(r.processed)*100/float64(r.total)))
	}
	if secs := elapsed.Seconds(); secs > 0 && r.processed > 0 {
		rate := float64(r.processed) / secs
		fields = append(fields, zap.Float64("txs_per_sec", rate))
		if r.total > r.processed {
			eta := time.Duration(float64(r.total-r.processed) / rate * float64(time.Second))
			fields = append(fields, zap.Duration("eta", eta.Truncate(time.Second)))
		}
	}
	r.logger.Info(msg, fields...)
}
