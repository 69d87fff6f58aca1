package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	emitterRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "emitter",
		Name:      "rows_total",
		Help:      "Count of rows accepted by an emitter.",
	}, []string{"sink", "stream", "status"})

	emitterFlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "emitter",
		Name:      "flush_duration_seconds",
		Help:      "Duration of emitter flushes.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"sink", "stream", "status"})
)

// Emitter tracks rows written by one row emitter.
type Emitter struct {
	sink   string
	stream string
}

// NewEmitter constructs a metrics collector for the emitter of stream writing to sink.
func NewEmitter(sink string, stream model.Stream) *Emitter {
	return &Emitter{sink: labelOrUnknown(sink), stream: labelOrUnknown(string(stream))}
}

// ObserveEmit counts one emitted row.
func (m Emitter) ObserveEmit(err error) {
	emitterRowsTotal.WithLabelValues(m.sink, m.stream, statusLabel(err)).Inc()
}

// ObserveFlush records a flush outcome and duration.
func (m Emitter) ObserveFlush(err error, started time.Time) {
	emitterFlushDuration.WithLabelValues(m.sink, m.stream, statusLabel(err)).Observe(time.Since(started).Seconds())
}
