package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	extractorEstimateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "extractor",
		Name:      "estimate_duration_seconds",
		Help:      "Duration of the header pre-scan.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600},
	}, []string{"coin", "network", "status"})

	extractorTotalTransactions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "extractor",
		Name:      "total_transactions",
		Help:      "Estimated number of transactions in the extraction range.",
	}, []string{"coin", "network"})

	extractorProcessedTransactions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "extractor",
		Name:      "processed_transactions",
		Help:      "Number of transactions walked so far.",
	}, []string{"coin", "network"})

	extractorBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "extractor",
		Name:      "blocks_total",
		Help:      "Count of walked blocks.",
	}, []string{"coin", "network"})

	extractorLastHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "extractor",
		Name:      "last_height",
		Help:      "Height of the last walked block.",
	}, []string{"coin", "network"})

	extractorRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "extractor",
		Name:      "rows_total",
		Help:      "Count of rows produced per stream.",
	}, []string{"coin", "network", "stream"})

	extractorBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "extractor",
		Name:      "block_duration_seconds",
		Help:      "Duration of fetching and emitting a single block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"coin", "network"})
)

// Extractor tracks progress of an extraction run.
type Extractor struct {
	coin    string
	network string
}

// NewExtractor constructs a metrics collector for an extraction run.
func NewExtractor(coin model.Coin, network model.Network) *Extractor {
	return &Extractor{coin: labelOrUnknown(string(coin)), network: labelOrUnknown(string(network))}
}

// ObserveEstimate records the pre-scan outcome and the estimated total.
func (m Extractor) ObserveEstimate(err error, total uint64, started time.Time) {
	extractorEstimateDuration.WithLabelValues(m.coin, m.network, statusLabel(err)).Observe(time.Since(started).Seconds())
	if err == nil {
		extractorTotalTransactions.WithLabelValues(m.coin, m.network).Set(float64(total))
	}
}

// ObserveBlock records a walked block and the rows it produced.
func (m Extractor) ObserveBlock(height uint64, inputs, outputs int, started time.Time) {
	extractorBlocksTotal.WithLabelValues(m.coin, m.network).Inc()
	extractorLastHeight.WithLabelValues(m.coin, m.network).Set(float64(height))
	extractorRowsTotal.WithLabelValues(m.coin, m.network, string(model.Inputs)).Add(float64(inputs))
	extractorRowsTotal.WithLabelValues(m.coin, m.network, string(model.Outputs)).Add(float64(outputs))
	extractorBlockDuration.WithLabelValues(m.coin, m.network).Observe(time.Since(started).Seconds())
}

// SetProcessed records the number of transactions walked so far.
func (m Extractor) SetProcessed(processed uint64) {
	extractorProcessedTransactions.WithLabelValues(m.coin, m.network).Set(float64(processed))
}
