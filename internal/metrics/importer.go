package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockvault7000",
		Subsystem: "importer",
		Name:      "blocks_total",
		Help:      "Count of blocks handled during import, by terminal state.",
	}, []string{"network", "state"})

	importBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockvault7000",
		Subsystem: "importer",
		Name:      "block_duration_seconds",
		Help:      "Duration from first record byte to terminal state per block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "state"})

	importFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockvault7000",
		Subsystem: "importer",
		Name:      "files_total",
		Help:      "Count of import source files processed.",
	}, []string{"network", "status"})

	importFileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockvault7000",
		Subsystem: "importer",
		Name:      "file_duration_seconds",
		Help:      "Duration of one source file's import job.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"network", "status"})

	importProgressBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockvault7000",
		Subsystem: "importer",
		Name:      "imported_bytes",
		Help:      "Raw block bytes imported so far.",
	}, []string{"network"})
)

type Importer struct {
	network string
}

func NewImporter(network string) *Importer {
	if network == "" {
		network = "unknown"
	}
	return &Importer{network: network}
}

func (m Importer) ObserveBlock(state string, started time.Time) {
	importBlocksTotal.WithLabelValues(m.network, state).Inc()
	importBlockDuration.WithLabelValues(m.network, state).
		Observe(time.Since(started).Seconds())
}

func (m Importer) ObserveFile(err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	importFilesTotal.WithLabelValues(m.network, status).Inc()
	importFileDuration.WithLabelValues(m.network, status).
		Observe(time.Since(started).Seconds())
}

func (m Importer) AddImportedBytes(n int) {
	importProgressBytes.WithLabelValues(m.network).Add(float64(n))
}
