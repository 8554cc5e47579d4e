package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeReadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockvault7000",
		Subsystem: "blockstore",
		Name:      "read_total",
		Help:      "Count of record reads per record class.",
	}, []string{"network", "class", "status"})

	storeReadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockvault7000",
		Subsystem: "blockstore",
		Name:      "read_duration_seconds",
		Help:      "Duration of record reads.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "class", "status"})

	storeWriteTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockvault7000",
		Subsystem: "blockstore",
		Name:      "write_total",
		Help:      "Count of record writes per record class.",
	}, []string{"network", "class", "status"})

	storeWriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockvault7000",
		Subsystem: "blockstore",
		Name:      "write_duration_seconds",
		Help:      "Duration of record writes, including the durability sync.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "class", "status"})
)

type BlockStore struct {
	network string
}

func NewBlockStore(network string) *BlockStore {
	if network == "" {
		network = "unknown"
	}
	return &BlockStore{network: network}
}

func (m BlockStore) ObserveRead(class string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	storeReadTotal.WithLabelValues(m.network, class, status).Inc()
	storeReadDuration.WithLabelValues(m.network, class, status).
		Observe(time.Since(started).Seconds())
}

func (m BlockStore) ObserveWrite(class string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	storeWriteTotal.WithLabelValues(m.network, class, status).Inc()
	storeWriteDuration.WithLabelValues(m.network, class, status).
		Observe(time.Since(started).Seconds())
}
