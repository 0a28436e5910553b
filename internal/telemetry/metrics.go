package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transformd_records_total",
			Help: "Processed change notifications by outcome.",
		},
		[]string{"outcome"},
	)

	batchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transformd_batches_total",
			Help: "Notification batches handled.",
		},
	)

	batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "transformd_batch_duration_seconds",
			Help:    "Wall time spent handling one notification batch.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(recordsTotal, batchesTotal, batchDuration)
}

func RecordOutcome(outcome string) {
	recordsTotal.WithLabelValues(outcome).Inc()
}

func ObserveBatch(d time.Duration) {
	batchesTotal.Inc()
	batchDuration.Observe(d.Seconds())
}

// Handler exposes the metrics endpoint; the health server mounts it.
func Handler() http.Handler {
	return promhttp.Handler()
}
