package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_length_total",
			Help: "Current number of entries per status",
		},
		[]string{"status"},
	)

	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total queue operations",
		},
		[]string{"operation", "result"},
	)

	tokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_tokens_issued_total",
			Help: "Total tokens issued",
		},
	)

	recalculationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queue_recalculation_duration_seconds",
			Help:    "Duration of full position recalculations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	eventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_events_consumed_total",
			Help: "Inbound order lifecycle events by topic and result",
		},
		[]string{"topic", "result"},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_events_published_total",
			Help: "Outbound queue events by topic and result",
		},
		[]string{"topic", "result"},
	)
)

func SetQueueLength(status string, n int) {
	queueLength.WithLabelValues(status).Set(float64(n))
}

func TrackQueueOperation(operation, result string) {
	queueOperations.WithLabelValues(operation, result).Inc()
}

func TrackTokenIssued() {
	tokensIssued.Inc()
}

func ObserveRecalculation(d time.Duration) {
	recalculationDuration.Observe(d.Seconds())
}

func TrackEventConsumed(topic, result string) {
	eventsConsumed.WithLabelValues(topic, result).Inc()
}

func TrackEventPublished(topic, result string) {
	eventsPublished.WithLabelValues(topic, result).Inc()
}
