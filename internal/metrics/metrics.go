package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bugsignal_deliveries_total",
			Help: "Total number of deliveries by final status.",
		},
		[]string{"status", "destination"},
	)

	AttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bugsignal_attempts_total",
			Help: "Total number of delivery attempts by outcome.",
		},
		[]string{"outcome"},
	)

	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bugsignal_retries_total",
			Help: "Total number of delivery retries by reason.",
		},
		[]string{"reason"}, // e.g. http_5xx, timeout, network, other
	)

	DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bugsignal_delivery_duration_seconds",
			Help:    "Queue-to-completion duration of deliveries.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bugsignal_queue_depth",
			Help: "Number of deliveries waiting in the dispatcher backlog.",
		},
	)

	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bugsignal_inflight_deliveries",
			Help: "Number of deliveries currently in flight.",
		},
	)

	SweptLogsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bugsignal_swept_logs_total",
			Help: "Total number of delivery logs evicted by the retention sweeper.",
		},
	)
)

func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(DeliveriesTotal, AttemptsTotal, RetriesTotal, DeliveryDuration, QueueDepth, InFlight, SweptLogsTotal)
}

// RecordDelivery counts a finished delivery and observes its duration.
func RecordDelivery(status, destination string, d time.Duration) {
	DeliveriesTotal.WithLabelValues(status, destination).Inc()
	DeliveryDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordAttempt counts one HTTP try.
func RecordAttempt(outcome string) {
	AttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordRetry counts a retryable failure by reason.
func RecordRetry(reason string) {
	RetriesTotal.WithLabelValues(reason).Inc()
}

// RecordSwept counts evicted delivery logs.
func RecordSwept(n int) {
	SweptLogsTotal.Add(float64(n))
}
