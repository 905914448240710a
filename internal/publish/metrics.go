package publish

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the position publisher.
type Metrics struct {
	Published       *prometheus.CounterVec
	EnqueueFailures prometheus.Counter
	EncodeFailures  prometheus.Counter
}

// NewMetrics creates and registers the publisher metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orrery_publish_updates_total",
			Help: "Total number of position updates handed to the broker queue",
		}, []string{"topic"}),
		EnqueueFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orrery_publish_enqueue_failures_total",
			Help: "Total number of position updates rejected by the broker queue",
		}),
		EncodeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orrery_publish_encode_failures_total",
			Help: "Total number of position updates that failed to serialize",
		}),
	}
}
