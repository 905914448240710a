package broker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the producer queue and worker.
type Metrics struct {
	Delivered        prometheus.Counter
	DeliveryFailures prometheus.Counter
	Retries          prometheus.Counter
	Dropped          prometheus.Counter
	QueueDepth       prometheus.Gauge
}

// NewMetrics creates and registers the broker metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Delivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orrery_broker_delivered_total",
			Help: "Total number of records acknowledged by the broker",
		}),
		DeliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orrery_broker_delivery_failures_total",
			Help: "Total number of records that exhausted the retry budget",
		}),
		Retries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orrery_broker_retries_total",
			Help: "Total number of produce retries",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orrery_broker_dropped_total",
			Help: "Total number of records dropped because the publish queue was full",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_broker_queue_depth",
			Help: "Current number of records waiting in the publish queue",
		}),
	}
}
