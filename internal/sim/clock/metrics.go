package clock

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the stepper.
type Metrics struct {
	TicksTotal      prometheus.Counter
	BodiesSkipped   prometheus.Counter
	TickDuration    prometheus.Histogram
	SimulationTime  prometheus.Gauge
	BodiesSimulated prometheus.Gauge
}

// NewMetrics creates and registers the stepper metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		TicksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orrery_sim_ticks_total",
			Help: "Total number of completed simulation ticks",
		}),
		BodiesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orrery_sim_bodies_skipped_total",
			Help: "Total number of per-tick body updates skipped due to numeric failures",
		}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "orrery_sim_tick_duration_seconds",
			Help:    "Wall-clock duration of one simulation tick",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		SimulationTime: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_sim_time_seconds",
			Help: "Current simulated time in seconds since epoch",
		}),
		BodiesSimulated: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_sim_bodies",
			Help: "Number of bodies currently registered",
		}),
	}
}
