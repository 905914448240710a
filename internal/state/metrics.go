package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the snapshot mirror.
type Metrics struct {
	MirrorFailures    prometheus.Counter
	MirrorSkipped     prometheus.Counter
	MirrorCircuitOpen prometheus.Gauge
}

// NewMetrics creates and registers the snapshot mirror metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		MirrorFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orrery_state_mirror_failures_total",
			Help: "Total number of failed snapshot writes to the external mirror",
		}),
		MirrorSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orrery_state_mirror_skipped_total",
			Help: "Total number of snapshot writes skipped while the mirror circuit was open",
		}),
		MirrorCircuitOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_state_mirror_circuit_open",
			Help: "Whether the mirror circuit breaker is open (1) or closed (0)",
		}),
	}
}

// SetMirrorCircuitOpen sets the circuit state gauge.
func (m *Metrics) SetMirrorCircuitOpen(open bool) {
	if open {
		m.MirrorCircuitOpen.Set(1)
	} else {
		m.MirrorCircuitOpen.Set(0)
	}
}
