package state

import (
	"context"
	"log/slog"

	"orrery/internal/publish"
	"orrery/pkg/platform/circuit"
)

// Mirror is the publisher-facing snapshot sink. Every update lands in the
// in-memory store; when a secondary store (Redis) is configured, writes are
// mirrored there behind a circuit breaker so a dead mirror never slows the
// publish path down.
type Mirror struct {
	primary   *MemoryStore
	secondary Store
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures the Mirror.
type Option func(*Mirror)

// WithSecondary mirrors writes into an external store.
func WithSecondary(s Store, b *circuit.Breaker) Option {
	return func(m *Mirror) {
		m.secondary = s
		m.breaker = b
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(mx *Metrics) Option {
	return func(m *Mirror) { m.metrics = mx }
}

// NewMirror creates a snapshot mirror over a fresh in-memory store.
func NewMirror(logger *slog.Logger, opts ...Option) *Mirror {
	m := &Mirror{
		primary: NewMemoryStore(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetLatest records the update. The in-memory write cannot fail; the
// secondary write is best effort and circuit-breaker guarded.
func (m *Mirror) SetLatest(ctx context.Context, u publish.PositionUpdate) {
	_ = m.primary.SetLatest(ctx, u)

	if m.secondary == nil {
		return
	}
	if m.breaker != nil && !m.breaker.Allow() {
		if m.metrics != nil {
			m.metrics.MirrorSkipped.Inc()
		}
		return
	}

	if err := m.secondary.SetLatest(ctx, u); err != nil {
		if m.breaker != nil {
			m.breaker.RecordFailure()
		}
		if m.metrics != nil {
			m.metrics.MirrorFailures.Inc()
			if m.breaker != nil {
				m.metrics.SetMirrorCircuitOpen(m.breaker.IsOpen())
			}
		}
		m.logger.WarnContext(ctx, "snapshot mirror write failed", "id", u.ID, "error", err)
		return
	}
	if m.breaker != nil {
		m.breaker.RecordSuccess()
	}
	if m.metrics != nil {
		m.metrics.SetMirrorCircuitOpen(false)
	}
}

// Latest serves reads from the in-memory store.
func (m *Mirror) Latest(ctx context.Context, id string) (publish.PositionUpdate, error) {
	return m.primary.Latest(ctx, id)
}

// List serves reads from the in-memory store.
func (m *Mirror) List(ctx context.Context) ([]publish.PositionUpdate, error) {
	return m.primary.List(ctx)
}
