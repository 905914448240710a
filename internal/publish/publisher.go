package publish

import (
	"context"
	"log/slog"

	"orrery/internal/publish/broker"
	"orrery/internal/sim/body"
)

// Producer is the slice of the broker client the publisher needs.
type Producer interface {
	Enqueue(ctx context.Context, rec broker.Record) error
}

// SnapshotSink receives the latest update per body for read-side queries.
// Optional; failures are the sink's own concern.
type SnapshotSink interface {
	SetLatest(ctx context.Context, u PositionUpdate)
}

// Topics names the destination topic per body kind.
type Topics struct {
	Planets string
	Ships   string
}

// DefaultTopics matches the reference deployment.
var DefaultTopics = Topics{
	Planets: "planet-positions",
	Ships:   "ship-positions",
}

// ForKind returns the topic for a body kind.
func (t Topics) ForKind(k body.Kind) string {
	if k == body.KindShip {
		return t.Ships
	}
	return t.Planets
}

// Publisher drains tick results into the broker queue, one update per body
// per tick, keyed by body id and routed by kind. It never drops an update
// silently: every failure is counted and logged.
type Publisher struct {
	producer Producer
	topics   Topics
	sink     SnapshotSink
	logger   *slog.Logger
	metrics  *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithTopics overrides the destination topics.
func WithTopics(t Topics) Option {
	return func(p *Publisher) { p.topics = t }
}

// WithSnapshotSink mirrors each update into a latest-state store.
func WithSnapshotSink(s SnapshotSink) Option {
	return func(p *Publisher) { p.sink = s }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// New creates a publisher over the given producer.
func New(producer Producer, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topics:   DefaultTopics,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishTick emits one PositionUpdate per body at the given simulated
// time. Per-body failures are isolated: encoding or enqueue trouble on one
// body never blocks the rest of the tick's updates.
func (p *Publisher) PublishTick(ctx context.Context, bodies []body.Body, simTime float64) {
	for _, b := range bodies {
		u := NewUpdate(b, simTime)

		payload, err := u.Encode()
		if err != nil {
			if p.metrics != nil {
				p.metrics.EncodeFailures.Inc()
			}
			p.logger.ErrorContext(ctx, "update encoding failed", "id", b.ID, "error", err)
			continue
		}

		topic := p.topics.ForKind(b.Kind)
		err = p.producer.Enqueue(ctx, broker.Record{
			Topic: topic,
			Key:   b.ID,
			Value: payload,
		})
		if err != nil {
			if p.metrics != nil {
				p.metrics.EnqueueFailures.Inc()
			}
			p.logger.WarnContext(ctx, "update enqueue failed",
				"id", b.ID, "topic", topic, "error", err)
			continue
		}

		if p.metrics != nil {
			p.metrics.Published.WithLabelValues(topic).Inc()
		}
		if p.sink != nil {
			p.sink.SetLatest(ctx, u)
		}
	}
}
