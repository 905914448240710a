package clock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orrery/internal/sim/body"
	"orrery/internal/sim/orbit"
	"orrery/pkg/platform/sentinel"
)

// Stepper recomputes every body's state for one tick. All bodies advance
// from the same pre-tick time snapshot with the same dt, so there is no
// intra-tick ordering dependency between them.
type Stepper struct {
	registry   *body.Registry
	integrator orbit.Integrator
	logger     *slog.Logger
	metrics    *Metrics
}

// Option configures the Stepper.
type Option func(*Stepper)

// WithIntegrator swaps the free-flight integration scheme.
func WithIntegrator(i orbit.Integrator) Option {
	return func(s *Stepper) { s.integrator = i }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(s *Stepper) { s.metrics = m }
}

// NewStepper creates a stepper over the given registry. The default
// integrator is the explicit kinematic step.
func NewStepper(registry *body.Registry, logger *slog.Logger, opts ...Option) *Stepper {
	s := &Stepper{
		registry:   registry,
		integrator: orbit.Kinematic{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Step advances every body from pre-tick time t0 by dt and writes results
// back to the registry. It returns the post-tick state of every body that
// advanced successfully, sorted by id.
//
// A numeric failure on one body skips that body for the tick (counted and
// logged) and never aborts the rest of the tick.
func (s *Stepper) Step(ctx context.Context, t0, dt float64) ([]body.Body, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("dt %v: %w", dt, sentinel.ErrInvalidTimestep)
	}

	start := time.Now()
	snapshot := s.registry.Snapshot(ctx)
	advanced := make([]body.Body, 0, len(snapshot))

	for _, b := range snapshot {
		pos, vel, err := s.advance(b, t0, dt)
		if err != nil {
			if s.metrics != nil {
				s.metrics.BodiesSkipped.Inc()
			}
			s.logger.WarnContext(ctx, "body skipped for tick",
				"id", b.ID, "kind", b.Kind, "t", t0+dt, "error", err)
			continue
		}
		if err := s.registry.UpdatePosition(ctx, b.ID, pos, vel); err != nil {
			// Body removed mid-tick; nothing to publish for it.
			continue
		}
		b.Position = pos
		b.Velocity = vel
		advanced = append(advanced, b)
	}

	if s.metrics != nil {
		s.metrics.TicksTotal.Inc()
		s.metrics.TickDuration.Observe(time.Since(start).Seconds())
		s.metrics.SimulationTime.Set(t0 + dt)
		s.metrics.BodiesSimulated.Set(float64(len(snapshot)))
	}
	return advanced, nil
}

func (s *Stepper) advance(b body.Body, t0, dt float64) (orbit.Vec3, orbit.Vec3, error) {
	switch b.Kind {
	case body.KindPlanet:
		// Stateless re-derivation at absolute time: planets never
		// accumulate integration error.
		pos, vel := b.Orbit.At(t0 + dt)
		if !pos.IsFinite() || !vel.IsFinite() {
			return orbit.Vec3{}, orbit.Vec3{}, fmt.Errorf("orbit at t=%v: %w", t0+dt, sentinel.ErrNumericFailure)
		}
		return pos, vel, nil
	case body.KindShip:
		return s.integrator.Step(b.Position, b.Velocity, b.Flight.Acceleration, dt)
	default:
		return orbit.Vec3{}, orbit.Vec3{}, fmt.Errorf("unknown kind %q: %w", b.Kind, sentinel.ErrNumericFailure)
	}
}
