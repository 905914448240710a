// Package engine runs the simulation loop: advance the clock, step every
// body, hand the tick's results to the publisher.
package engine

import (
	"context"
	"log/slog"
	"time"

	"orrery/internal/publish"
	"orrery/internal/sim/body"
	"orrery/internal/sim/clock"
)

// Engine paces the simulation against wall time. Each tick applies a fixed
// simulated timestep, so wall-clock pacing never changes trajectories.
type Engine struct {
	registry  *body.Registry
	clock     *clock.Clock
	stepper   *clock.Stepper
	publisher *publish.Publisher
	logger    *slog.Logger

	interval time.Duration
	dt       float64
}

// Option configures the Engine.
type Option func(*Engine)

// WithInterval sets the wall-clock spacing between ticks.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithDT sets the simulated seconds applied per tick.
func WithDT(dt float64) Option {
	return func(e *Engine) { e.dt = dt }
}

// New assembles the loop. Defaults: one tick per wall second, one simulated
// second per tick.
func New(registry *body.Registry, c *clock.Clock, s *clock.Stepper, p *publish.Publisher, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		registry:  registry,
		clock:     c,
		stepper:   s,
		publisher: p,
		logger:    logger,
		interval:  time.Second,
		dt:        1.0,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pause suspends ticking. The clock holds its value until Resume.
func (e *Engine) Pause() error { return e.clock.Pause() }

// Resume continues ticking after a Pause.
func (e *Engine) Resume() error { return e.clock.Resume() }

// Start transitions the clock to running and publishes the initial state
// of every body at the current simulated time, so subscribers see t=0
// before the first tick lands.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.clock.Start(); err != nil {
		return err
	}
	snapshot := e.registry.Snapshot(ctx)
	e.publisher.PublishTick(ctx, snapshot, e.clock.Now())
	e.logger.InfoContext(ctx, "simulation started",
		"bodies", len(snapshot), "dt", e.dt, "interval", e.interval)
	return nil
}

// Tick performs one simulation step: advance the clock by dt, recompute
// every body from the pre-tick time, publish the results. A paused clock
// makes Tick a no-op, even when the pause lands mid-tick.
func (e *Engine) Tick(ctx context.Context) error {
	t0, ok, err := e.clock.AdvanceIfRunning(e.dt)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	advanced, err := e.stepper.Step(ctx, t0, e.dt)
	if err != nil {
		return err
	}

	e.publisher.PublishTick(ctx, advanced, t0+e.dt)
	return nil
}

// Run drives Tick on a wall-clock ticker until ctx is cancelled, then
// stops the clock. Returns the first tick error, if any.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := e.clock.Stop(); err != nil {
				e.logger.Warn("clock stop failed", "error", err)
			}
			e.logger.Info("simulation stopped", "sim_time", e.clock.Now())
			return nil
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				return err
			}
		}
	}
}
