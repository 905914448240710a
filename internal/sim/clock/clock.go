// Package clock owns simulated time and the per-tick state advance.
package clock

import (
	"fmt"
	"math"
	"sync"

	"orrery/pkg/platform/sentinel"
)

// State is the clock lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// Clock is the monotonic simulated-time source. Time advances only through
// Advance while running and is never rewound except by Reset.
type Clock struct {
	mu    sync.RWMutex
	state State
	now   float64 // simulated seconds since epoch
}

// New returns an idle clock at the given epoch offset (usually 0).
func New(epoch float64) *Clock {
	return &Clock{state: StateIdle, now: epoch}
}

// Now returns the current simulated time in seconds.
func (c *Clock) Now() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// State returns the current lifecycle state.
func (c *Clock) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Start moves Idle -> Running.
func (c *Clock) Start() error {
	return c.transition(StateRunning, StateIdle)
}

// Pause moves Running -> Paused.
func (c *Clock) Pause() error {
	return c.transition(StatePaused, StateRunning)
}

// Resume moves Paused -> Running.
func (c *Clock) Resume() error {
	return c.transition(StateRunning, StatePaused)
}

// Stop is terminal and legal from any non-stopped state.
func (c *Clock) Stop() error {
	return c.transition(StateStopped, StateIdle, StateRunning, StatePaused)
}

// Reset returns a stopped or idle clock to epoch zero. The only operation
// allowed to rewind time.
func (c *Clock) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning || c.state == StatePaused {
		return fmt.Errorf("reset while %s: %w", c.state, sentinel.ErrInvalidState)
	}
	c.now = 0
	c.state = StateIdle
	return nil
}

// Advance moves simulated time forward by dt. Only legal while running.
func (c *Clock) Advance(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("dt %v: %w", dt, sentinel.ErrInvalidTimestep)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return fmt.Errorf("advance while %s: %w", c.state, sentinel.ErrInvalidState)
	}
	c.now += dt
	return nil
}

// AdvanceIfRunning atomically checks the state and advances time by dt,
// returning the pre-advance time and whether the advance happened. A clock
// that is not running reports ok=false instead of an error, so a tick that
// races a pause lands as a no-op rather than a failure.
func (c *Clock) AdvanceIfRunning(dt float64) (t0 float64, ok bool, err error) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return 0, false, fmt.Errorf("dt %v: %w", dt, sentinel.ErrInvalidTimestep)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return c.now, false, nil
	}
	t0 = c.now
	c.now += dt
	return t0, true, nil
}

func (c *Clock) transition(to State, from ...State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range from {
		if c.state == f {
			c.state = to
			return nil
		}
	}
	return fmt.Errorf("%s -> %s: %w", c.state, to, sentinel.ErrInvalidState)
}
