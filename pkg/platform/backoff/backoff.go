// Package backoff implements bounded exponential backoff as an explicit
// state machine. Callers walk attempts with Next rather than recursing, so
// retry budgets stay inspectable and testable.
package backoff

import "time"

// Policy describes a bounded exponential backoff schedule.
type Policy struct {
	Initial     time.Duration // delay before the second attempt
	Max         time.Duration // cap on any single delay
	Multiplier  float64       // growth factor between attempts
	MaxAttempts int           // total attempts allowed, including the first
}

// DefaultPolicy is tuned for transient broker hiccups: five attempts over
// roughly three seconds.
var DefaultPolicy = Policy{
	Initial:     100 * time.Millisecond,
	Max:         2 * time.Second,
	Multiplier:  2.0,
	MaxAttempts: 5,
}

func (p Policy) normalized() Policy {
	if p.Initial <= 0 {
		p.Initial = DefaultPolicy.Initial
	}
	if p.Max <= 0 {
		p.Max = DefaultPolicy.Max
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultPolicy.Multiplier
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	return p
}

// State tracks progress through a Policy for a single operation.
// Not safe for concurrent use; each retried operation owns its own State.
type State struct {
	policy  Policy
	attempt int
	delay   time.Duration
}

// Start begins a retry sequence. The first attempt has already been made by
// the caller when Next is first consulted.
func (p Policy) Start() *State {
	np := p.normalized()
	return &State{policy: np, attempt: 1, delay: np.Initial}
}

// Next returns the delay to wait before the next attempt. ok is false once
// the attempt budget is exhausted, at which point the operation must fail.
func (s *State) Next() (delay time.Duration, ok bool) {
	if s.attempt >= s.policy.MaxAttempts {
		return 0, false
	}
	delay = s.delay
	s.attempt++
	next := time.Duration(float64(s.delay) * s.policy.Multiplier)
	if next > s.policy.Max {
		next = s.policy.Max
	}
	s.delay = next
	return delay, true
}

// Attempt reports how many attempts have been started.
func (s *State) Attempt() int {
	return s.attempt
}
