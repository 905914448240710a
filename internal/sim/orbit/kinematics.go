package orbit

import (
	"fmt"
	"math"

	"orrery/pkg/platform/sentinel"
)

// Integrator advances free-flight state by one timestep. The interface
// exists so the stepping scheme can be swapped without touching the clock.
type Integrator interface {
	Step(pos, vel, acc Vec3, dt float64) (Vec3, Vec3, error)
}

// Kinematic is the default integrator: the explicit constant-acceleration
// step
//
//	p' = p + v*dt + 0.5*a*dt^2
//	v' = v + a*dt
//
// Exact for piecewise-constant acceleration, which is all ships model; for
// anything fancier swap in a higher-order scheme behind Integrator.
type Kinematic struct{}

// Step advances one timestep. dt must be positive and finite.
func (Kinematic) Step(pos, vel, acc Vec3, dt float64) (Vec3, Vec3, error) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return Vec3{}, Vec3{}, fmt.Errorf("dt %v: %w", dt, sentinel.ErrInvalidTimestep)
	}

	next := pos.Add(vel.Scale(dt)).Add(acc.Scale(0.5 * dt * dt))
	nextVel := vel.Add(acc.Scale(dt))

	if !next.IsFinite() || !nextVel.IsFinite() {
		return Vec3{}, Vec3{}, fmt.Errorf("free-flight step: %w", sentinel.ErrNumericFailure)
	}
	return next, nextVel, nil
}
