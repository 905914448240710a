// Package orbit provides the pure numeric core of the simulator: vector
// algebra, orbit propagation and free-flight kinematics. Nothing in this
// package holds state or performs I/O; position-at-time functions are
// deterministic so planet state can always be re-derived from elements
// alone and never accumulates integration error.
package orbit

import "math"

// Orbit computes a body's position and velocity at an absolute simulation
// time. Implementations must be pure: same t, same result.
type Orbit interface {
	At(t float64) (pos, vel Vec3)
}

// normalizeAngle wraps an angle into [0, 2pi) so phase accumulators stay
// bounded over long runs.
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Circular is the simplified orbit parameterization used by the default
// solar system: uniform motion on a circle of given radius around Center,
// optionally tilted out of the XY plane by Inclination (radians, rotation
// about the X axis).
type Circular struct {
	Center       Vec3
	Radius       float64
	AngularSpeed float64 // radians per simulated second
	Phase        float64 // angle at t=0, radians
	Inclination  float64 // radians
}

// At returns position and the analytic velocity at time t.
func (c Circular) At(t float64) (Vec3, Vec3) {
	theta := normalizeAngle(c.AngularSpeed*t + c.Phase)
	sin, cos := math.Sincos(theta)
	sinI, cosI := math.Sincos(c.Inclination)

	pos := Vec3{
		X: c.Radius * cos,
		Y: c.Radius * sin * cosI,
		Z: c.Radius * sin * sinI,
	}

	// d/dt of the position above.
	w := c.AngularSpeed
	vel := Vec3{
		X: -c.Radius * w * sin,
		Y: c.Radius * w * cos * cosI,
		Z: c.Radius * w * cos * sinI,
	}

	return c.Center.Add(pos), vel
}

// Period returns the orbital period, or 0 when the body is stationary.
func (c Circular) Period() float64 {
	if c.AngularSpeed == 0 {
		return 0
	}
	return 2 * math.Pi / math.Abs(c.AngularSpeed)
}
