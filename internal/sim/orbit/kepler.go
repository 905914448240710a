package orbit

import "math"

// Elements is a classical Keplerian element set with angles in radians.
// MeanMotion fixes the time scale directly instead of deriving it from a
// gravitational parameter, which keeps the scene units free.
type Elements struct {
	SemiMajorAxis float64 // scene units
	Eccentricity  float64 // 0 <= e < 1
	Inclination   float64 // radians
	AscendingNode float64 // longitude of ascending node, radians
	ArgPeriapsis  float64 // argument of periapsis, radians
	MeanAnomaly0  float64 // mean anomaly at t=0, radians
	MeanMotion    float64 // radians per simulated second
}

// solveKepler solves Kepler's equation M = E - e*sin(E) for the eccentric
// anomaly using a Danby starter and Newton-Raphson refinement.
func solveKepler(m, e float64) float64 {
	m = normalizeAngle(m)
	eAnom := m + e*math.Sin(m)*(1.0+e*math.Cos(m))
	for range 15 {
		f := eAnom - e*math.Sin(eAnom) - m
		if math.Abs(f) < 1e-14 {
			break
		}
		eAnom -= f / (1.0 - e*math.Cos(eAnom))
	}
	return normalizeAngle(eAnom)
}

// At returns the heliocentric position at time t, with velocity estimated
// by a central finite difference. The analytic velocity of an eccentric
// orbit is not worth the extra surface here; the difference step is tiny
// relative to any orbital period the simulator runs.
func (el Elements) At(t float64) (Vec3, Vec3) {
	const h = 1e-3
	pos := el.positionAt(t)
	vel := el.positionAt(t+h).Sub(el.positionAt(t-h)).Scale(1 / (2 * h))
	return pos, vel
}

func (el Elements) positionAt(t float64) Vec3 {
	m := normalizeAngle(el.MeanAnomaly0 + el.MeanMotion*t)
	eAnom := solveKepler(m, el.Eccentricity)

	// True anomaly from the eccentric anomaly.
	nu := 2.0 * math.Atan2(
		math.Sqrt(1.0+el.Eccentricity)*math.Sin(eAnom/2.0),
		math.Sqrt(1.0-el.Eccentricity)*math.Cos(eAnom/2.0),
	)

	// Distance from the focus.
	r := el.SemiMajorAxis * (1.0 - el.Eccentricity*math.Cos(eAnom))

	// Position in the orbital plane.
	xOrb := r * math.Cos(nu)
	yOrb := r * math.Sin(nu)

	// Rotate by argument of periapsis, inclination, ascending node.
	sinW, cosW := math.Sincos(el.ArgPeriapsis)
	x1 := xOrb*cosW - yOrb*sinW
	y1 := xOrb*sinW + yOrb*cosW

	sinI, cosI := math.Sincos(el.Inclination)
	y2 := y1 * cosI
	z2 := y1 * sinI

	sinN, cosN := math.Sincos(el.AscendingNode)
	return Vec3{
		X: x1*cosN - y2*sinN,
		Y: x1*sinN + y2*cosN,
		Z: z2,
	}
}
