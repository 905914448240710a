// Package scenario builds the initial body set from a YAML definition file
// or, when none is configured, from the built-in default solar system.
// Contract with the rest of the system: produce a validated id-to-body
// mapping before the first tick, or fail fast with a configuration error.
package scenario

import (
	"fmt"
	"math"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"orrery/internal/sim/body"
	"orrery/internal/sim/orbit"
)

// File is the on-disk scenario shape.
type File struct {
	Planets []PlanetDef `yaml:"planets"`
	Ships   []ShipDef   `yaml:"ships"`
}

// PlanetDef describes a planet. Either the circular parameterization
// (radius plus period or angular speed) or a full Keplerian element set.
type PlanetDef struct {
	ID             string  `yaml:"id"`
	Radius         float64 `yaml:"radius"`
	PeriodSeconds  float64 `yaml:"period_seconds"`
	AngularSpeed   float64 `yaml:"angular_speed"`
	PhaseDeg       float64 `yaml:"phase_deg"`
	InclinationDeg float64 `yaml:"inclination_deg"`

	Keplerian *KeplerianDef `yaml:"keplerian"`
}

// KeplerianDef is the six-element orbit parameterization, angles in degrees.
type KeplerianDef struct {
	SemiMajorAxis    float64 `yaml:"semi_major_axis"`
	Eccentricity     float64 `yaml:"eccentricity"`
	InclinationDeg   float64 `yaml:"inclination_deg"`
	AscendingNodeDeg float64 `yaml:"ascending_node_deg"`
	ArgPeriapsisDeg  float64 `yaml:"arg_periapsis_deg"`
	MeanAnomalyDeg   float64 `yaml:"mean_anomaly_deg"`
	PeriodSeconds    float64 `yaml:"period_seconds"`
}

// ShipDef describes a free-flight ship. A missing id gets a fresh UUID.
type ShipDef struct {
	ID           string     `yaml:"id"`
	Position     [3]float64 `yaml:"position"`
	Velocity     [3]float64 `yaml:"velocity"`
	Acceleration [3]float64 `yaml:"acceleration"`
}

// Load reads and validates a scenario file.
func Load(path string) ([]body.Body, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return f.Build()
}

// Default returns the built-in solar system: five planets on circular
// orbits with one simulated minute per Earth year, and no ships.
func Default() []body.Body {
	defs := []PlanetDef{
		{ID: "mercury", Radius: 50, PeriodSeconds: 0.24 * 60},
		{ID: "venus", Radius: 70, PeriodSeconds: 0.62 * 60},
		{ID: "earth", Radius: 90, PeriodSeconds: 1.0 * 60},
		{ID: "mars", Radius: 110, PeriodSeconds: 1.88 * 60},
		{ID: "jupiter", Radius: 150, PeriodSeconds: 11.86 * 60},
	}

	bodies := make([]body.Body, 0, len(defs))
	for _, def := range defs {
		b, err := def.build()
		if err != nil {
			// Static definitions above; cannot fail.
			panic(err)
		}
		bodies = append(bodies, b)
	}
	return bodies
}

// Build validates the definitions and constructs bodies with their state
// at simulated time zero.
func (f File) Build() ([]body.Body, error) {
	seen := make(map[string]struct{})
	bodies := make([]body.Body, 0, len(f.Planets)+len(f.Ships))

	for _, def := range f.Planets {
		b, err := def.build()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[b.ID]; dup {
			return nil, fmt.Errorf("scenario: duplicate body id %q", b.ID)
		}
		seen[b.ID] = struct{}{}
		bodies = append(bodies, b)
	}

	for _, def := range f.Ships {
		b := def.build()
		if _, dup := seen[b.ID]; dup {
			return nil, fmt.Errorf("scenario: duplicate body id %q", b.ID)
		}
		seen[b.ID] = struct{}{}
		bodies = append(bodies, b)
	}

	return bodies, nil
}

func (d PlanetDef) build() (body.Body, error) {
	if d.ID == "" {
		return body.Body{}, fmt.Errorf("scenario: planet missing id")
	}

	var o orbit.Orbit
	switch {
	case d.Keplerian != nil:
		k := d.Keplerian
		if k.SemiMajorAxis <= 0 {
			return body.Body{}, fmt.Errorf("scenario: planet %q semi-major axis must be positive", d.ID)
		}
		if k.Eccentricity < 0 || k.Eccentricity >= 1 {
			return body.Body{}, fmt.Errorf("scenario: planet %q eccentricity must be in [0,1)", d.ID)
		}
		if k.PeriodSeconds <= 0 {
			return body.Body{}, fmt.Errorf("scenario: planet %q period must be positive", d.ID)
		}
		o = orbit.Elements{
			SemiMajorAxis: k.SemiMajorAxis,
			Eccentricity:  k.Eccentricity,
			Inclination:   degToRad(k.InclinationDeg),
			AscendingNode: degToRad(k.AscendingNodeDeg),
			ArgPeriapsis:  degToRad(k.ArgPeriapsisDeg),
			MeanAnomaly0:  degToRad(k.MeanAnomalyDeg),
			MeanMotion:    2 * math.Pi / k.PeriodSeconds,
		}
	default:
		if d.Radius <= 0 {
			return body.Body{}, fmt.Errorf("scenario: planet %q radius must be positive", d.ID)
		}
		w := d.AngularSpeed
		if w == 0 {
			if d.PeriodSeconds <= 0 {
				return body.Body{}, fmt.Errorf("scenario: planet %q needs period_seconds or angular_speed", d.ID)
			}
			w = 2 * math.Pi / d.PeriodSeconds
		}
		o = orbit.Circular{
			Radius:       d.Radius,
			AngularSpeed: w,
			Phase:        degToRad(d.PhaseDeg),
			Inclination:  degToRad(d.InclinationDeg),
		}
	}

	pos, vel := o.At(0)
	return body.Body{
		ID:       d.ID,
		Kind:     body.KindPlanet,
		Position: pos,
		Velocity: vel,
		Orbit:    o,
	}, nil
}

func (d ShipDef) build() body.Body {
	id := d.ID
	if id == "" {
		id = uuid.NewString()
	}
	return body.Body{
		ID:       id,
		Kind:     body.KindShip,
		Position: vec(d.Position),
		Velocity: vec(d.Velocity),
		Flight:   &body.Flight{Acceleration: vec(d.Acceleration)},
	}
}

func vec(a [3]float64) orbit.Vec3 {
	return orbit.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
