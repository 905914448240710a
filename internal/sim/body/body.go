// Package body defines the simulated entities and the registry that owns
// their authoritative state.
package body

import (
	"fmt"

	"orrery/internal/sim/orbit"
)

// Kind discriminates the two body variants. Exactly one of the kind-specific
// payloads is set on a Body; Validate enforces it.
type Kind string

const (
	KindPlanet Kind = "planet"
	KindShip   Kind = "ship"
)

// Flight is the free-flight payload of a ship. Position and velocity live
// on the Body itself; the acceleration models constant thrust and is the
// only ship-specific parameter the core integrates.
type Flight struct {
	Acceleration orbit.Vec3
}

// Body is one simulated entity. ID is immutable for the body's lifetime and
// unique within the registry. Planets carry an Orbit and are re-derived
// statelessly each tick; ships carry a Flight and accumulate state through
// numeric integration.
type Body struct {
	ID       string
	Kind     Kind
	Position orbit.Vec3
	Velocity orbit.Vec3

	Orbit  orbit.Orbit // planets only
	Flight *Flight     // ships only
}

// Validate checks the kind/payload invariant.
func (b Body) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("body missing id")
	}
	switch b.Kind {
	case KindPlanet:
		if b.Orbit == nil {
			return fmt.Errorf("planet %q missing orbit parameters", b.ID)
		}
		if b.Flight != nil {
			return fmt.Errorf("planet %q carries free-flight state", b.ID)
		}
	case KindShip:
		if b.Flight == nil {
			return fmt.Errorf("ship %q missing free-flight state", b.ID)
		}
		if b.Orbit != nil {
			return fmt.Errorf("ship %q carries orbit parameters", b.ID)
		}
	default:
		return fmt.Errorf("body %q has unknown kind %q", b.ID, b.Kind)
	}
	return nil
}
