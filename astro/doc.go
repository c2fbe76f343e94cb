// Package astro derives physical quantities from resolved frame geometry:
// point gravity, tidal potential and acceleration, solar illumination and
// insolation, surface irradiance, local tangent frames, camera projection,
// eclipse classification, atmospheric optics and lunar phase.
//
// Every function is a pure evaluation of a core.Resolver at a given
// simulation time. Orbits are circular (see core.OrbitalModel), so tidal and
// insolation results carry that approximation.
package astro

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
)

const (
	// G is the gravitational constant in m³/(kg·s²).
	G = 6.67430e-11

	// SolarConstantWm2 is the top-of-atmosphere solar flux at 1 AU.
	SolarConstantWm2 = 1361.0

	// minDistanceM floors distances before division.
	minDistanceM = 1.0
)

var (
	ErrMissingMass = errors.New("body mass not set")
	ErrInvalidStep = errors.New("sampling step must be positive")
)

// Perturber is a body whose gravity distorts a surface point. A zero MassKg
// falls back to the mass stored on the body's frame node.
type Perturber struct {
	Body   model.BodyID
	MassKg float64
}

// LunisolarPerturbers returns the Moon and the Sun with their standard masses.
func LunisolarPerturbers(sun, moon model.BodyID) []Perturber {
	return []Perturber{
		{Body: moon, MassKg: core.MoonMassKg},
		{Body: sun, MassKg: core.SunMassKg},
	}
}

func (p Perturber) mass(r *core.Resolver) (float64, error) {
	if p.MassKg > 0 {
		return p.MassKg, nil
	}
	m, err := r.Mass(p.Body)
	if err != nil {
		return 0, err
	}
	if m <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrMissingMass, p.Body)
	}
	return m, nil
}
