package astro

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// LunarPhaseResult describes the lit portion of a moon.
type LunarPhaseResult struct {
	// PhaseAngleRad is the sun-moon-observer angle: 0 full, π new.
	PhaseAngleRad float64
	// IlluminatedFraction is in [0, 1].
	IlluminatedFraction float64
}

func phaseFrom(moon, sun, observer mgl64.Vec3) LunarPhaseResult {
	toSun := safeNormalize(sun.Sub(moon))
	toObs := safeNormalize(observer.Sub(moon))
	cosPhi := mgl64.Clamp(toSun.Dot(toObs), -1, 1)
	return LunarPhaseResult{
		PhaseAngleRad:       math.Acos(cosPhi),
		IlluminatedFraction: 0.5 * (1 + cosPhi),
	}
}

// LunarPhase returns the phase of moon as seen from the centre of planet.
func LunarPhase(r *core.Resolver, moon, sun, planet model.BodyID, t timectrl.SimTime) (LunarPhaseResult, error) {
	var pos [3]mgl64.Vec3
	for i, id := range []model.BodyID{moon, sun, planet} {
		p, err := r.WorldPose(id, t)
		if err != nil {
			return LunarPhaseResult{}, err
		}
		pos[i] = p.Position
	}
	return phaseFrom(pos[0], pos[1], pos[2]), nil
}

// ObserverLunarPhaseFraction returns the illuminated fraction of moon seen
// from the surface point c on body observer.
func ObserverLunarPhaseFraction(r *core.Resolver, observer model.BodyID, c coord.SphericalCoordinate, moon, sun model.BodyID, t timectrl.SimTime) (float64, error) {
	eye, err := r.AnchorPoint(observer, c, t)
	if err != nil {
		return 0, err
	}
	m, err := r.WorldPose(moon, t)
	if err != nil {
		return 0, err
	}
	s, err := r.WorldPose(sun, t)
	if err != nil {
		return 0, err
	}
	return phaseFrom(m.Position, s.Position, eye).IlluminatedFraction, nil
}
