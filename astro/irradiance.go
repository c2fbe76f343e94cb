package astro

import (
	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// SurfaceIrradiance is the solar flux reaching a surface point in W/m².
type SurfaceIrradiance struct {
	DirectWm2  float64
	DiffuseWm2 float64
	TotalWm2   float64
}

// SurfaceIrradianceAt evaluates the direct solar flux on a horizontal
// surface at c using the body's up model. The sun below the horizon gives
// zero. Diffuse light is not modelled.
func SurfaceIrradianceAt(r *core.Resolver, world model.BodyID, c coord.SphericalCoordinate, space model.WorldSpace, sun model.BodyID, t timectrl.SimTime) (SurfaceIrradiance, error) {
	up, err := r.LocalUp(world, c, t, space)
	if err != nil {
		return SurfaceIrradiance{}, err
	}
	toSun, err := SunDirection(r, world, c, sun, t)
	if err != nil {
		return SurfaceIrradiance{}, err
	}
	cosZenith := up.Dot(toSun)
	if cosZenith <= 0 {
		return SurfaceIrradiance{}, nil
	}
	direct := SolarConstantWm2 * cosZenith
	return SurfaceIrradiance{DirectWm2: direct, TotalWm2: direct}, nil
}
