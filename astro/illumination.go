package astro

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// SunDirection returns the unit vector from the surface anchor c on body
// world toward the origin of body sun.
func SunDirection(r *core.Resolver, world model.BodyID, c coord.SphericalCoordinate, sun model.BodyID, t timectrl.SimTime) (mgl64.Vec3, error) {
	anchor, err := r.AnchorPoint(world, c, t)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	sunPose, err := r.WorldPose(sun, t)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return safeNormalize(sunPose.Position.Sub(anchor)), nil
}

// SolarIllumination returns the instantaneous relative illumination at c:
// max(n̂·ŝ, 0)/d², with d the anchor-to-sun distance floored at one metre.
// The unit is arbitrary but proportional to received flux.
func SolarIllumination(r *core.Resolver, world model.BodyID, c coord.SphericalCoordinate, sun model.BodyID, t timectrl.SimTime) (float64, error) {
	anchor, err := r.AnchorPoint(world, c, t)
	if err != nil {
		return 0, err
	}
	n, err := r.SurfaceNormal(world, c, t)
	if err != nil {
		return 0, err
	}
	sunPose, err := r.WorldPose(sun, t)
	if err != nil {
		return 0, err
	}
	toSun := sunPose.Position.Sub(anchor)
	dist := math.Max(toSun.Len(), minDistanceM)
	cosIncidence := math.Max(n.Dot(toSun.Mul(1/dist)), 0)
	return cosIncidence / (dist * dist), nil
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}
