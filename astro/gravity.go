package astro

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// GravityAt returns the Newtonian acceleration at point (root frame) from
// the listed bodies. Bodies without a mass contribute nothing.
func GravityAt(r *core.Resolver, point mgl64.Vec3, t timectrl.SimTime, bodies ...model.BodyID) (mgl64.Vec3, error) {
	var total mgl64.Vec3
	for _, id := range bodies {
		mass, err := r.Mass(id)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		if mass <= 0 {
			continue
		}
		pose, err := r.WorldPose(id, t)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		d := pose.Position.Sub(point)
		dist := math.Max(d.Len(), minDistanceM)
		total = total.Add(d.Mul(G * mass / (dist * dist * dist)))
	}
	return total, nil
}

// SurfaceGravity returns the reference gravity vector of a body's
// environment at c, in the root frame: toward the centre for radial
// gravity, the configured direction (body frame) for uniform gravity, and
// zero otherwise.
func SurfaceGravity(r *core.Resolver, id model.BodyID, c coord.SphericalCoordinate, t timectrl.SimTime, env model.WorldEnvDescriptor) (mgl64.Vec3, error) {
	switch env.Gravity.Kind {
	case model.GravityRadial:
		up, err := r.LocalUp(id, c, t, env.Space)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		return up.Mul(-env.Gravity.StrengthMS2), nil
	case model.GravityUniform:
		pose, err := r.WorldPose(id, t)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		dir := env.Gravity.Direction
		if dir.Len() == 0 {
			return mgl64.Vec3{}, nil
		}
		return pose.TransformVector(dir.Normalize()).Mul(env.Gravity.StrengthMS2), nil
	default:
		return mgl64.Vec3{}, nil
	}
}
