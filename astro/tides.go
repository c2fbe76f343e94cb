package astro

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// BodyScalar is one perturber's contribution to a scalar sum.
type BodyScalar struct {
	Body  model.BodyID
	Value float64
}

// BodyVector is one perturber's contribution to a vector sum.
type BodyVector struct {
	Body  model.BodyID
	Value mgl64.Vec3
}

// TidalPotentialResult holds per-perturber tidal potentials (m²/s²) and their sum.
type TidalPotentialResult struct {
	Bodies []BodyScalar
	Total  float64
}

// TidalAccelerationResult holds per-perturber tidal accelerations (m/s²) in
// the root frame and their sum.
type TidalAccelerationResult struct {
	Bodies []BodyVector
	Total  mgl64.Vec3
}

// tideGeometry is the shared geometry of a surface anchor and a perturber:
// the scale GM/r³, the unit vector toward the perturber, the world surface
// normal and cos θ between them.
type tideGeometry struct {
	factor   float64
	rHat     mgl64.Vec3
	nHat     mgl64.Vec3
	cosTheta float64
}

func tideAt(r *core.Resolver, surface model.BodyID, c coord.SphericalCoordinate, p Perturber, t timectrl.SimTime) (tideGeometry, error) {
	mass, err := p.mass(r)
	if err != nil {
		return tideGeometry{}, err
	}
	anchor, err := r.AnchorPoint(surface, c, t)
	if err != nil {
		return tideGeometry{}, err
	}
	nHat, err := r.SurfaceNormal(surface, c, t)
	if err != nil {
		return tideGeometry{}, err
	}
	body, err := r.WorldPose(p.Body, t)
	if err != nil {
		return tideGeometry{}, err
	}

	rVec := body.Position.Sub(anchor)
	dist := math.Max(rVec.Len(), minDistanceM)
	rHat := rVec.Mul(1 / dist)
	return tideGeometry{
		factor:   G * mass / (dist * dist * dist),
		rHat:     rHat,
		nHat:     nHat,
		cosTheta: mgl64.Clamp(nHat.Dot(rHat), -1, 1),
	}, nil
}

// TidalPotential sums GM/r³ · ½(3cos²θ − 1) over the perturbers at the
// surface point c of body surface.
func TidalPotential(r *core.Resolver, surface model.BodyID, c coord.SphericalCoordinate, t timectrl.SimTime, perturbers []Perturber) (TidalPotentialResult, error) {
	var res TidalPotentialResult
	for _, p := range perturbers {
		g, err := tideAt(r, surface, c, p, t)
		if err != nil {
			return TidalPotentialResult{}, err
		}
		v := g.factor * 0.5 * (3*g.cosTheta*g.cosTheta - 1)
		res.Bodies = append(res.Bodies, BodyScalar{Body: p.Body, Value: v})
		res.Total += v
	}
	return res, nil
}

// TidalAcceleration sums GM/r³ · (3cosθ·r̂ − n̂) over the perturbers.
func TidalAcceleration(r *core.Resolver, surface model.BodyID, c coord.SphericalCoordinate, t timectrl.SimTime, perturbers []Perturber) (TidalAccelerationResult, error) {
	var res TidalAccelerationResult
	for _, p := range perturbers {
		g, err := tideAt(r, surface, c, p, t)
		if err != nil {
			return TidalAccelerationResult{}, err
		}
		a := g.rHat.Mul(3 * g.cosTheta).Sub(g.nHat).Mul(g.factor)
		res.Bodies = append(res.Bodies, BodyVector{Body: p.Body, Value: a})
		res.Total = res.Total.Add(a)
	}
	return res, nil
}

// TangentialTidalAcceleration returns the surface-parallel part of the
// summed tidal acceleration: a − (a·n̂)n̂.
func TangentialTidalAcceleration(r *core.Resolver, surface model.BodyID, c coord.SphericalCoordinate, t timectrl.SimTime, perturbers []Perturber) (mgl64.Vec3, error) {
	acc, err := TidalAcceleration(r, surface, c, t, perturbers)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	n, err := r.SurfaceNormal(surface, c, t)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return ProjectToTangent(acc.Total, n), nil
}

// ProjectToTangent removes the component of v along the unit normal n.
func ProjectToTangent(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(n.Mul(v.Dot(n)))
}
