package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// SegmentClearsSphere checks whether the straight segment between p1 and p2
// stays outside the sphere of the given radius around centre. Touching the
// sphere counts as blocked.
func SegmentClearsSphere(p1, p2, centre mgl64.Vec3, radius float64) bool {
	a0 := p1.Sub(centre)
	v := p2.Sub(p1)
	r2 := radius * radius
	vv := v.Dot(v)
	if vv == 0 {
		// Degenerate case: same point.
		return a0.Dot(a0) > r2
	}

	// Closest point on the segment to the centre; t* minimises |a0 + t v|².
	t := mgl64.Clamp(-a0.Dot(v)/vv, 0, 1)
	closest := a0.Add(v.Mul(t))
	return closest.Dot(closest) > r2
}

// ElevationDegrees returns the elevation angle of target seen from observer
// with local vertical up, in degrees. 0° = geometric horizon, 90° = overhead.
func ElevationDegrees(observer, up, target mgl64.Vec3) float64 {
	v := target.Sub(observer)
	vNorm := v.Len()
	if vNorm == 0 || up.Len() == 0 {
		return 90
	}
	cosGamma := mgl64.Clamp(v.Dot(up.Normalize())/vNorm, -1, 1)
	return 90 - mgl64.RadToDeg(math.Acos(cosGamma))
}

// LineOfSight reports whether the segment a→b (root-frame metres) clears
// every listed occluding body at t. Occluders without a physical radius are
// an error.
func (r *Resolver) LineOfSight(a, b mgl64.Vec3, t timectrl.SimTime, occluders ...model.BodyID) (bool, error) {
	for _, id := range occluders {
		radius, err := r.PhysicalRadius(id)
		if err != nil {
			return false, err
		}
		pose, err := r.WorldPose(id, t)
		if err != nil {
			return false, err
		}
		if !SegmentClearsSphere(a, b, pose.Position, radius) {
			return false, nil
		}
	}
	return true, nil
}
