package astro

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// ENUFrame is an orthonormal east/north/up triad in the root frame.
type ENUFrame struct {
	East  mgl64.Vec3
	North mgl64.Vec3
	Up    mgl64.Vec3
}

// Project returns v expressed in the frame as (east, north, up).
func (f ENUFrame) Project(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.Dot(f.East), v.Dot(f.North), v.Dot(f.Up)}
}

// LocalTangentFrame is an ENU triad anchored at a surface point.
type LocalTangentFrame struct {
	Origin mgl64.Vec3
	ENU    ENUFrame
}

// ENU builds the east/north/up frame at c. Up points from the body centre
// to the anchor; east is the body's spin axis crossed with up. At the poles
// east is undefined and coord.ErrSingularCoordinate is returned.
func ENU(r *core.Resolver, id model.BodyID, c coord.SphericalCoordinate, t timectrl.SimTime) (LocalTangentFrame, error) {
	return tangentFrame(r, id, c, t, nil)
}

// SpaceENU is ENU with up taken from the body's up model, so axial worlds
// get a tangent frame aligned with their fixed axis.
func SpaceENU(r *core.Resolver, id model.BodyID, c coord.SphericalCoordinate, t timectrl.SimTime, space model.WorldSpace) (LocalTangentFrame, error) {
	up, err := r.LocalUp(id, c, t, space)
	if err != nil {
		return LocalTangentFrame{}, err
	}
	return tangentFrame(r, id, c, t, &up)
}

func tangentFrame(r *core.Resolver, id model.BodyID, c coord.SphericalCoordinate, t timectrl.SimTime, upOverride *mgl64.Vec3) (LocalTangentFrame, error) {
	anchor, err := r.AnchorPoint(id, c, t)
	if err != nil {
		return LocalTangentFrame{}, err
	}
	pose, err := r.WorldPose(id, t)
	if err != nil {
		return LocalTangentFrame{}, err
	}
	up := safeNormalize(anchor.Sub(pose.Position))
	if upOverride != nil {
		up = safeNormalize(*upOverride)
	}
	spin := pose.TransformVector(mgl64.Vec3{0, 0, 1})
	east := spin.Cross(up)
	if east.Len() < 1e-12 {
		return LocalTangentFrame{}, fmt.Errorf("tangent frame on %q at pole: %w", id, coord.ErrSingularCoordinate)
	}
	east = east.Normalize()
	north := up.Cross(east)
	return LocalTangentFrame{
		Origin: anchor,
		ENU:    ENUFrame{East: east, North: north, Up: up},
	}, nil
}

// BodyElevation returns the elevation of body target's origin above the
// local horizon at c, in degrees.
func BodyElevation(r *core.Resolver, id model.BodyID, c coord.SphericalCoordinate, target model.BodyID, t timectrl.SimTime) (float64, error) {
	anchor, err := r.AnchorPoint(id, c, t)
	if err != nil {
		return 0, err
	}
	up, err := r.SurfaceNormal(id, c, t)
	if err != nil {
		return 0, err
	}
	tp, err := r.WorldPose(target, t)
	if err != nil {
		return 0, err
	}
	return core.ElevationDegrees(anchor, up, tp.Position), nil
}
