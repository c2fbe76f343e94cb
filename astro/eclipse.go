package astro

import (
	"math"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// EclipseType classifies how an occluding disk overlaps a primary disk.
type EclipseType int

const (
	EclipseNone EclipseType = iota
	EclipsePartial
	EclipseAnnular
	EclipseTotal
)

func (e EclipseType) String() string {
	switch e {
	case EclipsePartial:
		return "partial"
	case EclipseAnnular:
		return "annular"
	case EclipseTotal:
		return "total"
	default:
		return "none"
	}
}

// EclipseResult is the classification plus the angles it was decided on.
type EclipseResult struct {
	Type              EclipseType
	SeparationRad     float64
	PrimaryRadiusRad  float64
	OccluderRadiusRad float64
}

const minAngularDistanceM = 1e-9

// AngularRadius returns the apparent angular radius of a sphere of the given
// radius seen from distance.
func AngularRadius(radiusM, distanceM float64) float64 {
	return math.Atan(radiusM / math.Max(distanceM, minAngularDistanceM))
}

// TestDiskOverlap classifies the overlap of two disks given their camera
// space centres and angular radii. The occluder must be nearer than the
// primary along the view axis, and both must be in front of the camera.
func TestDiskOverlap(primary CameraVector, primaryRadiusRad float64, occluder CameraVector, occluderRadiusRad float64) EclipseResult {
	res := EclipseResult{PrimaryRadiusRad: primaryRadiusRad, OccluderRadiusRad: occluderRadiusRad}
	if primary.Z <= 0 || occluder.Z <= 0 || occluder.Z >= primary.Z {
		res.SeparationRad = math.Inf(1)
		return res
	}

	dx := math.Atan2(occluder.X, occluder.Z) - math.Atan2(primary.X, primary.Z)
	dy := math.Atan2(occluder.Y, occluder.Z) - math.Atan2(primary.Y, primary.Z)
	sep := math.Hypot(dx, dy)
	res.SeparationRad = sep

	switch {
	case sep >= primaryRadiusRad+occluderRadiusRad:
		res.Type = EclipseNone
	case sep <= math.Abs(primaryRadiusRad-occluderRadiusRad):
		if occluderRadiusRad >= primaryRadiusRad {
			res.Type = EclipseTotal
		} else {
			res.Type = EclipseAnnular
		}
	default:
		res.Type = EclipsePartial
	}
	return res
}

// EclipseAt classifies the eclipse of primary by occluder as seen from the
// surface anchor of c on body observer, looking along the camera pose
// relative to the tangent frame of the body's up model. Both bodies need a
// physical radius.
func EclipseAt(r *core.Resolver, observer model.BodyID, c coord.SphericalCoordinate, space model.WorldSpace, cam CameraPose, t timectrl.SimTime, primary, occluder model.BodyID) (EclipseResult, error) {
	frame, err := SpaceENU(r, observer, c, t, space)
	if err != nil {
		return EclipseResult{}, err
	}
	eye := frame.Origin
	basis := CameraBasisFromENU(frame.ENU, cam)

	project := func(id model.BodyID) (CameraVector, float64, error) {
		radius, err := r.PhysicalRadius(id)
		if err != nil {
			return CameraVector{}, 0, err
		}
		pose, err := r.WorldPose(id, t)
		if err != nil {
			return CameraVector{}, 0, err
		}
		v := pose.Position.Sub(eye)
		return ProjectToCamera(basis, v), AngularRadius(radius, v.Len()), nil
	}

	pv, pRad, err := project(primary)
	if err != nil {
		return EclipseResult{}, err
	}
	ov, oRad, err := project(occluder)
	if err != nil {
		return EclipseResult{}, err
	}
	return TestDiskOverlap(pv, pRad, ov, oRad), nil
}

// EclipseEvent records the eclipse state from Time onward.
type EclipseEvent struct {
	Time   timectrl.SimTime
	Result EclipseResult
}

// EclipseTimeline samples EclipseAt from start to end inclusive and returns
// the initial state followed by every change of eclipse type.
func EclipseTimeline(r *core.Resolver, observer model.BodyID, c coord.SphericalCoordinate, space model.WorldSpace, cam CameraPose, start, end timectrl.SimTime, step timectrl.SimDuration, primary, occluder model.BodyID) ([]EclipseEvent, error) {
	if !step.IsPositive() {
		return nil, ErrInvalidStep
	}
	var events []EclipseEvent
	for t := start; !end.Before(t); t = t.Add(step) {
		res, err := EclipseAt(r, observer, c, space, cam, t, primary, occluder)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 || events[len(events)-1].Result.Type != res.Type {
			events = append(events, EclipseEvent{Time: t, Result: res})
		}
	}
	return events, nil
}
