package astro

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CameraPose orients a camera relative to a local ENU frame. Yaw is
// measured from north toward east; pitch raises the view toward up.
type CameraPose struct {
	YawRad   float64
	PitchRad float64
}

// CameraBasis is the camera's right/up/forward triad in the root frame.
type CameraBasis struct {
	Right   mgl64.Vec3
	Up      mgl64.Vec3
	Forward mgl64.Vec3
}

// CameraBasisFromENU rotates the ENU frame by the camera pose.
func CameraBasisFromENU(enu ENUFrame, pose CameraPose) CameraBasis {
	sy, cy := math.Sincos(pose.YawRad)
	sp, cp := math.Sincos(pose.PitchRad)

	fwdYaw := enu.North.Mul(cy).Add(enu.East.Mul(sy))
	right := enu.North.Mul(-sy).Add(enu.East.Mul(cy))
	return CameraBasis{
		Right:   right,
		Up:      fwdYaw.Mul(-sp).Add(enu.Up.Mul(cp)),
		Forward: fwdYaw.Mul(cp).Add(enu.Up.Mul(sp)),
	}
}

// CameraVector is a vector in camera coordinates: X right, Y up, Z forward.
type CameraVector struct {
	X, Y, Z float64
}

// ProjectToCamera expresses a root-frame vector in camera coordinates.
func ProjectToCamera(b CameraBasis, v mgl64.Vec3) CameraVector {
	return CameraVector{X: b.Right.Dot(v), Y: b.Up.Dot(v), Z: b.Forward.Dot(v)}
}

// CameraProjection is a symmetric perspective frustum.
type CameraProjection struct {
	FovYRad float64
	Aspect  float64
}

// FovXRad returns the horizontal field of view.
func (p CameraProjection) FovXRad() float64 {
	return 2 * math.Atan(math.Tan(p.FovYRad/2)*p.Aspect)
}

// IsVisible reports whether v lies in front of the camera and inside the
// frustum.
func (p CameraProjection) IsVisible(v CameraVector) bool {
	if v.Z <= 0 {
		return false
	}
	return math.Abs(math.Atan2(v.X, v.Z)) <= p.FovXRad()/2 &&
		math.Abs(math.Atan2(v.Y, v.Z)) <= p.FovYRad/2
}

// ProjectToNDC maps v to normalized device coordinates in [-1, 1]. Points
// behind the camera report ok=false.
func (p CameraProjection) ProjectToNDC(v CameraVector) (x, y float64, ok bool) {
	if v.Z <= 0 {
		return 0, 0, false
	}
	tanX := math.Tan(p.FovXRad() / 2)
	tanY := math.Tan(p.FovYRad / 2)
	return v.X / (v.Z * tanX), v.Y / (v.Z * tanY), true
}
