package core

import "github.com/go-gl/mathgl/mgl64"

// Pose is a rigid transform from a local frame into its parent: a position
// in metres and an orientation whose columns are the local axes expressed in
// the parent frame.
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Mat3
}

// IdentityPose is the pose of a frame coincident with its parent.
func IdentityPose() Pose {
	return Pose{Orientation: mgl64.Ident3()}
}

// Compose places child (expressed in p's frame) into p's parent frame.
func (p Pose) Compose(child Pose) Pose {
	return Pose{
		Position:    p.Position.Add(p.Orientation.Mul3x1(child.Position)),
		Orientation: p.Orientation.Mul3(child.Orientation),
	}
}

// TransformPoint maps a point from the local frame into the parent frame.
func (p Pose) TransformPoint(v mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.Orientation.Mul3x1(v))
}

// TransformVector rotates a direction from the local frame into the parent frame.
func (p Pose) TransformVector(v mgl64.Vec3) mgl64.Vec3 {
	return p.Orientation.Mul3x1(v)
}
