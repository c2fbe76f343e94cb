package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// FrameModel describes how a body's local frame sits in its parent frame as
// a function of simulation time. Implementations must be pure.
type FrameModel interface {
	PoseAt(t timectrl.SimTime) Pose
}

// StaticModel fixes a frame at a coordinate of its parent with no rotation.
type StaticModel struct {
	Position coord.SphericalCoordinate
}

// PoseAt returns the fixed position and the identity orientation.
func (m StaticModel) PoseAt(timectrl.SimTime) Pose {
	p := IdentityPose()
	p.Position = m.Position.ToCartesian()
	return p
}

// OrbitalModel moves a frame on a circular orbit about its parent's origin
// and spins it about its own (tilted) Z axis. Orbits are circular with a
// fixed angular rate; eccentricity is not modelled.
type OrbitalModel struct {
	SemiMajorAxisM  float64
	Period          timectrl.SimDuration
	InclinationRad  float64
	PhaseAtEpochRad float64

	RotationPeriod          timectrl.SimDuration
	RotationPhaseAtEpochRad float64
	AxialTiltRad            float64
}

// OrbitAngle returns the orbital angle θ at t. A non-positive period leaves
// the body at its epoch phase.
func (m OrbitalModel) OrbitAngle(t timectrl.SimTime) float64 {
	return 2*math.Pi*timectrl.PhaseFraction(t, m.Period) + m.PhaseAtEpochRad
}

// SpinAngle returns the rotation angle φ about the body's spin axis at t.
func (m OrbitalModel) SpinAngle(t timectrl.SimTime) float64 {
	return 2*math.Pi*timectrl.PhaseFraction(t, m.RotationPeriod) + m.RotationPhaseAtEpochRad
}

// PoseAt places the body on its orbit at t. The orbit lies in the parent's
// XY plane tilted about X by the inclination; the orientation is
// Rz(spin)·Rx(axial tilt).
func (m OrbitalModel) PoseAt(t timectrl.SimTime) Pose {
	theta := m.OrbitAngle(t)
	sinT, cosT := math.Sincos(theta)
	sinI, cosI := math.Sincos(m.InclinationRad)

	x := m.SemiMajorAxisM * cosT
	y0 := m.SemiMajorAxisM * sinT

	return Pose{
		Position:    mgl64.Vec3{x, y0 * cosI, y0 * sinI},
		Orientation: mgl64.Rotate3DZ(m.SpinAngle(t)).Mul3(mgl64.Rotate3DX(m.AxialTiltRad)),
	}
}

// SpinAxis returns the body's rotation axis in the parent frame.
func (m OrbitalModel) SpinAxis() mgl64.Vec3 {
	return mgl64.Rotate3DX(m.AxialTiltRad).Mul3x1(mgl64.Vec3{0, 0, 1})
}

// Validate rejects negative radii and periods.
func (m OrbitalModel) Validate() error {
	if m.SemiMajorAxisM < 0 || math.IsNaN(m.SemiMajorAxisM) {
		return fmt.Errorf("%w: semi-major axis %v", ErrFrameBadInput, m.SemiMajorAxisM)
	}
	if m.Period.Nanos().Sign() < 0 {
		return fmt.Errorf("%w: negative orbital period", ErrFrameBadInput)
	}
	if m.RotationPeriod.Nanos().Sign() < 0 {
		return fmt.Errorf("%w: negative rotation period", ErrFrameBadInput)
	}
	return nil
}

// EarthRotationPhaseAt returns Greenwich mean sidereal time at t in
// radians. Used as the rotation phase of an Earth frame whose epoch is t.
func EarthRotationPhaseAt(t timectrl.SimTime) float64 {
	return satellite.ThetaG_JD(t.JulianDay())
}
