package model

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/coord"
)

// UpKind selects how "up" is defined on a body.
type UpKind string

const (
	// UpRadial points away from the body centre (planets).
	UpRadial UpKind = "radial"
	// UpAxial uses a fixed body-frame axis (habitats, flat test worlds).
	UpAxial UpKind = "axial"
)

// UpModel describes the local vertical of a body.
type UpModel struct {
	Kind UpKind     `json:"kind"`
	Axis mgl64.Vec3 `json:"axis,omitempty"`
}

// Radial returns the radial up model.
func Radial() UpModel { return UpModel{Kind: UpRadial} }

// Axial returns an axial up model along axis. The axis is normalized; a zero
// axis falls back to +Z.
func Axial(axis mgl64.Vec3) UpModel {
	if axis.Len() == 0 {
		axis = mgl64.Vec3{0, 0, 1}
	}
	return UpModel{Kind: UpAxial, Axis: axis.Normalize()}
}

// Validate checks that the up model is usable.
func (u UpModel) Validate() error {
	switch u.Kind {
	case UpRadial:
		return nil
	case UpAxial:
		if u.Axis.Len() == 0 {
			return fmt.Errorf("axial up model requires a non-zero axis")
		}
		return nil
	default:
		return fmt.Errorf("unknown up model %q", u.Kind)
	}
}

// LocalUp returns the body-frame up direction at c.
func (u UpModel) LocalUp(c coord.SphericalCoordinate) (mgl64.Vec3, error) {
	if u.Kind == UpAxial {
		if u.Axis.Len() == 0 {
			return mgl64.Vec3{}, fmt.Errorf("%w: axial up model has a zero axis", coord.ErrSingularCoordinate)
		}
		return u.Axis.Normalize(), nil
	}
	return c.UnitRadial()
}

func (u *UpModel) UnmarshalJSON(data []byte) error {
	type raw UpModel
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Kind == "" {
		r.Kind = UpRadial
	}
	if r.Kind == UpAxial && r.Axis.Len() > 0 {
		r.Axis = r.Axis.Normalize()
	}
	*u = UpModel(r)
	return u.Validate()
}

// WorldSpace holds the spatial assumptions of a body: the radius of its
// solid surface (altitude zero) and its up model.
type WorldSpace struct {
	SurfaceRadiusM float64 `json:"surface_radius_m"`
	Up             UpModel `json:"up_model"`
}

// AltitudeM returns the height of c above the surface.
func (s WorldSpace) AltitudeM(c coord.SphericalCoordinate) float64 {
	return c.RadiusM() - s.SurfaceRadiusM
}

// SurfacePoint returns a coordinate on the surface at the given angles.
func (s WorldSpace) SurfacePoint(latDeg, lonDeg float64) coord.SphericalCoordinate {
	return coord.FromDegrees(s.SurfaceRadiusM, latDeg, lonDeg)
}
