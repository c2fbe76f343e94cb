package model

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// GravityKind selects the baseline gravity direction of a body.
type GravityKind string

const (
	GravityRadial  GravityKind = "radial"
	GravityUniform GravityKind = "uniform"
	GravityNone    GravityKind = "none"
)

// GravityModel is the reference surface gravity of a body.
type GravityModel struct {
	Kind        GravityKind `json:"kind"`
	StrengthMS2 float64     `json:"strength"`
	// Direction is used by GravityUniform only.
	Direction mgl64.Vec3 `json:"direction,omitempty"`
}

// AtmosphereModel is an exponential atmosphere.
type AtmosphereModel struct {
	SeaLevelDensity float64 `json:"sea_level_density"` // kg/m³
	ScaleHeightM    float64 `json:"scale_height_m"`
	MaxHeightM      float64 `json:"max_height_m,omitempty"` // 0 means no cutoff
}

// DensityAt returns air density at altitude h metres. Below the surface the
// sea-level value is returned.
func (a AtmosphereModel) DensityAt(h float64) float64 {
	if a.MaxHeightM > 0 && h > a.MaxHeightM {
		return 0
	}
	if h < 0 {
		h = 0
	}
	if a.ScaleHeightM <= 0 {
		return a.SeaLevelDensity
	}
	return a.SeaLevelDensity * math.Exp(-h/a.ScaleHeightM)
}

// TemperatureModel is a linear lapse-rate temperature profile.
type TemperatureModel struct {
	SurfaceTempK   float64 `json:"surface_temp_k"`
	LapseRateKPerM float64 `json:"lapse_rate_k_per_m,omitempty"`
}

// TemperatureAt returns the temperature at altitude h, floored at 0 K.
func (t TemperatureModel) TemperatureAt(h float64) float64 {
	return math.Max(0, t.SurfaceTempK+t.LapseRateKPerM*h)
}

// WorldEnvDescriptor is the authoritative environment definition of a body.
// Space and Gravity are required; the rest is optional.
type WorldEnvDescriptor struct {
	Space       WorldSpace        `json:"space"`
	Gravity     GravityModel      `json:"gravity"`
	Atmosphere  *AtmosphereModel  `json:"atmosphere,omitempty"`
	Temperature *TemperatureModel `json:"temperature,omitempty"`
}

// Validate checks the required invariants of the descriptor.
func (d WorldEnvDescriptor) Validate() error {
	if d.Space.SurfaceRadiusM < 0 || math.IsNaN(d.Space.SurfaceRadiusM) {
		return fmt.Errorf("surface radius must be non-negative, got %v", d.Space.SurfaceRadiusM)
	}
	if err := d.Space.Up.Validate(); err != nil {
		return err
	}
	switch d.Gravity.Kind {
	case GravityRadial, GravityNone:
	case GravityUniform:
		if d.Gravity.Direction.Len() == 0 {
			return fmt.Errorf("uniform gravity requires a direction")
		}
	default:
		return fmt.Errorf("unknown gravity kind %q", d.Gravity.Kind)
	}
	if a := d.Atmosphere; a != nil && (a.SeaLevelDensity < 0 || a.ScaleHeightM < 0) {
		return fmt.Errorf("atmosphere density and scale height must be non-negative")
	}
	return nil
}

// PressureAt returns the hydrostatic pressure (Pa) at altitude h for an
// isothermal exponential atmosphere: ρ(h)·g·H. Zero without an atmosphere.
func (d WorldEnvDescriptor) PressureAt(h float64) float64 {
	if d.Atmosphere == nil {
		return 0
	}
	return d.Atmosphere.DensityAt(h) * d.Gravity.StrengthMS2 * d.Atmosphere.ScaleHeightM
}

// EarthV0 returns the default Earth-like environment.
func EarthV0() WorldEnvDescriptor {
	return WorldEnvDescriptor{
		Space: WorldSpace{
			SurfaceRadiusM: 6_371_000,
			Up:             Radial(),
		},
		Gravity: GravityModel{
			Kind:        GravityRadial,
			StrengthMS2: 9.80665,
		},
		Atmosphere: &AtmosphereModel{
			SeaLevelDensity: 1.225,
			ScaleHeightM:    8_500,
			MaxHeightM:      120_000,
		},
		Temperature: &TemperatureModel{
			SurfaceTempK:   288.15,
			LapseRateKPerM: -0.0065,
		},
	}
}

// MoonV0 returns an airless lunar environment.
func MoonV0() WorldEnvDescriptor {
	return WorldEnvDescriptor{
		Space: WorldSpace{
			SurfaceRadiusM: 1_737_400,
			Up:             Radial(),
		},
		Gravity: GravityModel{
			Kind:        GravityRadial,
			StrengthMS2: 1.625,
		},
	}
}

// SunV0 returns a stellar environment with no atmosphere model.
func SunV0() WorldEnvDescriptor {
	return WorldEnvDescriptor{
		Space: WorldSpace{
			SurfaceRadiusM: 696_340_000,
			Up:             Radial(),
		},
		Gravity: GravityModel{
			Kind:        GravityRadial,
			StrengthMS2: 274,
		},
	}
}
