package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

const (
	SunID   model.BodyID = "sun"
	EarthID model.BodyID = "earth"
	MoonID  model.BodyID = "moon"
)

// Physical constants of the preset bodies.
const (
	SunRadiusM   = 696_340_000.0
	SunMassKg    = 1.9885e30
	EarthRadiusM = 6_371_000.0
	EarthMassKg  = 5.972e24
	MoonRadiusM  = 1_737_400.0
	MoonMassKg   = 7.34767309e22

	AstronomicalUnitM  = 149_597_870_700.0
	EarthMoonDistanceM = 384_400_000.0

	earthSiderealDayS = 86_164
	moonPeriodDays    = 27.32166
)

// PresetFrames returns a Sun → Earth → Moon hierarchy. The Sun is the
// static root. Earth's prime meridian at the simulation epoch is aligned with
// Greenwich mean sidereal time at 1970-01-01T00:00:00Z.
func PresetFrames() []FrameNode {
	moonPeriod := timectrl.Days(moonPeriodDays)
	return []FrameNode{
		{
			ID:              SunID,
			Model:           StaticModel{Position: coord.FromCartesian(mgl64.Vec3{})},
			PhysicalRadiusM: SunRadiusM,
			MassKg:          SunMassKg,
		},
		{
			ID:     EarthID,
			Parent: SunID,
			Model: OrbitalModel{
				SemiMajorAxisM:          AstronomicalUnitM,
				Period:                  timectrl.Years(1),
				PhaseAtEpochRad:         math.Pi,
				RotationPeriod:          timectrl.Seconds(earthSiderealDayS),
				RotationPhaseAtEpochRad: EarthRotationPhaseAt(timectrl.Epoch),
				AxialTiltRad:            mgl64.DegToRad(23.44),
			},
			PhysicalRadiusM: EarthRadiusM,
			MassKg:          EarthMassKg,
		},
		{
			ID:     MoonID,
			Parent: EarthID,
			Model: OrbitalModel{
				SemiMajorAxisM:  EarthMoonDistanceM,
				Period:          moonPeriod,
				InclinationRad:  0.089,
				PhaseAtEpochRad: 4.44,
				RotationPeriod:  moonPeriod,
				AxialTiltRad:    0.0269,
			},
			PhysicalRadiusM: MoonRadiusM,
			MassKg:          MoonMassKg,
		},
	}
}

// NewPresetGraph returns a validated frame graph holding PresetFrames.
func NewPresetGraph() (*FrameGraph, error) {
	g := NewFrameGraph()
	for _, n := range PresetFrames() {
		if err := g.AddFrame(n); err != nil {
			return nil, fmt.Errorf("preset frame %q: %w", n.ID, err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("preset frames: %w", err)
	}
	return g, nil
}
