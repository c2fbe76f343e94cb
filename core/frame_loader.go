package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// FrameScenario is a small summary of what was loaded from JSON.
type FrameScenario struct {
	FrameIDs []model.BodyID
	Root     model.BodyID
}

// internal JSON shapes; unexported so they can evolve freely.
type frameScenarioJSON struct {
	Frames []frameJSON `json:"frames"`
}

type frameJSON struct {
	ID              string       `json:"id"`
	Parent          string       `json:"parent"`
	PhysicalRadiusM float64      `json:"physical_radius_m"`
	MassKg          float64      `json:"mass_kg"`
	Static          *staticJSON  `json:"static"`
	Orbital         *orbitalJSON `json:"orbital"`
}

// staticJSON takes either the compact coordinate text or metres/degrees.
type staticJSON struct {
	Coordinate *coord.SphericalCoordinate `json:"coordinate"`
	RadiusM    float64                    `json:"radius_m"`
	LatDeg     float64                    `json:"lat_deg"`
	LonDeg     float64                    `json:"lon_deg"`
}

type orbitalJSON struct {
	SemiMajorAxisM          float64 `json:"semi_major_axis_m"`
	PeriodS                 float64 `json:"period_s"`
	InclinationDeg          float64 `json:"inclination_deg"`
	PhaseAtEpochDeg         float64 `json:"phase_at_epoch_deg"`
	RotationPeriodS         float64 `json:"rotation_period_s"`
	RotationPhaseAtEpochDeg float64 `json:"rotation_phase_at_epoch_deg"`
	AxialTiltDeg            float64 `json:"axial_tilt_deg"`
}

func (f frameJSON) toNode() (FrameNode, error) {
	n := FrameNode{
		ID:              model.BodyID(f.ID),
		Parent:          model.BodyID(f.Parent),
		PhysicalRadiusM: f.PhysicalRadiusM,
		MassKg:          f.MassKg,
	}
	switch {
	case f.Static != nil && f.Orbital != nil:
		return FrameNode{}, fmt.Errorf("%w: %q sets both static and orbital models", ErrFrameBadInput, f.ID)
	case f.Orbital != nil:
		o := f.Orbital
		n.Model = OrbitalModel{
			SemiMajorAxisM:          o.SemiMajorAxisM,
			Period:                  timectrl.SecondsFloat(o.PeriodS),
			InclinationRad:          mgl64.DegToRad(o.InclinationDeg),
			PhaseAtEpochRad:         mgl64.DegToRad(o.PhaseAtEpochDeg),
			RotationPeriod:          timectrl.SecondsFloat(o.RotationPeriodS),
			RotationPhaseAtEpochRad: mgl64.DegToRad(o.RotationPhaseAtEpochDeg),
			AxialTiltRad:            mgl64.DegToRad(o.AxialTiltDeg),
		}
	case f.Static != nil && f.Static.Coordinate != nil:
		n.Model = StaticModel{Position: *f.Static.Coordinate}
	case f.Static != nil:
		n.Model = StaticModel{Position: coord.FromDegrees(f.Static.RadiusM, f.Static.LatDeg, f.Static.LonDeg)}
	default:
		// A frame without a model sits on its parent's origin.
		n.Model = StaticModel{}
	}
	return n, nil
}

// LoadFrameGraph reads a JSON frame scenario from r, adds every frame to g,
// validates the resulting graph and returns a summary of what was loaded.
func LoadFrameGraph(g *FrameGraph, r io.Reader) (*FrameScenario, error) {
	if g == nil {
		return nil, fmt.Errorf("LoadFrameGraph: graph is nil")
	}

	var payload frameScenarioJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadFrameGraph: decode failed: %w", err)
	}

	result := &FrameScenario{FrameIDs: make([]model.BodyID, 0, len(payload.Frames))}
	for _, f := range payload.Frames {
		n, err := f.toNode()
		if err != nil {
			return nil, fmt.Errorf("LoadFrameGraph: %w", err)
		}
		if err := g.AddFrame(n); err != nil {
			return nil, fmt.Errorf("LoadFrameGraph: %w", err)
		}
		result.FrameIDs = append(result.FrameIDs, n.ID)
		if n.IsRoot() {
			result.Root = n.ID
		}
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("LoadFrameGraph: %w", err)
	}
	return result, nil
}
