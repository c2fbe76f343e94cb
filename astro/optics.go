package astro

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/model"
)

// AtmosphereOpticsParams tunes the ray march through an atmosphere.
type AtmosphereOpticsParams struct {
	MaxDistanceM    float64
	StepM           float64
	ExtinctionPerM  float64
	ScatteringPerM  float64
	MinSunZenithCos float64
}

// DefaultOpticsParams returns a coarse march suited to Earth-like bodies.
func DefaultOpticsParams() AtmosphereOpticsParams {
	return AtmosphereOpticsParams{
		MaxDistanceM:    120_000,
		StepM:           500,
		ExtinctionPerM:  1e-5,
		ScatteringPerM:  0.1,
		MinSunZenithCos: 0.05,
	}
}

// OpticsResult is the outcome of IntegrateAtmosphere.
type OpticsResult struct {
	OpticalDepth  float64
	Transmittance float64
	SkyRadiance   float64
}

// IntegrateAtmosphere marches from origin along viewDir through the
// atmosphere of a body centred at centre. Density comes from the body's
// atmosphere at each sample's altitude; the scattering term is weighted by
// the air mass toward sunDir. A nil atmosphere is fully transparent.
func IntegrateAtmosphere(origin, viewDir, sunDir, centre mgl64.Vec3, space model.WorldSpace, atm *model.AtmosphereModel, p AtmosphereOpticsParams) (OpticsResult, error) {
	if p.StepM <= 0 {
		return OpticsResult{}, ErrInvalidStep
	}
	if atm == nil {
		return OpticsResult{Transmittance: 1}, nil
	}
	dir := safeNormalize(viewDir)
	sun := safeNormalize(sunDir)
	minCos := p.MinSunZenithCos
	if minCos <= 0 {
		minCos = 0.05
	}

	var optical, scatter float64
	for d := 0.0; d < p.MaxDistanceM; d += p.StepM {
		pos := origin.Add(dir.Mul(d))
		radial := pos.Sub(centre)
		alt := radial.Len() - space.SurfaceRadiusM
		rho := atm.DensityAt(alt)
		if rho <= 0 {
			continue
		}
		up := safeNormalize(radial)
		zenithCos := math.Max(minCos, math.Min(1, sun.Dot(up)))
		airMass := 1 / zenithCos

		optical += rho * p.ExtinctionPerM * p.StepM
		scatter += rho * p.ScatteringPerM * airMass * p.StepM
	}

	trans := math.Exp(-optical)
	return OpticsResult{
		OpticalDepth:  optical,
		Transmittance: trans,
		SkyRadiance:   scatter * trans,
	}, nil
}
