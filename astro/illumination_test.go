package astro

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
)

func sunOnPlusX() *core.Resolver {
	return earthRooted(staticAt(sun, earth, core.AstronomicalUnitM, core.SunRadiusM))
}

func TestSolarIllumination(t *testing.T) {
	r := sunOnPlusX()

	noon, err := SolarIllumination(r, earth, equator0, sun, epoch)
	if err != nil {
		t.Fatalf("SolarIllumination: %v", err)
	}
	d := core.AstronomicalUnitM - earthRadiusM
	if want := 1 / (d * d); math.Abs(noon-want)/want > 1e-9 {
		t.Fatalf("noon illumination = %v, want %v", noon, want)
	}

	night, err := SolarIllumination(r, earth, coord.FromDegrees(earthRadiusM, 0, 180), sun, epoch)
	if err != nil {
		t.Fatalf("SolarIllumination: %v", err)
	}
	if night != 0 {
		t.Fatalf("night illumination = %v, want 0", night)
	}

	dir, err := SunDirection(r, earth, equator0, sun, epoch)
	if err != nil {
		t.Fatalf("SunDirection: %v", err)
	}
	vecNear(t, "sun direction", dir, mgl64.Vec3{1, 0, 0}, 1e-12)
}

func TestSurfaceIrradiance(t *testing.T) {
	r := sunOnPlusX()

	overhead, err := SurfaceIrradianceAt(r, earth, equator0, earthSpace, sun, epoch)
	if err != nil {
		t.Fatalf("SurfaceIrradianceAt: %v", err)
	}
	if math.Abs(overhead.DirectWm2-SolarConstantWm2) > 1e-6 || overhead.TotalWm2 != overhead.DirectWm2 || overhead.DiffuseWm2 != 0 {
		t.Fatalf("overhead irradiance = %+v", overhead)
	}

	slanted, err := SurfaceIrradianceAt(r, earth, coord.FromDegrees(earthRadiusM, 60, 0), earthSpace, sun, epoch)
	if err != nil {
		t.Fatalf("SurfaceIrradianceAt: %v", err)
	}
	if math.Abs(slanted.TotalWm2-SolarConstantWm2*0.5) > 0.1 {
		t.Fatalf("60° latitude irradiance = %v, want %v", slanted.TotalWm2, SolarConstantWm2*0.5)
	}

	below, err := SurfaceIrradianceAt(r, earth, coord.FromDegrees(earthRadiusM, 0, 180), earthSpace, sun, epoch)
	if err != nil {
		t.Fatalf("SurfaceIrradianceAt: %v", err)
	}
	if (below != SurfaceIrradiance{}) {
		t.Fatalf("below horizon = %+v, want zero", below)
	}
}
