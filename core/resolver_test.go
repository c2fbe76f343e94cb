package core

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

func mustResolver(t *testing.T, nodes ...FrameNode) *Resolver {
	t.Helper()
	g := NewFrameGraph()
	for _, n := range nodes {
		if err := g.AddFrame(n); err != nil {
			t.Fatalf("AddFrame(%s): %v", n.ID, err)
		}
	}
	r, err := g.Resolver()
	if err != nil {
		t.Fatalf("Resolver: %v", err)
	}
	return r
}

func TestWorldPose_TwoLevelStaticComposition(t *testing.T) {
	r := mustResolver(t,
		FrameNode{ID: "root", Model: StaticModel{}},
		FrameNode{ID: "child", Parent: "root", Model: StaticModel{Position: coord.FromCartesian(mgl64.Vec3{10, 0, 0})}},
		FrameNode{ID: "grandchild", Parent: "child", Model: StaticModel{Position: coord.FromCartesian(mgl64.Vec3{0, 5, 0})}},
	)

	p, err := r.WorldPose("child", timectrl.Epoch)
	if err != nil {
		t.Fatalf("WorldPose(child): %v", err)
	}
	if !vecNear(p.Position, mgl64.Vec3{10, 0, 0}, 1e-5) {
		t.Fatalf("child position = %v, want (10,0,0)", p.Position)
	}
	if p.Orientation != mgl64.Ident3() {
		t.Fatalf("child orientation = %v, want identity", p.Orientation)
	}

	g, err := r.WorldPose("grandchild", timectrl.FromSeconds(999))
	if err != nil {
		t.Fatalf("WorldPose(grandchild): %v", err)
	}
	if !vecNear(g.Position, mgl64.Vec3{10, 5, 0}, 1e-5) {
		t.Fatalf("grandchild position = %v, want (10,5,0)", g.Position)
	}
}

func TestWorldPose_ParentRotationApplied(t *testing.T) {
	r := mustResolver(t,
		FrameNode{ID: "root", Model: StaticModel{}},
		FrameNode{ID: "planet", Parent: "root", Model: OrbitalModel{
			SemiMajorAxisM: 1000,
			RotationPeriod: timectrl.Seconds(4),
		}},
		FrameNode{ID: "station", Parent: "planet", Model: StaticModel{Position: coord.FromCartesian(mgl64.Vec3{10, 0, 0})}},
	)

	// After a quarter spin the planet's +X points along root +Y.
	p, err := r.WorldPose("station", timectrl.FromSeconds(1))
	if err != nil {
		t.Fatalf("WorldPose: %v", err)
	}
	if !vecNear(p.Position, mgl64.Vec3{1000, 10, 0}, 1e-5) {
		t.Fatalf("station position = %v, want (1000,10,0)", p.Position)
	}
	if got := p.Orientation.Mul3x1(mgl64.Vec3{1, 0, 0}); !vecNear(got, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Fatalf("station inherits orientation: +X -> %v", got)
	}
}

func TestWorldPose_Errors(t *testing.T) {
	r := mustResolver(t, FrameNode{ID: "root", Model: StaticModel{}})
	if _, err := r.WorldPose("ghost", timectrl.Epoch); !errors.Is(err, ErrFrameNotFound) {
		t.Fatalf("expected ErrFrameNotFound, got %v", err)
	}

	cyclic := NewResolver([]FrameNode{
		{ID: "a", Parent: "b", Model: StaticModel{}},
		{ID: "b", Parent: "a", Model: StaticModel{}},
	})
	if _, err := cyclic.WorldPose("a", timectrl.Epoch); !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}

	dangling := NewResolver([]FrameNode{{ID: "a", Parent: "ghost", Model: StaticModel{}}})
	if _, err := dangling.WorldPose("a", timectrl.Epoch); !errors.Is(err, ErrFrameNotFound) {
		t.Fatalf("expected ErrFrameNotFound for dangling parent, got %v", err)
	}
}

func TestWorldPoint_RadialAndAxial(t *testing.T) {
	r := mustResolver(t,
		FrameNode{ID: "root", Model: StaticModel{}},
		FrameNode{ID: "body", Parent: "root", Model: StaticModel{Position: coord.FromCartesian(mgl64.Vec3{1e6, 0, 0})}},
	)

	radial := model.WorldSpace{SurfaceRadiusM: earthRadiusM, Up: model.Radial()}
	c := coord.FromDegrees(earthRadiusM+1000, 0, 90)
	got, err := r.WorldPoint("body", c, timectrl.Epoch, radial)
	if err != nil {
		t.Fatalf("WorldPoint: %v", err)
	}
	if !vecNear(got, mgl64.Vec3{1e6, 1000, 0}, 1e-6) {
		t.Fatalf("radial world point = %v, want (1e6,1000,0)", got)
	}

	axial := model.WorldSpace{SurfaceRadiusM: 100, Up: model.Axial(mgl64.Vec3{0, 0, 3})}
	got, err = r.WorldPoint("body", coord.FromDegrees(150, 45, 45), timectrl.Epoch, axial)
	if err != nil {
		t.Fatalf("WorldPoint: %v", err)
	}
	if !vecNear(got, mgl64.Vec3{1e6, 0, 50}, 1e-6) {
		t.Fatalf("axial world point = %v, want (1e6,0,50)", got)
	}

	// Below one metre the offset is scaled against one metre, not r.
	tiny := LocalOffset(coord.New(500_000, 0, 0), model.WorldSpace{})
	if !vecNear(tiny, mgl64.Vec3{0.25, 0, 0}, 1e-12) {
		t.Fatalf("sub-metre offset = %v, want (0.25,0,0)", tiny)
	}
}

func TestAnchorPointAndSurfaceNormal(t *testing.T) {
	r := mustResolver(t,
		FrameNode{ID: "root", Model: StaticModel{}},
		FrameNode{ID: "planet", Parent: "root", Model: OrbitalModel{
			SemiMajorAxisM: 1e7,
			RotationPeriod: timectrl.Seconds(4),
		}},
	)
	c := coord.FromDegrees(1000, 0, 0)
	at := timectrl.FromSeconds(1)

	anchor, err := r.AnchorPoint("planet", c, at)
	if err != nil {
		t.Fatalf("AnchorPoint: %v", err)
	}
	if !vecNear(anchor, mgl64.Vec3{1e7, 1000, 0}, 1e-6) {
		t.Fatalf("anchor = %v, want (1e7,1000,0)", anchor)
	}

	n, err := r.SurfaceNormal("planet", c, at)
	if err != nil {
		t.Fatalf("SurfaceNormal: %v", err)
	}
	if !vecNear(n, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Fatalf("normal = %v, want (0,1,0)", n)
	}

	if _, err := r.AnchorPoint("planet", coord.SphericalCoordinate{}, at); !errors.Is(err, coord.ErrSingularCoordinate) {
		t.Fatalf("expected ErrSingularCoordinate, got %v", err)
	}
	if _, err := r.SurfaceNormal("planet", coord.SphericalCoordinate{}, at); !errors.Is(err, coord.ErrSingularCoordinate) {
		t.Fatalf("expected ErrSingularCoordinate, got %v", err)
	}

	up, err := r.LocalUp("planet", c, at, model.WorldSpace{Up: model.Axial(mgl64.Vec3{1, 0, 0})})
	if err != nil {
		t.Fatalf("LocalUp: %v", err)
	}
	if !vecNear(up, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Fatalf("axial up = %v, want (0,1,0)", up)
	}
}

func TestWorldToWorldVector(t *testing.T) {
	r := mustResolver(t,
		FrameNode{ID: "sun", Model: StaticModel{}},
		FrameNode{ID: "earth", Parent: "sun", Model: StaticModel{Position: coord.FromDegrees(1e9, 0, 0)}},
	)
	space := model.WorldSpace{SurfaceRadiusM: earthRadiusM, Up: model.Radial()}
	v, err := r.WorldToWorldVector("earth", coord.FromDegrees(earthRadiusM, 0, 0), "sun", timectrl.Epoch, space)
	if err != nil {
		t.Fatalf("WorldToWorldVector: %v", err)
	}
	if !vecNear(v, mgl64.Vec3{-1e9, 0, 0}, 1e-6) {
		t.Fatalf("vector = %v, want (-1e9,0,0)", v)
	}
	if _, err := r.WorldToWorldVector("earth", coord.FromDegrees(1, 0, 0), "pluto", timectrl.Epoch, space); !errors.Is(err, ErrFrameNotFound) {
		t.Fatalf("expected ErrFrameNotFound, got %v", err)
	}
}

func TestPhysicalRadiusAndMass(t *testing.T) {
	r := mustResolver(t,
		FrameNode{ID: "sun", Model: StaticModel{}, PhysicalRadiusM: SunRadiusM, MassKg: SunMassKg},
		FrameNode{ID: "probe", Parent: "sun", Model: StaticModel{}},
	)
	if got, err := r.PhysicalRadius("sun"); err != nil || got != SunRadiusM {
		t.Fatalf("PhysicalRadius(sun) = %v, %v", got, err)
	}
	if _, err := r.PhysicalRadius("probe"); !errors.Is(err, ErrMissingPhysicalRadius) {
		t.Fatalf("expected ErrMissingPhysicalRadius, got %v", err)
	}
	if m, err := r.Mass("probe"); err != nil || m != 0 {
		t.Fatalf("Mass(probe) = %v, %v", m, err)
	}
	if _, err := r.Mass("ghost"); !errors.Is(err, ErrFrameNotFound) {
		t.Fatalf("expected ErrFrameNotFound, got %v", err)
	}
}

func TestNewPresetGraph(t *testing.T) {
	g, err := NewPresetGraph()
	if err != nil {
		t.Fatalf("NewPresetGraph: %v", err)
	}
	if g.Len() != len(PresetFrames()) {
		t.Fatalf("preset graph holds %d frames, want %d", g.Len(), len(PresetFrames()))
	}
	for _, id := range []model.BodyID{SunID, EarthID, MoonID} {
		if _, err := g.GetFrame(id); err != nil {
			t.Fatalf("GetFrame(%s): %v", id, err)
		}
	}
}

func TestPresetFrames(t *testing.T) {
	g, err := NewPresetGraph()
	if err != nil {
		t.Fatalf("NewPresetGraph: %v", err)
	}
	res, err := g.Resolver()
	if err != nil {
		t.Fatalf("preset graph invalid: %v", err)
	}
	at := timectrl.FromSeconds(1_700_000_000)

	earth, err := res.WorldPose(EarthID, at)
	if err != nil {
		t.Fatalf("WorldPose(earth): %v", err)
	}
	if d := earth.Position.Len(); math.Abs(d-AstronomicalUnitM) > 1 {
		t.Fatalf("earth-sun distance = %v, want 1 AU", d)
	}

	moon, err := res.WorldPose(MoonID, at)
	if err != nil {
		t.Fatalf("WorldPose(moon): %v", err)
	}
	if d := moon.Position.Sub(earth.Position).Len(); math.Abs(d-EarthMoonDistanceM) > 1 {
		t.Fatalf("earth-moon distance = %v, want %v", d, EarthMoonDistanceM)
	}
}
