package astro

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/core"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

const (
	earthRadiusM = 6_371_000.0
	earth        = model.BodyID("earth")
	sun          = model.BodyID("sun")
	moon         = model.BodyID("moon")
)

var (
	epoch      = timectrl.Epoch
	equator0   = coord.FromDegrees(earthRadiusM, 0, 0)
	earthSpace = model.WorldSpace{SurfaceRadiusM: earthRadiusM, Up: model.Radial()}
)

// staticAt places a node at the given distance along +X of its parent.
func staticAt(id, parent model.BodyID, xM, radiusM float64) core.FrameNode {
	return core.FrameNode{
		ID:              id,
		Parent:          parent,
		Model:           core.StaticModel{Position: coord.FromCartesian(mgl64.Vec3{xM, 0, 0})},
		PhysicalRadiusM: radiusM,
	}
}

// earthRooted returns a resolver with a static Earth at the origin plus the
// given children.
func earthRooted(children ...core.FrameNode) *core.Resolver {
	nodes := []core.FrameNode{{
		ID:              earth,
		Model:           core.StaticModel{},
		PhysicalRadiusM: earthRadiusM,
		MassKg:          core.EarthMassKg,
	}}
	return core.NewResolver(append(nodes, children...))
}

func vecNear(t *testing.T, name string, got, want mgl64.Vec3, tol float64) {
	t.Helper()
	if !floats.EqualApprox(got[:], want[:], tol) {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}
