package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/worldframe/coord"
	"github.com/signalsfoundry/worldframe/model"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// Resolver composes frame poses up to the root of a frame graph. It holds
// its own copy of the nodes and is safe for concurrent use.
type Resolver struct {
	nodes map[model.BodyID]FrameNode
}

// NewResolver builds a resolver over nodes without validating them. Walks
// over a malformed table still terminate with ErrCycleDetected or
// ErrFrameNotFound.
func NewResolver(nodes []FrameNode) *Resolver {
	m := make(map[model.BodyID]FrameNode, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return &Resolver{nodes: m}
}

// Node returns the frame node with the given ID.
func (r *Resolver) Node(id model.BodyID) (FrameNode, error) {
	n, ok := r.nodes[id]
	if !ok {
		return FrameNode{}, fmt.Errorf("%w: %q", ErrFrameNotFound, id)
	}
	return n, nil
}

// FrameIDs returns the IDs of every frame known to the resolver.
func (r *Resolver) FrameIDs() []model.BodyID {
	out := make([]model.BodyID, 0, len(r.nodes))
	for id := range r.nodes {
		out = append(out, id)
	}
	return out
}

// WorldPose returns the pose of id's local frame in the root frame at t:
// the parent's world pose composed with the node's local pose, recursively.
func (r *Resolver) WorldPose(id model.BodyID, t timectrl.SimTime) (Pose, error) {
	chain, err := r.chain(id)
	if err != nil {
		return Pose{}, err
	}
	// chain runs from id up to the root; compose from the root down.
	pose := chain[len(chain)-1].Model.PoseAt(t)
	for i := len(chain) - 2; i >= 0; i-- {
		pose = pose.Compose(chain[i].Model.PoseAt(t))
	}
	return pose, nil
}

func (r *Resolver) chain(id model.BodyID) ([]FrameNode, error) {
	var chain []FrameNode
	cur := id
	for {
		n, ok := r.nodes[cur]
		if !ok {
			if cur == id {
				return nil, fmt.Errorf("%w: %q", ErrFrameNotFound, id)
			}
			return nil, fmt.Errorf("%w: parent %q of %q", ErrFrameNotFound, cur, chain[len(chain)-1].ID)
		}
		chain = append(chain, n)
		if n.IsRoot() {
			return chain, nil
		}
		if len(chain) > len(r.nodes) {
			return nil, fmt.Errorf("%w: resolving %q", ErrCycleDetected, id)
		}
		cur = n.Parent
	}
}

// LocalOffset returns the body-frame offset of c from the body origin used
// by WorldPoint. With a radial up model it is the coordinate's direction
// scaled to its altitude above the surface; with an axial model it is the
// up axis scaled by the altitude.
func LocalOffset(c coord.SphericalCoordinate, space model.WorldSpace) mgl64.Vec3 {
	altitude := space.AltitudeM(c)
	if space.Up.Kind == model.UpAxial {
		axis := space.Up.Axis
		if axis.Len() == 0 {
			axis = mgl64.Vec3{0, 0, 1}
		}
		return axis.Normalize().Mul(altitude)
	}
	return c.ToCartesian().Mul(altitude / math.Max(c.RadiusM(), 1))
}

// WorldPoint returns the absolute position of an altitude-offset point on
// body id: the body's world position plus its orientation applied to
// LocalOffset(c, space).
func (r *Resolver) WorldPoint(id model.BodyID, c coord.SphericalCoordinate, t timectrl.SimTime, space model.WorldSpace) (mgl64.Vec3, error) {
	pose, err := r.WorldPose(id, t)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return pose.TransformPoint(LocalOffset(c, space)), nil
}

// AnchorPoint returns the absolute position of the coordinate itself,
// measured from the body centre.
func (r *Resolver) AnchorPoint(id model.BodyID, c coord.SphericalCoordinate, t timectrl.SimTime) (mgl64.Vec3, error) {
	if c.IsOrigin() {
		return mgl64.Vec3{}, fmt.Errorf("anchor on %q: %w", id, coord.ErrSingularCoordinate)
	}
	pose, err := r.WorldPose(id, t)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return pose.TransformPoint(c.ToCartesian()), nil
}

// SurfaceNormal returns the world-frame outward radial direction at c.
func (r *Resolver) SurfaceNormal(id model.BodyID, c coord.SphericalCoordinate, t timectrl.SimTime) (mgl64.Vec3, error) {
	n, err := c.UnitRadial()
	if err != nil {
		return mgl64.Vec3{}, fmt.Errorf("surface normal on %q: %w", id, err)
	}
	pose, err := r.WorldPose(id, t)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return pose.TransformVector(n), nil
}

// LocalUp returns the world-frame up direction at c under the body's up model.
func (r *Resolver) LocalUp(id model.BodyID, c coord.SphericalCoordinate, t timectrl.SimTime, space model.WorldSpace) (mgl64.Vec3, error) {
	up, err := space.Up.LocalUp(c)
	if err != nil {
		return mgl64.Vec3{}, fmt.Errorf("local up on %q: %w", id, err)
	}
	pose, err := r.WorldPose(id, t)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return pose.TransformVector(up), nil
}

// WorldToWorldVector returns the vector from a point on body from to the
// origin of body to, in the root frame.
func (r *Resolver) WorldToWorldVector(from model.BodyID, c coord.SphericalCoordinate, to model.BodyID, t timectrl.SimTime, space model.WorldSpace) (mgl64.Vec3, error) {
	src, err := r.WorldPoint(from, c, t, space)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	dst, err := r.WorldPose(to, t)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return dst.Position.Sub(src), nil
}

// PhysicalRadius returns the body's physical radius in metres.
func (r *Resolver) PhysicalRadius(id model.BodyID) (float64, error) {
	n, err := r.Node(id)
	if err != nil {
		return 0, err
	}
	if n.PhysicalRadiusM <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrMissingPhysicalRadius, id)
	}
	return n.PhysicalRadiusM, nil
}

// Mass returns the body's mass in kilograms, zero when unknown.
func (r *Resolver) Mass(id model.BodyID) (float64, error) {
	n, err := r.Node(id)
	if err != nil {
		return 0, err
	}
	return n.MassKg, nil
}
