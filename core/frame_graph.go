package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/worldframe/model"
)

var (
	ErrFrameExists           = errors.New("frame already exists")
	ErrFrameNotFound         = errors.New("frame not found")
	ErrFrameBadInput         = errors.New("invalid frame")
	ErrFrameInUse            = errors.New("frame has children")
	ErrCycleDetected         = errors.New("frame graph contains a cycle")
	ErrMultipleRoots         = errors.New("frame graph has more than one root")
	ErrNoRoot                = errors.New("frame graph has no root")
	ErrMissingPhysicalRadius = errors.New("physical radius not set")
)

// FrameNode places one body's reference frame in the graph. Parent is empty
// for the root. PhysicalRadiusM and MassKg are zero when unknown.
type FrameNode struct {
	ID              model.BodyID
	Parent          model.BodyID
	Model           FrameModel
	PhysicalRadiusM float64
	MassKg          float64
}

// IsRoot reports whether the node has no parent.
func (n FrameNode) IsRoot() bool { return n.Parent == "" }

func (n FrameNode) validate() error {
	if n.ID == "" {
		return fmt.Errorf("%w: empty frame ID", ErrFrameBadInput)
	}
	if n.Parent == n.ID {
		return fmt.Errorf("%w: %q is its own parent", ErrCycleDetected, n.ID)
	}
	if n.Model == nil {
		return fmt.Errorf("%w: %q has no frame model", ErrFrameBadInput, n.ID)
	}
	if n.PhysicalRadiusM < 0 || n.MassKg < 0 {
		return fmt.Errorf("%w: %q has negative radius or mass", ErrFrameBadInput, n.ID)
	}
	if om, ok := n.Model.(OrbitalModel); ok {
		if err := om.Validate(); err != nil {
			return fmt.Errorf("%q: %w", n.ID, err)
		}
	}
	return nil
}

// FrameGraph is an in-memory, concurrency-safe store of frame nodes. It
// accepts nodes in any order; Validate (or Resolver) checks the whole graph.
type FrameGraph struct {
	mu    sync.RWMutex
	nodes map[model.BodyID]FrameNode
}

// NewFrameGraph creates an empty frame graph.
func NewFrameGraph() *FrameGraph {
	return &FrameGraph{nodes: make(map[model.BodyID]FrameNode)}
}

// AddFrame inserts a new node.
func (g *FrameGraph) AddFrame(n FrameNode) error {
	if err := n.validate(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %q", ErrFrameExists, n.ID)
	}
	g.nodes[n.ID] = n
	return nil
}

// ReplaceFrame overwrites an existing node.
func (g *FrameGraph) ReplaceFrame(n FrameNode) error {
	if err := n.validate(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[n.ID]; !exists {
		return fmt.Errorf("%w: %q", ErrFrameNotFound, n.ID)
	}
	g.nodes[n.ID] = n
	return nil
}

// DeleteFrame removes a node. Nodes that still have children are refused.
func (g *FrameGraph) DeleteFrame(id model.BodyID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; !exists {
		return fmt.Errorf("%w: %q", ErrFrameNotFound, id)
	}
	for _, n := range g.nodes {
		if n.Parent == id {
			return fmt.Errorf("%w: %q is parent of %q", ErrFrameInUse, id, n.ID)
		}
	}
	delete(g.nodes, id)
	return nil
}

// GetFrame returns a node by ID.
func (g *FrameGraph) GetFrame(id model.BodyID) (FrameNode, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return FrameNode{}, fmt.Errorf("%w: %q", ErrFrameNotFound, id)
	}
	return n, nil
}

// ListFrames returns every node sorted by ID.
func (g *FrameGraph) ListFrames() []FrameNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]FrameNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of nodes.
func (g *FrameGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Snapshot returns a copy of the node table.
func (g *FrameGraph) Snapshot() map[model.BodyID]FrameNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[model.BodyID]FrameNode, len(g.nodes))
	for id, n := range g.nodes {
		out[id] = n
	}
	return out
}

// Validate checks that the graph is a single tree: exactly one root, every
// parent exists and no node is its own ancestor.
func (g *FrameGraph) Validate() error {
	return validateNodes(g.Snapshot())
}

// Resolver validates the graph and returns a resolver over a snapshot of it.
// Later mutations of g do not affect the returned resolver.
func (g *FrameGraph) Resolver() (*Resolver, error) {
	nodes := g.Snapshot()
	if err := validateNodes(nodes); err != nil {
		return nil, err
	}
	return &Resolver{nodes: nodes}, nil
}

func validateNodes(nodes map[model.BodyID]FrameNode) error {
	ids := make([]model.BodyID, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var root model.BodyID
	for _, id := range ids {
		n := nodes[id]
		if n.IsRoot() {
			if root != "" {
				return fmt.Errorf("%w: %q and %q", ErrMultipleRoots, root, id)
			}
			root = id
			continue
		}
		if _, ok := nodes[n.Parent]; !ok {
			return fmt.Errorf("%w: parent %q of %q", ErrFrameNotFound, n.Parent, id)
		}
	}
	if len(nodes) > 0 && root == "" {
		return ErrNoRoot
	}

	// Every node must reach the root within len(nodes) steps.
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[model.BodyID]int, len(nodes))
	for _, id := range ids {
		var path []model.BodyID
		cur := id
		for state[cur] == unvisited {
			state[cur] = visiting
			path = append(path, cur)
			n := nodes[cur]
			if n.IsRoot() {
				break
			}
			cur = n.Parent
			if state[cur] == visiting {
				return fmt.Errorf("%w: through %q", ErrCycleDetected, cur)
			}
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return nil
}
