package model

// BodyID identifies a body (and its reference frame) in the frame graph.
type BodyID string

// BodyKind is a free-form category for a body.
type BodyKind string

const (
	BodyKindStar      BodyKind = "STAR"
	BodyKindPlanet    BodyKind = "PLANET"
	BodyKindMoon      BodyKind = "MOON"
	BodyKindHabitat   BodyKind = "HABITAT"
	BodyKindReference BodyKind = "REFERENCE"
)

// BodyDefinition carries the descriptive metadata of a body. Geometry lives
// in the frame graph; this record is what operators see.
type BodyDefinition struct {
	ID          BodyID
	Name        string
	Kind        BodyKind
	CategoryTag string
}
