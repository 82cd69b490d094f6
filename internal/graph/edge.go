package graph

import (
	"slices"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
)

// EdgeKey identifies the implicit edge Source → Target, which exists whenever
// Source lists Target among its children.
type EdgeKey struct {
	Source NodeID `json:"source"`
	Target NodeID `json:"target"`
}

// Key returns the EdgeKey for source → target.
func Key(source, target NodeID) EdgeKey {
	return EdgeKey{Source: source, Target: target}
}

// Touches reports whether id is either endpoint.
func (k EdgeKey) Touches(id NodeID) bool {
	return k.Source == id || k.Target == id
}

func (k EdgeKey) String() string {
	return string(k.Source) + " -> " + string(k.Target)
}

type DashStyle string

const (
	DashSolid  DashStyle = "solid"
	DashDashed DashStyle = "dashed"
	DashDotted DashStyle = "dotted"
)

type MarkerType string

const (
	MarkerNone   MarkerType = "none"
	MarkerArrow  MarkerType = "arrow"
	MarkerCircle MarkerType = "circle"
)

type RoutingType string

const (
	RoutingStraight   RoutingType = "straight"
	RoutingCurved     RoutingType = "curved"
	RoutingOrthogonal RoutingType = "orthogonal"
)

// EdgeStyle holds the presentation attributes of an edge.
type EdgeStyle struct {
	Dash          DashStyle    `json:"dash"`
	Color         string       `json:"color"`
	Width         float64      `json:"width"`
	Marker        MarkerType   `json:"marker"`
	Routing       RoutingType  `json:"routing"`
	ControlPoints []geom.Point `json:"controlPoints,omitempty"`
	Label         string       `json:"label,omitempty"`
	Animated      bool         `json:"animated,omitempty"`
}

// DefaultEdgeStyle is the style given to newly created parent → child edges.
func DefaultEdgeStyle() EdgeStyle {
	return EdgeStyle{
		Dash:    DashSolid,
		Color:   "#94a3b8",
		Width:   2,
		Marker:  MarkerNone,
		Routing: RoutingCurved,
	}
}

// Clone returns a deep copy of the style.
func (s EdgeStyle) Clone() EdgeStyle {
	s.ControlPoints = slices.Clone(s.ControlPoints)
	return s
}

// Edge is the serialised form of an edge: its key plus style.
type Edge struct {
	Source NodeID    `json:"source"`
	Target NodeID    `json:"target"`
	Style  EdgeStyle `json:"style"`
}

// Key returns the edge identity.
func (e Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target}
}
