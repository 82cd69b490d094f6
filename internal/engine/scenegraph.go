package engine

import (
	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
)

// Hit tolerances, in screen pixels.
const (
	EdgeHitTolerance    = 8.0
	ControlPointRadius  = 8.0
	LinkHandleRadius    = 9.0
	LinkHandleOffset    = 14.0
	collapseBadgeRadius = 10.0
)

// SceneGraph is the render-ready state of the visible part of the map. It is
// retained between frames and rebuilt only when the editor reports a change.
type SceneGraph struct {
	// Nodes are in painter's order (back to front).
	Nodes      []*SceneNode
	NodesByID  map[graph.NodeID]*SceneNode
	Edges      []*SceneEdge
	EdgesByKey map[graph.EdgeKey]*SceneEdge
	Bounds     geom.Rect
}

// SceneNode is a resolved node ready for rendering.
type SceneNode struct {
	ID     graph.NodeID
	Type   graph.NodeType
	Label  string
	Shape  graph.Shape
	Fill   string
	Stroke string
	Center geom.Point
	Bounds geom.Rect

	Selected bool
	Locked   bool
	Checked  bool
	Dreaming bool
	// HiddenChildren counts tree children hidden by a collapse, shown as a badge.
	HiddenChildren int
}

// SceneEdge is a routed edge between two visible nodes.
type SceneEdge struct {
	Key      graph.EdgeKey
	Style    graph.EdgeStyle
	Path     layout.Path
	Bounds   geom.Rect
	Selected bool
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y].
type PathCommand []any

func NewSceneGraph() *SceneGraph {
	return &SceneGraph{
		NodesByID:  make(map[graph.NodeID]*SceneNode),
		EdgesByKey: make(map[graph.EdgeKey]*SceneEdge),
	}
}

// NodeAt returns the topmost node whose bounds contain p.
func (sg *SceneGraph) NodeAt(p geom.Point) (graph.NodeID, bool) {
	for i := len(sg.Nodes) - 1; i >= 0; i-- {
		if sg.Nodes[i].Bounds.Contains(p) {
			return sg.Nodes[i].ID, true
		}
	}
	return "", false
}

// LinkHandle is the anchor on the right side of a selected node that starts
// a link drag.
func (n *SceneNode) LinkHandle(zoom float64) geom.Point {
	return geom.Pt(n.Bounds.X+n.Bounds.Width+LinkHandleOffset/zoom, n.Center.Y)
}

func (sg *SceneGraph) LinkHandleAt(p geom.Point, zoom float64) (graph.NodeID, bool) {
	r := LinkHandleRadius / zoom
	for i := len(sg.Nodes) - 1; i >= 0; i-- {
		n := sg.Nodes[i]
		if n.Selected && n.LinkHandle(zoom).Dist(p) <= r {
			return n.ID, true
		}
	}
	return "", false
}

// EdgeAt returns the edge nearest to p within the hit tolerance.
func (sg *SceneGraph) EdgeAt(p geom.Point, zoom float64) (graph.EdgeKey, bool) {
	tol := EdgeHitTolerance / zoom
	var best graph.EdgeKey
	bestDist, found := tol, false
	for _, e := range sg.Edges {
		if !e.Bounds.Expand(tol).Contains(p) {
			continue
		}
		if d := e.Path.Distance(p); d <= bestDist {
			best, bestDist, found = e.Key, d, true
		}
	}
	return best, found
}

// ControlPointAt only considers selected edges.
func (sg *SceneGraph) ControlPointAt(p geom.Point, zoom float64) (graph.EdgeKey, int, bool) {
	r := ControlPointRadius / zoom
	for i := len(sg.Edges) - 1; i >= 0; i-- {
		e := sg.Edges[i]
		if !e.Selected {
			continue
		}
		for idx, cp := range e.Style.ControlPoints {
			if cp.Dist(p) <= r {
				return e.Key, idx, true
			}
		}
	}
	return graph.EdgeKey{}, 0, false
}

// NodesInRect returns nodes entirely inside r.
func (sg *SceneGraph) NodesInRect(r geom.Rect) []graph.NodeID {
	var out []graph.NodeID
	for _, n := range sg.Nodes {
		if r.ContainsRect(n.Bounds) {
			out = append(out, n.ID)
		}
	}
	return out
}

// EdgesInRect returns edges whose route lies entirely inside r.
func (sg *SceneGraph) EdgesInRect(r geom.Rect) []graph.EdgeKey {
	var out []graph.EdgeKey
	for _, e := range sg.Edges {
		if r.ContainsRect(e.Bounds) {
			out = append(out, e.Key)
		}
	}
	return out
}

// SelectionBounds returns the combined bounds of the given nodes.
func (sg *SceneGraph) SelectionBounds(ids []graph.NodeID) geom.Rect {
	var out geom.Rect
	for _, id := range ids {
		if n, ok := sg.NodesByID[id]; ok {
			out = out.Union(n.Bounds)
		}
	}
	return out
}
