package engine

import (
	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/gesture"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/viewport"
)

// The engine is the gesture machine's view of the canvas. Hit tests use the
// retained scene graph; positions come from the live graph so a drag reads
// what the previous frame wrote.
var _ gesture.Scene = (*Engine)(nil)

func (e *Engine) Viewport() viewport.Viewport { return e.vp }

func (e *Engine) NodeAt(p geom.Point) (graph.NodeID, bool) {
	return e.scene().NodeAt(p)
}

func (e *Engine) LinkHandleAt(p geom.Point) (graph.NodeID, bool) {
	return e.scene().LinkHandleAt(p, e.vp.Zoom)
}

func (e *Engine) EdgeAt(p geom.Point) (graph.EdgeKey, bool) {
	return e.scene().EdgeAt(p, e.vp.Zoom)
}

func (e *Engine) ControlPointAt(p geom.Point) (graph.EdgeKey, int, bool) {
	return e.scene().ControlPointAt(p, e.vp.Zoom)
}

func (e *Engine) NodePosition(id graph.NodeID) (geom.Point, bool) {
	n, ok := e.ed.Graph().Node(id)
	if !ok {
		return geom.Point{}, false
	}
	return n.Position(), true
}

func (e *Engine) NodeLocked(id graph.NodeID) bool {
	n, ok := e.ed.Graph().Node(id)
	return ok && n.Locked
}

func (e *Engine) IsSelected(id graph.NodeID) bool { return e.ed.IsSelected(id) }

func (e *Engine) Selection() []graph.NodeID { return e.ed.Selection() }

func (e *Engine) SelectedEdges() []graph.EdgeKey { return e.ed.SelectedEdges() }

func (e *Engine) ControlPoints(key graph.EdgeKey) []geom.Point {
	style, ok := e.ed.Graph().EdgeStyle(key)
	if !ok || len(style.ControlPoints) == 0 {
		return nil
	}
	return append([]geom.Point(nil), style.ControlPoints...)
}

// InternalEdges returns the edges with both ends in ids; their control
// points travel with a group drag.
func (e *Engine) InternalEdges(ids []graph.NodeID) []graph.EdgeKey {
	in := make(map[graph.NodeID]bool, len(ids))
	for _, id := range ids {
		in[id] = true
	}
	var out []graph.EdgeKey
	for _, edge := range e.ed.Graph().Edges() {
		if in[edge.Source] && in[edge.Target] {
			out = append(out, edge.Key())
		}
	}
	return out
}

func (e *Engine) NodesInRect(r geom.Rect) []graph.NodeID { return e.scene().NodesInRect(r) }

func (e *Engine) EdgesInRect(r geom.Rect) []graph.EdgeKey { return e.scene().EdgesInRect(r) }

// SnapCandidates are the centres of the other visible nodes, or nothing
// when snapping is off.
func (e *Engine) SnapCandidates(exclude graph.NodeID) []geom.Point {
	if !e.settings.SnapToNodes {
		return nil
	}
	sg := e.scene()
	out := make([]geom.Point, 0, len(sg.Nodes))
	for _, n := range sg.Nodes {
		if n.ID != exclude {
			out = append(out, n.Center)
		}
	}
	return out
}
