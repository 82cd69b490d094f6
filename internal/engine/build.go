package engine

import (
	"github.com/mindweave/mindweave/backend-go/internal/editor"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
)

const (
	strokeDefault  = "#cbd5e1"
	strokeSelected = "#2563eb"
)

var typeFill = map[graph.NodeType]string{
	graph.TypeRoot:  "#1e293b",
	graph.TypeMain:  "#ffffff",
	graph.TypeSub:   "#ffffff",
	graph.TypeNote:  "#fef9c3",
	graph.TypeMedia: "#f8fafc",
	graph.TypeTask:  "#ffffff",
	graph.TypeCode:  "#0f172a",
	graph.TypeTable: "#ffffff",
}

// BuildSceneGraph resolves the editor's visible nodes and the edges between
// them into a render-ready scene graph.
func BuildSceneGraph(ed *editor.Editor) *SceneGraph {
	sg := NewSceneGraph()
	g := ed.Graph()
	visible := ed.VisibleNodeIDs()
	shown := make(map[graph.NodeID]bool, len(visible))
	for _, id := range visible {
		shown[id] = true
	}
	collapsed := ed.Collapsed()

	for _, n := range g.Nodes() {
		if !shown[n.ID] {
			continue
		}
		sn := &SceneNode{
			ID:       n.ID,
			Type:     n.Type,
			Label:    n.Label,
			Shape:    n.Shape,
			Fill:     n.Color,
			Stroke:   strokeDefault,
			Center:   n.Position(),
			Bounds:   n.Bounds(),
			Selected: ed.IsSelected(n.ID),
			Locked:   n.Locked,
			Checked:  n.Checked,
			Dreaming: n.Dreaming,
		}
		if sn.Fill == "" {
			sn.Fill = typeFill[n.Type]
		}
		if sn.Selected {
			sn.Stroke = strokeSelected
		}
		if collapsed.Has(n.ID) {
			sn.HiddenChildren = len(g.TreeChildren(n.ID))
		}
		sg.Nodes = append(sg.Nodes, sn)
		sg.NodesByID[n.ID] = sn
		sg.Bounds = sg.Bounds.Union(sn.Bounds)
	}

	selectedEdges := make(map[graph.EdgeKey]bool)
	for _, k := range ed.SelectedEdges() {
		selectedEdges[k] = true
	}
	for _, e := range g.Edges() {
		src, ok1 := sg.NodesByID[e.Source]
		dst, ok2 := sg.NodesByID[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		path := layout.RouteBetween(e.Style, src.Bounds, dst.Bounds)
		se := &SceneEdge{
			Key:      e.Key(),
			Style:    e.Style,
			Path:     path,
			Bounds:   path.Bounds(),
			Selected: selectedEdges[e.Key()],
		}
		sg.Edges = append(sg.Edges, se)
		sg.EdgesByKey[se.Key] = se
	}
	return sg
}
