package document

import (
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
	"github.com/mindweave/mindweave/backend-go/internal/sketch"
	"github.com/mindweave/mindweave/backend-go/internal/typeid"
	"github.com/mindweave/mindweave/backend-go/internal/viewport"
)

type sampleNode struct {
	label  string
	typ    graph.NodeType
	color  string
	parent int
	data   graph.Payload
}

// NewSampleDocument builds the onboarding map shown on first launch.
func NewSampleDocument(mapID string) *Document {
	nodes := []sampleNode{
		{label: "Mindweave", typ: graph.TypeRoot, color: "#6366f1", parent: -1},
		{label: "Ideas", typ: graph.TypeMain, color: "#f97316", parent: 0},
		{label: "Plans", typ: graph.TypeMain, color: "#22c55e", parent: 0},
		{label: "Notes", typ: graph.TypeMain, color: "#0ea5e9", parent: 0},
		{label: "Double-click to rename", typ: graph.TypeSub, parent: 1},
		{label: "Tab adds a child", typ: graph.TypeSub, parent: 1},
		{label: "Ship the beta", typ: graph.TypeTask, parent: 2, data: graph.TaskPayload{Description: "Invite ten testers"}},
		{label: "Pinch or scroll to zoom", typ: graph.TypeNote, parent: 3,
			data: graph.PlainPayload{Description: "Hold on empty canvas for the context menu."}},
	}

	g := graph.New()
	ids := make([]graph.NodeID, len(nodes))
	for i, s := range nodes {
		ids[i] = graph.NodeID(typeid.NewNodeID())
		_ = g.AddNode(&graph.Node{
			ID:    ids[i],
			Type:  s.typ,
			Label: s.label,
			Color: s.color,
			Shape: graph.ShapeRounded,
			Data:  s.data,
		})
		if s.parent >= 0 {
			_ = g.Link(ids[s.parent], ids[i], graph.DefaultEdgeStyle())
		}
	}
	pos, err := layout.Apply(layout.KindMindmap, g)
	if err == nil {
		for id, p := range pos {
			_ = g.Move(id, p)
		}
	}

	arrow := graph.DefaultEdgeStyle()
	arrow.Dash, arrow.Marker, arrow.Label = graph.DashDashed, graph.MarkerArrow, "unblocks"
	_ = g.Link(ids[4], ids[6], arrow)

	return &Document{
		Version:     Version,
		ID:          mapID,
		ProjectName: "Welcome",
		Graph:       g,
		Drawings: []sketch.Path{{
			ID:     typeid.NewDrawingID(),
			Tool:   sketch.ToolHighlighter,
			Color:  "#facc1580",
			Width:  16,
			Points: []geom.Point{{X: -120, Y: 60}, {X: 0, Y: 70}, {X: 120, Y: 60}},
		}},
		Viewport:  viewport.Default(),
		Settings:  DefaultSettings(),
		Collapsed: graph.CollapseSet{},
		UpdatedAt: time.Now().UTC(),
	}
}
