// Package gesture turns raw pointer, touch, wheel and keyboard input into
// editing intents. The Machine reads the canvas through Scene and never
// mutates the graph; callers apply the returned intents.
package gesture

import (
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/viewport"
)

type Tool string

const (
	ToolSelect      Tool = "select"
	ToolHand        Tool = "hand"
	ToolConnect     Tool = "connect"
	ToolPen         Tool = "pen"
	ToolHighlighter Tool = "highlighter"
	ToolEraser      Tool = "eraser"
)

// Drawing reports whether t produces freehand strokes.
func (t Tool) Drawing() bool {
	return t == ToolPen || t == ToolHighlighter || t == ToolEraser
}

// Button follows the DOM MouseEvent.button numbering.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

type Modifiers struct {
	Alt   bool `json:"alt"`
	Shift bool `json:"shift"`
	Ctrl  bool `json:"ctrl"`
	Meta  bool `json:"meta"`
}

// Command reports whether the platform command key (Ctrl or Cmd) is held.
func (m Modifiers) Command() bool {
	return m.Ctrl || m.Meta
}

type Phase string

const (
	PhaseStart  Phase = "start"
	PhaseMove   Phase = "move"
	PhaseEnd    Phase = "end"
	PhaseCancel Phase = "cancel"
)

// PointerEvent is a mouse event in screen coordinates.
type PointerEvent struct {
	Phase  Phase      `json:"phase"`
	Pos    geom.Point `json:"pos"`
	Button Button     `json:"button"`
	Mods   Modifiers  `json:"mods"`
	Time   time.Time  `json:"-"`
}

type Touch struct {
	ID  int        `json:"id"`
	Pos geom.Point `json:"pos"`
}

// TouchEvent carries every touch still on the surface after the event,
// like the DOM TouchEvent.touches list.
type TouchEvent struct {
	Phase   Phase     `json:"phase"`
	Touches []Touch   `json:"touches"`
	Time    time.Time `json:"-"`
}

type WheelEvent struct {
	Pos    geom.Point `json:"pos"`
	DeltaY float64    `json:"deltaY"`
	Mods   Modifiers  `json:"mods"`
}

type KeyEvent struct {
	Key  string    `json:"key"`
	Mods Modifiers `json:"mods"`
}

// Scene is the read-only view of the canvas the machine needs. Points are
// in world space unless noted.
type Scene interface {
	Viewport() viewport.Viewport
	NodeAt(p geom.Point) (graph.NodeID, bool)
	// LinkHandleAt returns the node whose link handle is under p.
	LinkHandleAt(p geom.Point) (graph.NodeID, bool)
	EdgeAt(p geom.Point) (graph.EdgeKey, bool)
	// ControlPointAt only considers selected edges.
	ControlPointAt(p geom.Point) (graph.EdgeKey, int, bool)
	NodePosition(id graph.NodeID) (geom.Point, bool)
	NodeLocked(id graph.NodeID) bool
	IsSelected(id graph.NodeID) bool
	Selection() []graph.NodeID
	SelectedEdges() []graph.EdgeKey
	ControlPoints(key graph.EdgeKey) []geom.Point
	// InternalEdges returns edges whose endpoints are both in ids.
	InternalEdges(ids []graph.NodeID) []graph.EdgeKey
	NodesInRect(r geom.Rect) []graph.NodeID
	EdgesInRect(r geom.Rect) []graph.EdgeKey
	// SnapCandidates returns the positions of visible nodes other than id.
	SnapCandidates(id graph.NodeID) []geom.Point
}
