package gesture

import (
	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/sketch"
)

// Intent is an instruction for the editor or viewport produced by the machine.
type Intent interface {
	intent()
}

// PanBy translates the viewport by a screen delta.
type PanBy struct{ DX, DY float64 }

// ZoomAt zooms about a screen anchor.
type ZoomAt struct {
	Anchor geom.Point
	Factor float64
}

// WheelZoom is raw wheel input; the engine decides between inertia and a
// direct zoom.
type WheelZoom struct {
	Anchor geom.Point
	DeltaY float64
}

type Select struct {
	IDs      []graph.NodeID
	Additive bool
}

type ToggleSelect struct{ ID graph.NodeID }

type SelectEdge struct {
	Key      graph.EdgeKey
	Additive bool
}

type ClearSelection struct{}

// Guide is a full-canvas snap line. Vertical guides sit at X = At.
type Guide struct {
	Vertical bool
	At       float64
}

// MoveNodes is a live drag preview. It is never a history step.
type MoveNodes struct {
	Positions     map[graph.NodeID]geom.Point
	ControlPoints map[graph.EdgeKey][]geom.Point
	Guides        []Guide
}

// CommitMove ends a drag and records it.
type CommitMove struct{}

// CancelMove restores the positions a drag started from.
type CancelMove struct {
	Positions     map[graph.NodeID]geom.Point
	ControlPoints map[graph.EdgeKey][]geom.Point
}

// Marquee updates the rubber band overlay, in world space. Active is false
// when the band goes away.
type Marquee struct {
	Rect   geom.Rect
	Active bool
}

type MarqueeSelect struct {
	Nodes    []graph.NodeID
	Edges    []graph.EdgeKey
	Additive bool
}

type LinkPreview struct {
	Source graph.NodeID
	To     geom.Point
}

type LinkCreate struct{ Source, Target graph.NodeID }

type LinkCancel struct{ Source graph.NodeID }

// MoveControlPoints previews control point positions; Commit marks the end
// of the drag.
type MoveControlPoints struct {
	Points map[graph.EdgeKey][]geom.Point
	Commit bool
}

// ContextMenu opens the menu at a screen point. Node is empty on canvas.
type ContextMenu struct {
	Screen geom.Point
	World  geom.Point
	Node   graph.NodeID
}

type EditLabel struct{ ID graph.NodeID }

type StrokeBegin struct {
	Tool  sketch.Tool
	Point geom.Point
}

type StrokeAppend struct{ Point geom.Point }

type StrokeCommit struct{}

type StrokeCancel struct{}

type SetTool struct{ Tool Tool }

type CommandName string

const (
	CmdAddChild       CommandName = "addChild"
	CmdAddSibling     CommandName = "addSibling"
	CmdDelete         CommandName = "delete"
	CmdUndo           CommandName = "undo"
	CmdRedo           CommandName = "redo"
	CmdSelectAll      CommandName = "selectAll"
	CmdDeselect       CommandName = "deselect"
	CmdDuplicate      CommandName = "duplicate"
	CmdToggleCollapse CommandName = "toggleCollapse"
	CmdMoveUp         CommandName = "moveUp"
	CmdMoveDown       CommandName = "moveDown"
	CmdFitView        CommandName = "fitView"
	CmdZoomIn         CommandName = "zoomIn"
	CmdZoomOut        CommandName = "zoomOut"
	CmdEditLabel      CommandName = "editLabel"
)

// Command is a keyboard shortcut resolved to an editor action.
type Command struct{ Name CommandName }

func (PanBy) intent()             {}
func (ZoomAt) intent()            {}
func (WheelZoom) intent()         {}
func (Select) intent()            {}
func (ToggleSelect) intent()      {}
func (SelectEdge) intent()        {}
func (ClearSelection) intent()    {}
func (MoveNodes) intent()         {}
func (CommitMove) intent()        {}
func (CancelMove) intent()        {}
func (Marquee) intent()           {}
func (MarqueeSelect) intent()     {}
func (LinkPreview) intent()       {}
func (LinkCreate) intent()        {}
func (LinkCancel) intent()        {}
func (MoveControlPoints) intent() {}
func (ContextMenu) intent()       {}
func (EditLabel) intent()         {}
func (StrokeBegin) intent()       {}
func (StrokeAppend) intent()      {}
func (StrokeCommit) intent()      {}
func (StrokeCancel) intent()      {}
func (SetTool) intent()           {}
func (Command) intent()           {}
