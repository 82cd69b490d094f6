package editor

import (
	"github.com/mindweave/mindweave/backend-go/internal/gesture"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

// Apply performs the document side of a gesture intent. It returns false
// for intents that only concern the view (pan, zoom, overlays, menus) so the
// caller can handle them.
func (e *Editor) Apply(in gesture.Intent) bool {
	switch in := in.(type) {
	case gesture.Select:
		e.Select(in.IDs, in.Additive)
	case gesture.ToggleSelect:
		e.ToggleSelect(in.ID)
	case gesture.SelectEdge:
		e.SelectEdge(in.Key, in.Additive)
	case gesture.ClearSelection:
		e.ClearSelection()
	case gesture.MarqueeSelect:
		e.MarqueeSelect(in.Nodes, in.Edges, in.Additive)
	case gesture.MoveNodes:
		e.PreviewMove(in.Positions, in.ControlPoints)
	case gesture.CommitMove:
		e.CommitMove()
	case gesture.CancelMove:
		e.CancelMove(in.Positions, in.ControlPoints)
	case gesture.LinkCreate:
		e.Connect(in.Source, in.Target)
	case gesture.MoveControlPoints:
		e.MoveControlPoints(in.Points, in.Commit)
	case gesture.StrokeBegin:
		e.BeginStroke(in.Tool, in.Point)
	case gesture.StrokeAppend:
		e.ExtendStroke(in.Point)
	case gesture.StrokeCommit:
		e.CommitStroke()
	case gesture.StrokeCancel:
		e.CancelStroke()
	case gesture.Command:
		return e.command(in.Name)
	default:
		return false
	}
	return true
}

func (e *Editor) command(name gesture.CommandName) bool {
	focus, hasFocus := e.focus()
	switch name {
	case gesture.CmdAddChild:
		if !hasFocus {
			if roots := e.g.Roots(); len(roots) > 0 {
				focus = roots[0]
			}
		}
		e.AddNode(AddOptions{Parent: focus})
	case gesture.CmdAddSibling:
		if hasFocus {
			e.AddNode(AddOptions{Parent: focus, AsSibling: true})
		}
	case gesture.CmdDelete:
		e.DeleteSelection()
	case gesture.CmdUndo:
		e.Undo()
	case gesture.CmdRedo:
		e.Redo()
	case gesture.CmdSelectAll:
		e.SelectAll()
	case gesture.CmdDeselect:
		e.ClearSelection()
	case gesture.CmdDuplicate:
		if hasFocus {
			e.DuplicateSubtree(focus)
		}
	case gesture.CmdToggleCollapse:
		if hasFocus {
			e.ToggleCollapse(focus)
		}
	case gesture.CmdMoveUp:
		if hasFocus {
			e.MoveSibling(focus, -1)
		}
	case gesture.CmdMoveDown:
		if hasFocus {
			e.MoveSibling(focus, 1)
		}
	default:
		return false
	}
	return true
}

// focus is the node keyboard commands act on: the most recently selected.
func (e *Editor) focus() (graph.NodeID, bool) {
	if len(e.selection) == 0 {
		return "", false
	}
	return e.selection[len(e.selection)-1], true
}
