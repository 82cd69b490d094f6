package editor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
)

// DuplicateOffset shifts a duplicated subtree away from its original.
const DuplicateOffset = 40.0

// AddOptions describes a node to create. With no Parent the node becomes an
// unparented root. AsSibling treats Parent as the sibling to add next to.
type AddOptions struct {
	Parent    graph.NodeID
	AsSibling bool
	Type      graph.NodeType
	Shape     graph.Shape
	Position  *geom.Point
	Label     string
}

func defaultLabel(t graph.NodeType) string {
	switch t {
	case graph.TypeRoot:
		return "Central topic"
	case graph.TypeMain:
		return "Main topic"
	case graph.TypeNote:
		return "Note"
	case graph.TypeTask:
		return "Task"
	case graph.TypeCode:
		return "Snippet"
	case graph.TypeTable:
		return "Table"
	case graph.TypeMedia:
		return "Image"
	default:
		return "New idea"
	}
}

// AddNode creates a node, links it under its parent with a default edge
// style and selects it. In mindmap mode an automatically placed child is
// positioned by the organic layout of its parent. Neighbours are then pushed
// aside. It returns false when the request is invalid.
func (e *Editor) AddNode(opts AddOptions) (graph.NodeID, bool) {
	parentID := opts.Parent
	if opts.AsSibling && parentID != "" {
		anchor, ok := e.g.Node(parentID)
		if !ok {
			e.ignore("addNode", graph.ErrNodeNotFound, "sibling", parentID)
			return "", false
		}
		parentID, _ = e.g.Parent(anchor.ID)
		if parentID == "" && opts.Position == nil {
			p := anchor.Position().Add(geom.Pt(0, layout.LevelGap))
			opts.Position = &p
		}
	}

	var parent *graph.Node
	if parentID != "" {
		p, ok := e.g.Node(parentID)
		if !ok {
			e.ignore("addNode", graph.ErrNodeNotFound, "parent", parentID)
			return "", false
		}
		parent = p
	}

	typ := opts.Type
	if typ == "" {
		typ = graph.TypeMain
		if parent != nil {
			typ = graph.ChildType(parent.Type)
		}
	}
	if !typ.Valid() {
		e.ignore("addNode", graph.ErrInvalidNode, "type", typ)
		return "", false
	}

	n := &graph.Node{
		ID:    graph.NodeID(e.newID()),
		Type:  typ,
		Label: opts.Label,
		Shape: opts.Shape,
		Data:  graph.DefaultPayload(typ),
	}
	if n.Label == "" {
		n.Label = defaultLabel(typ)
	}
	auto := opts.Position == nil && parent != nil
	switch {
	case opts.Position != nil:
		n.X, n.Y = opts.Position.X, opts.Position.Y
	case parent != nil:
		p := e.childSlot(parent)
		n.X, n.Y = p.X, p.Y
	}

	if err := e.g.AddNode(n); err != nil {
		e.ignore("addNode", err)
		return "", false
	}
	if parent != nil {
		if err := e.g.Link(parent.ID, n.ID, graph.DefaultEdgeStyle()); err != nil {
			e.g.RemoveNodes(n.ID)
			e.ignore("addNode", err)
			return "", false
		}
		if auto && e.mode == layout.KindMindmap {
			e.applyPositions(layout.Organic(e.g, parent.ID))
		}
		delete(e.collapsed, parent.ID)
	}
	e.pushAside(n.ID)

	e.selection, e.edgeSel = []graph.NodeID{n.ID}, nil
	e.commit()
	return n.ID, true
}

// childSlot is where a new child of parent starts. In mindmap mode it sits
// on the parent so the organic layout treats it as pending; otherwise it
// goes right of the parent below the last child.
func (e *Editor) childSlot(parent *graph.Node) geom.Point {
	if e.mode == layout.KindMindmap {
		return parent.Position()
	}
	kids := e.g.TreeChildren(parent.ID)
	if len(kids) == 0 {
		return parent.Position().Add(geom.Pt(layout.LevelGap, 0))
	}
	last, _ := e.g.Node(kids[len(kids)-1])
	_, h := graph.NodeSize(last.Type)
	return geom.Pt(parent.X+layout.LevelGap, last.Y+h+layout.SiblingGap)
}

// applyPositions moves every unlocked node in pos.
func (e *Editor) applyPositions(pos layout.Positions) int {
	moved := 0
	for id, p := range pos {
		n, ok := e.g.Node(id)
		if !ok || n.Locked || !p.Finite() {
			continue
		}
		if n.Position() != p {
			_ = e.g.Move(id, p)
			moved++
		}
	}
	return moved
}

// pushAside separates nodes crowding anchor.
func (e *Editor) pushAside(anchor graph.NodeID) {
	pos := layout.Snapshot(e.g)
	pushed := layout.PushNodesAside(pos, anchor, e.minDist, layout.DefaultMaxIterations)
	e.applyPositions(pushed.Diff(e.g))
}

// DeleteSelection removes the selected nodes and edges. Children of removed
// nodes are unlinked, not deleted.
func (e *Editor) DeleteSelection() bool {
	if len(e.selection) == 0 && len(e.edgeSel) == 0 {
		return false
	}
	changed := false
	for _, k := range e.edgeSel {
		if err := e.g.Unlink(k.Source, k.Target); err == nil {
			changed = true
		}
	}
	if removed := e.g.RemoveNodes(e.selection...); len(removed) > 0 {
		changed = true
	}
	e.selection, e.edgeSel = nil, nil
	if !changed {
		e.preview()
		return false
	}
	e.collapsed.Prune(e.g)
	e.commit()
	return true
}

// DeleteNodes removes the given nodes as one step.
func (e *Editor) DeleteNodes(ids ...graph.NodeID) bool {
	removed := e.g.RemoveNodes(ids...)
	if len(removed) == 0 {
		return false
	}
	e.collapsed.Prune(e.g)
	e.pruneSelection()
	e.commit()
	return true
}

// DeleteEdge unlinks one edge.
func (e *Editor) DeleteEdge(key graph.EdgeKey) bool {
	if err := e.g.Unlink(key.Source, key.Target); err != nil {
		e.ignore("deleteEdge", err)
		return false
	}
	e.edgeSel = slices.DeleteFunc(e.edgeSel, func(k graph.EdgeKey) bool { return k == key })
	e.commit()
	return true
}

// Connect links source to target with the default style. Duplicate links,
// self-loops and cycles are ignored.
func (e *Editor) Connect(source, target graph.NodeID) bool {
	if err := e.g.Link(source, target, graph.DefaultEdgeStyle()); err != nil {
		e.ignore("connect", err, "source", source, "target", target)
		return false
	}
	e.commit()
	return true
}

// ToggleCollapse hides or shows id's subtree. Collapse state is view state:
// it is persisted but is not an undo step.
func (e *Editor) ToggleCollapse(id graph.NodeID) bool {
	if !e.g.Has(id) {
		e.ignore("toggleCollapse", graph.ErrNodeNotFound, "node", id)
		return false
	}
	collapsed := e.collapsed.Toggle(e.g, id)
	if collapsed {
		hidden := e.g.Descendants(id)
		e.selection = slices.DeleteFunc(e.selection, func(s graph.NodeID) bool {
			return slices.Contains(hidden, s)
		})
	}
	e.revision++
	e.changes++
	return collapsed
}

// PreviewMove shows nodes and control points at new positions without
// recording a step. Locked nodes do not move.
func (e *Editor) PreviewMove(pos map[graph.NodeID]geom.Point, ctrl map[graph.EdgeKey][]geom.Point) {
	if e.applyPositions(pos) > 0 {
		e.moving = true
	}
	for k, pts := range ctrl {
		if e.setControlPoints(k, pts) {
			e.moving = true
		}
	}
	e.preview()
}

// CancelMove restores positions captured when a drag began.
func (e *Editor) CancelMove(pos map[graph.NodeID]geom.Point, ctrl map[graph.EdgeKey][]geom.Point) {
	e.applyPositions(pos)
	for k, pts := range ctrl {
		e.setControlPoints(k, pts)
	}
	e.moving = false
	e.preview()
}

// CommitMove records a finished drag. A single dragged node pushes its
// neighbours aside.
func (e *Editor) CommitMove() bool {
	if !e.moving {
		return false
	}
	e.moving = false
	if len(e.selection) == 1 {
		e.pushAside(e.selection[0])
	}
	e.commit()
	return true
}

// MoveNodes sets positions as one step.
func (e *Editor) MoveNodes(pos map[graph.NodeID]geom.Point) bool {
	if e.applyPositions(pos) == 0 {
		return false
	}
	e.commit()
	return true
}

// MoveControlPoints replaces edge control points. Without commit it is a
// live preview.
func (e *Editor) MoveControlPoints(points map[graph.EdgeKey][]geom.Point, commit bool) bool {
	changed := false
	for k, pts := range points {
		if e.setControlPoints(k, pts) {
			changed = true
		}
	}
	if commit {
		e.commit()
		return true
	}
	if changed {
		e.preview()
	}
	return changed
}

func (e *Editor) setControlPoints(k graph.EdgeKey, pts []geom.Point) bool {
	style, ok := e.g.EdgeStyle(k)
	if !ok {
		return false
	}
	style.ControlPoints = slices.Clone(pts)
	return e.g.SetEdgeStyle(k, style) == nil
}

// SetLabel renames a node.
func (e *Editor) SetLabel(id graph.NodeID, label string) bool {
	n, ok := e.g.Node(id)
	if !ok {
		e.ignore("setLabel", graph.ErrNodeNotFound, "node", id)
		return false
	}
	if n.Label == label {
		return false
	}
	_ = e.g.Update(id, func(n *graph.Node) { n.Label = label })
	e.commit()
	return true
}

// SetColor recolours nodes. Intermediate values from a picker pass
// commit=false; only the final value records a step.
func (e *Editor) SetColor(ids []graph.NodeID, color string, commit bool) bool {
	if !e.updateEach("setColor", ids, func(n *graph.Node) { n.Color = color }) {
		return false
	}
	if commit {
		e.commit()
	} else {
		e.preview()
	}
	return true
}

func (e *Editor) SetShape(ids []graph.NodeID, shape graph.Shape) bool {
	return e.updateAndCommit("setShape", ids, func(n *graph.Node) { n.Shape = shape })
}

func (e *Editor) ToggleLocked(ids []graph.NodeID) bool {
	return e.updateAndCommit("toggleLocked", ids, func(n *graph.Node) { n.Locked = !n.Locked })
}

func (e *Editor) ToggleChecked(id graph.NodeID) bool {
	return e.updateAndCommit("toggleChecked", []graph.NodeID{id}, func(n *graph.Node) { n.Checked = !n.Checked })
}

// SetType changes a node's type, swapping in the matching empty payload when
// the current one does not fit.
func (e *Editor) SetType(id graph.NodeID, t graph.NodeType) bool {
	if !t.Valid() {
		e.ignore("setType", graph.ErrInvalidNode, "type", t)
		return false
	}
	return e.updateAndCommit("setType", []graph.NodeID{id}, func(n *graph.Node) {
		n.Type = t
		want := graph.DefaultPayload(t)
		switch {
		case want == nil:
			if n.Data != nil && n.Data.Kind() != graph.KindPlain {
				n.Data = nil
			}
		case n.Data == nil || n.Data.Kind() != want.Kind():
			n.Data = want
		}
	})
}

// SetPayload replaces a node's type-specific data.
func (e *Editor) SetPayload(id graph.NodeID, p graph.Payload) bool {
	return e.updateAndCommit("setPayload", []graph.NodeID{id}, func(n *graph.Node) { n.Data = p })
}

func (e *Editor) updateAndCommit(op string, ids []graph.NodeID, fn func(n *graph.Node)) bool {
	if !e.updateEach(op, ids, fn) {
		return false
	}
	e.commit()
	return true
}

func (e *Editor) updateEach(op string, ids []graph.NodeID, fn func(n *graph.Node)) bool {
	changed := false
	for _, id := range ids {
		if err := e.g.Update(id, fn); err != nil {
			e.ignore(op, err)
			continue
		}
		changed = true
	}
	return changed
}

// SetEdgeStyle restyles an edge. Control points are kept unless style
// carries its own.
func (e *Editor) SetEdgeStyle(key graph.EdgeKey, style graph.EdgeStyle) bool {
	cur, ok := e.g.EdgeStyle(key)
	if !ok {
		e.ignore("setEdgeStyle", graph.ErrEdgeNotFound, "edge", key)
		return false
	}
	if style.ControlPoints == nil {
		style.ControlPoints = cur.ControlPoints
	}
	if err := e.g.SetEdgeStyle(key, style); err != nil {
		e.ignore("setEdgeStyle", err)
		return false
	}
	e.commit()
	return true
}

// ApplyLayout arranges the map with kind. With two or more nodes selected
// only the selection is laid out, keeping its centroid in place.
func (e *Editor) ApplyLayout(kind layout.Kind) error {
	var (
		pos layout.Positions
		err error
	)
	if len(e.selection) >= 2 {
		pos, err = layout.Partial(kind, e.g, e.selection)
	} else {
		pos, err = layout.Apply(kind, e.g)
	}
	if err != nil {
		return fmt.Errorf("apply layout: %w", err)
	}
	if len(e.selection) < 2 {
		e.mode = kind
	}
	e.applyPositions(pos)
	e.commit()
	return nil
}

// DuplicateSubtree copies id and its tree descendants next to the original,
// under the same parent, and selects the copy.
func (e *Editor) DuplicateSubtree(id graph.NodeID) (graph.NodeID, bool) {
	if !e.g.Has(id) {
		e.ignore("duplicate", graph.ErrNodeNotFound, "node", id)
		return "", false
	}
	ids := append([]graph.NodeID{id}, e.g.Descendants(id)...)
	remap := make(map[graph.NodeID]graph.NodeID, len(ids))
	for _, old := range ids {
		remap[old] = graph.NodeID(e.newID())
	}

	next := e.g.Clone()
	offset := geom.Pt(DuplicateOffset, DuplicateOffset)
	for _, old := range ids {
		src, _ := e.g.Node(old)
		n := src.Clone()
		n.ID = remap[old]
		n.X, n.Y = n.X+offset.X, n.Y+offset.Y
		n.Dreaming = false
		if err := next.AddNode(n); err != nil {
			e.ignore("duplicate", err)
			return "", false
		}
	}
	var errs []error
	for _, old := range ids {
		for _, child := range e.g.TreeChildren(old) {
			style, _ := e.g.EdgeStyle(graph.Key(old, child))
			for i := range style.ControlPoints {
				style.ControlPoints[i] = style.ControlPoints[i].Add(offset)
			}
			errs = append(errs, next.Link(remap[old], remap[child], style))
		}
	}
	if parent, ok := e.g.Parent(id); ok {
		style, _ := e.g.EdgeStyle(graph.Key(parent, id))
		style.ControlPoints = nil
		errs = append(errs, next.Link(parent, remap[id], style))
	}
	if err := errors.Join(errs...); err != nil {
		e.ignore("duplicate", err)
		return "", false
	}

	e.g = next
	e.selection, e.edgeSel = []graph.NodeID{remap[id]}, nil
	e.commit()
	return remap[id], true
}

// MoveSibling shifts id up (delta < 0) or down among its parent's children.
func (e *Editor) MoveSibling(id graph.NodeID, delta int) bool {
	parent, ok := e.g.Parent(id)
	if !ok {
		e.ignore("moveSibling", graph.ErrNodeNotFound, "parent of", id)
		return false
	}
	before := e.g.Children(parent)
	if err := e.g.ReorderChild(parent, id, delta); err != nil {
		e.ignore("moveSibling", err)
		return false
	}
	if slices.Equal(before, e.g.Children(parent)) {
		return false
	}
	if e.mode != layout.KindMindmap {
		// swap places with the neighbour so the order is visible
		kids := e.g.Children(parent)
		idx := slices.Index(kids, id)
		other := before[idx]
		a, _ := e.g.Node(id)
		b, _ := e.g.Node(other)
		pa, pb := a.Position(), b.Position()
		e.applyPositions(layout.Positions{id: pb, other: pa})
	}
	e.commit()
	return true
}
