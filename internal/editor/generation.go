package editor

import (
	"fmt"

	"github.com/mindweave/mindweave/backend-go/internal/generate"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
)

// BeginGeneration flags id as waiting for generated content. The flag is
// display state only and is never recorded in history.
func (e *Editor) BeginGeneration(id graph.NodeID) bool {
	n, ok := e.g.Node(id)
	if !ok {
		e.ignore("beginGeneration", graph.ErrNodeNotFound, "node", id)
		return false
	}
	if n.Dreaming {
		return false
	}
	if e.dreaming == nil {
		e.dreaming = make(map[graph.NodeID]struct{})
	}
	e.dreaming[id] = struct{}{}
	_ = e.g.Update(id, func(n *graph.Node) { n.Dreaming = true })
	e.preview()
	return true
}

// FinishGeneration grafts tree's children under id as one step. The patch
// is built on a copy and swapped in whole, so a failure leaves the graph as
// it was before the call.
func (e *Editor) FinishGeneration(id graph.NodeID, tree *generate.Tree, inheritStyle bool) (int, error) {
	e.endGeneration(id)
	if !e.g.Has(id) {
		return 0, fmt.Errorf("apply generation: %w: %s", graph.ErrNodeNotFound, id)
	}
	if tree.Size() == 0 {
		return 0, generate.ErrEmpty
	}

	live := e.g
	e.g = live.Clone()
	added, err := e.graft(id, tree.Children, inheritStyle)
	if err != nil {
		e.g = live
		return 0, fmt.Errorf("apply generation: %w", err)
	}
	e.commit()
	return added, nil
}

// FailGeneration clears the waiting flag without touching anything else.
func (e *Editor) FailGeneration(id graph.NodeID) {
	e.endGeneration(id)
	e.preview()
}

func (e *Editor) endGeneration(id graph.NodeID) {
	delete(e.dreaming, id)
	if n, ok := e.g.Node(id); ok && n.Dreaming {
		_ = e.g.Update(id, func(n *graph.Node) { n.Dreaming = false })
	}
}

// syncDreaming re-applies the waiting flags after the graph was swapped
// for a history snapshot.
func (e *Editor) syncDreaming() {
	for _, n := range e.g.Nodes() {
		_, want := e.dreaming[n.ID]
		if n.Dreaming != want {
			_ = e.g.Update(n.ID, func(n *graph.Node) { n.Dreaming = want })
		}
	}
}

func (e *Editor) graft(parentID graph.NodeID, branches []generate.Tree, inheritStyle bool) (int, error) {
	parent, ok := e.g.Node(parentID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, parentID)
	}
	added := 0
	for _, b := range branches {
		typ := graph.ChildType(parent.Type)
		pos := e.childSlot(parent)
		n := &graph.Node{
			ID:    graph.NodeID(e.newID()),
			X:     pos.X,
			Y:     pos.Y,
			Type:  typ,
			Label: b.Label,
			Data:  graph.DefaultPayload(typ),
		}
		if inheritStyle {
			n.Color, n.Shape = parent.Color, parent.Shape
		}
		if err := e.g.AddNode(n); err != nil {
			return added, err
		}
		if err := e.g.Link(parentID, n.ID, graph.DefaultEdgeStyle()); err != nil {
			return added, err
		}
		if e.mode == layout.KindMindmap {
			e.applyPositions(layout.Organic(e.g, parentID))
		}
		added++
	}
	// Place a level before descending so grandchildren grow away from it.
	kids := e.g.TreeChildren(parentID)
	offset := len(kids) - len(branches)
	for i, b := range branches {
		if len(b.Children) == 0 {
			continue
		}
		n, err := e.graft(kids[offset+i], b.Children, inheritStyle)
		added += n
		if err != nil {
			return added, err
		}
	}
	return added, nil
}
