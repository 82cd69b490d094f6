package editor

import (
	"slices"

	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

// Selection returns the selected node ids in selection order.
func (e *Editor) Selection() []graph.NodeID {
	return slices.Clone(e.selection)
}

func (e *Editor) SelectedEdges() []graph.EdgeKey {
	return slices.Clone(e.edgeSel)
}

func (e *Editor) IsSelected(id graph.NodeID) bool {
	return slices.Contains(e.selection, id)
}

// Select replaces the selection, or extends it when additive. Unknown ids
// are dropped.
func (e *Editor) Select(ids []graph.NodeID, additive bool) {
	if !additive {
		e.selection, e.edgeSel = nil, nil
	}
	for _, id := range ids {
		if e.g.Has(id) && !slices.Contains(e.selection, id) {
			e.selection = append(e.selection, id)
		}
	}
	e.revision++
}

// ToggleSelect adds or removes one node.
func (e *Editor) ToggleSelect(id graph.NodeID) {
	if i := slices.Index(e.selection, id); i >= 0 {
		e.selection = slices.Delete(e.selection, i, i+1)
	} else if e.g.Has(id) {
		e.selection = append(e.selection, id)
	}
	e.revision++
}

// SelectEdge selects an edge. A non-additive edge selection clears nodes.
func (e *Editor) SelectEdge(key graph.EdgeKey, additive bool) {
	if !e.g.HasEdge(key) {
		return
	}
	if !additive {
		e.selection, e.edgeSel = nil, nil
	}
	if !slices.Contains(e.edgeSel, key) {
		e.edgeSel = append(e.edgeSel, key)
	}
	e.revision++
}

func (e *Editor) ClearSelection() {
	if len(e.selection) == 0 && len(e.edgeSel) == 0 {
		return
	}
	e.selection, e.edgeSel = nil, nil
	e.revision++
}

// SelectAll selects every visible node.
func (e *Editor) SelectAll() {
	e.selection = e.VisibleNodeIDs()
	e.edgeSel = nil
	e.revision++
}

// MarqueeSelect applies the result of a rubber band selection.
func (e *Editor) MarqueeSelect(nodes []graph.NodeID, edges []graph.EdgeKey, additive bool) {
	e.Select(nodes, additive)
	for _, k := range edges {
		if e.g.HasEdge(k) && !slices.Contains(e.edgeSel, k) {
			e.edgeSel = append(e.edgeSel, k)
		}
	}
}

// pruneSelection drops selected ids that no longer exist.
func (e *Editor) pruneSelection() {
	e.selection = slices.DeleteFunc(e.selection, func(id graph.NodeID) bool { return !e.g.Has(id) })
	e.edgeSel = slices.DeleteFunc(e.edgeSel, func(k graph.EdgeKey) bool { return !e.g.HasEdge(k) })
}
