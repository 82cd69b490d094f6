package graph

import (
	"encoding/json"
	"slices"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
)

// CollapseSet holds the ids whose subtrees are hidden. It is kept apart from
// the nodes so collapsing never touches node data or history.
type CollapseSet map[NodeID]struct{}

// Has reports whether id is collapsed.
func (c CollapseSet) Has(id NodeID) bool {
	_, ok := c[id]
	return ok
}

// Toggle collapses id and every descendant, or expands id alone when it is
// already collapsed. Descendants stay collapsed so expansion nests. It
// returns true when id ends up collapsed.
func (c CollapseSet) Toggle(g *Graph, id NodeID) bool {
	if c.Has(id) {
		delete(c, id)
		return false
	}
	c[id] = struct{}{}
	for _, d := range g.Descendants(id) {
		c[d] = struct{}{}
	}
	return true
}

// Prune drops ids that no longer exist in g.
func (c CollapseSet) Prune(g *Graph) {
	for id := range c {
		if !g.Has(id) {
			delete(c, id)
		}
	}
}

// IDs returns the collapsed ids in sorted order.
func (c CollapseSet) IDs() []NodeID {
	out := make([]NodeID, 0, len(c))
	for id := range c {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (c CollapseSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.IDs())
}

func (c *CollapseSet) UnmarshalJSON(b []byte) error {
	var ids []NodeID
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*c = make(CollapseSet, len(ids))
	for _, id := range ids {
		(*c)[id] = struct{}{}
	}
	return nil
}

// VisibleNodeIDs walks breadth first from every root, not descending into the
// children of collapsed nodes. Only tree children are followed, so a node is
// hidden whenever an ancestor on its parent chain is collapsed.
func (g *Graph) VisibleNodeIDs(collapsed CollapseSet) []NodeID {
	visible := make([]NodeID, 0, len(g.order))
	seen := make(map[NodeID]bool, len(g.order))
	queue := g.Roots()
	for _, r := range queue {
		seen[r] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visible = append(visible, id)
		if collapsed.Has(id) {
			continue
		}
		for _, c := range g.TreeChildren(id) {
			if !seen[c] {
				seen[c] = true
				queue = append(queue, c)
			}
		}
	}
	return visible
}

// BoundingBox returns the union of the given nodes' bounds grown by padding.
// With no ids it covers every node. An empty graph yields a zero rect.
func (g *Graph) BoundingBox(ids []NodeID, padding float64) geom.Rect {
	if len(ids) == 0 {
		ids = g.order
	}
	var box geom.Rect
	found := false
	for _, id := range ids {
		n, ok := g.nodes[id]
		if !ok {
			continue
		}
		if !found {
			box = n.Bounds()
			found = true
			continue
		}
		box = box.Union(n.Bounds())
	}
	if !found {
		return geom.Rect{}
	}
	return box.Expand(padding)
}
