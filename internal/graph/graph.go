// Package graph is the in-memory node/edge model of a mind map.
//
// Edges are implicit: Source → Target exists while Source lists Target in
// ChildrenIDs. Styles are stored separately, keyed by EdgeKey, and are removed
// in the same call that removes the underlying link.
package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
)

var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrDuplicateNode = errors.New("duplicate node id")
	ErrInvalidNode   = errors.New("invalid node")
	ErrEdgeNotFound  = errors.New("edge not found")
	ErrDuplicateEdge = errors.New("edge already exists")
	ErrSelfLoop      = errors.New("edge would link a node to itself")
	ErrCycle         = errors.New("edge would create a cycle")
)

// Graph owns nodes and edge styles. It is not safe for concurrent use.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID
	edges map[EdgeKey]*EdgeStyle
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[NodeID]*Node),
		edges: make(map[EdgeKey]*EdgeStyle),
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Has reports whether id exists.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with the given id. The returned node must not be
// modified directly; use Update, Move, Link and friends.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// IDs returns all node ids in insertion order.
func (g *Graph) IDs() []NodeID {
	return slices.Clone(g.order)
}

// AddNode inserts n as an unlinked node. Structural fields on n are reset;
// use Link to attach it.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.ID == "" {
		return ErrInvalidNode
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	if n.Type == "" {
		n.Type = TypeSub
	}
	n.ParentID = ""
	n.ChildrenIDs = nil
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// Link appends target to source's children and records its style. A target
// without a parent adopts source as its parent.
func (g *Graph) Link(source, target NodeID, style EdgeStyle) error {
	src, ok := g.nodes[source]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, source)
	}
	tgt, ok := g.nodes[target]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, target)
	}
	if source == target {
		return ErrSelfLoop
	}
	if src.HasChild(target) {
		return ErrDuplicateEdge
	}
	if g.Reachable(target, source) {
		return ErrCycle
	}

	src.ChildrenIDs = append(src.ChildrenIDs, target)
	if tgt.ParentID == "" || !g.Has(tgt.ParentID) {
		tgt.ParentID = source
	}
	s := style.Clone()
	g.edges[Key(source, target)] = &s
	return nil
}

// Unlink removes the source → target edge and its style.
func (g *Graph) Unlink(source, target NodeID) error {
	src, ok := g.nodes[source]
	if !ok || !src.HasChild(target) {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, Key(source, target))
	}
	src.ChildrenIDs = slices.DeleteFunc(src.ChildrenIDs, func(id NodeID) bool { return id == target })
	delete(g.edges, Key(source, target))

	if tgt, ok := g.nodes[target]; ok && tgt.ParentID == source {
		tgt.ParentID = g.firstLister(target)
	}
	return nil
}

// RemoveNodes deletes the given nodes, strips them from every remaining
// node's children, purges every edge style touching them and re-points (or
// clears) the parent of children they leave behind. Children are not deleted.
// It returns the ids actually removed.
func (g *Graph) RemoveNodes(ids ...NodeID) []NodeID {
	doomed := make(map[NodeID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := g.nodes[id]; ok {
			doomed[id] = struct{}{}
		}
	}
	if len(doomed) == 0 {
		return nil
	}

	removed := make([]NodeID, 0, len(doomed))
	g.order = slices.DeleteFunc(g.order, func(id NodeID) bool {
		if _, ok := doomed[id]; ok {
			removed = append(removed, id)
			delete(g.nodes, id)
			return true
		}
		return false
	})

	for _, n := range g.nodes {
		n.ChildrenIDs = slices.DeleteFunc(n.ChildrenIDs, func(id NodeID) bool {
			_, gone := doomed[id]
			return gone
		})
	}
	for key := range g.edges {
		_, s := doomed[key.Source]
		_, t := doomed[key.Target]
		if s || t {
			delete(g.edges, key)
		}
	}
	for _, id := range g.order {
		n := g.nodes[id]
		if _, gone := doomed[n.ParentID]; gone {
			n.ParentID = g.firstLister(id)
		}
	}
	return removed
}

// firstLister returns the first node (in insertion order) listing id as a child.
func (g *Graph) firstLister(id NodeID) NodeID {
	for _, oid := range g.order {
		if g.nodes[oid].HasChild(id) {
			return oid
		}
	}
	return ""
}

// Move sets a node's centre.
func (g *Graph) Move(id NodeID, p geom.Point) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n.X, n.Y = p.X, p.Y
	return nil
}

// Update applies fn to a node. Structural fields (ID, ParentID, ChildrenIDs)
// are restored after fn returns.
func (g *Graph) Update(id NodeID, fn func(n *Node)) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	parent, children := n.ParentID, slices.Clone(n.ChildrenIDs)
	fn(n)
	n.ID, n.ParentID, n.ChildrenIDs = id, parent, children
	return nil
}

// EdgeStyle returns the style for an existing edge. Links without a stored
// style report the default style.
func (g *Graph) EdgeStyle(key EdgeKey) (EdgeStyle, bool) {
	src, ok := g.nodes[key.Source]
	if !ok || !src.HasChild(key.Target) {
		return EdgeStyle{}, false
	}
	if s, ok := g.edges[key]; ok {
		return s.Clone(), true
	}
	return DefaultEdgeStyle(), true
}

// SetEdgeStyle replaces the style of an existing edge.
func (g *Graph) SetEdgeStyle(key EdgeKey, style EdgeStyle) error {
	src, ok := g.nodes[key.Source]
	if !ok || !src.HasChild(key.Target) {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, key)
	}
	s := style.Clone()
	g.edges[key] = &s
	return nil
}

// HasEdge reports whether source lists target as a child.
func (g *Graph) HasEdge(key EdgeKey) bool {
	src, ok := g.nodes[key.Source]
	return ok && src.HasChild(key.Target)
}

// Edges returns every edge in node order, then child order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, id := range g.order {
		for _, child := range g.nodes[id].ChildrenIDs {
			style, _ := g.EdgeStyle(Key(id, child))
			out = append(out, Edge{Source: id, Target: child, Style: style})
		}
	}
	return out
}

// Children returns a copy of a node's children.
func (g *Graph) Children(id NodeID) []NodeID {
	if n, ok := g.nodes[id]; ok {
		return slices.Clone(n.ChildrenIDs)
	}
	return nil
}

// TreeChildren returns the children whose parent back-reference is id,
// excluding cross-links.
func (g *Graph) TreeChildren(id NodeID) []NodeID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	var out []NodeID
	for _, c := range n.ChildrenIDs {
		if child, ok := g.nodes[c]; ok && child.ParentID == id {
			out = append(out, c)
		}
	}
	return out
}

// Roots returns nodes with no parent or whose parent is absent.
func (g *Graph) Roots() []NodeID {
	var out []NodeID
	for _, id := range g.order {
		n := g.nodes[id]
		if n.ParentID == "" || !g.Has(n.ParentID) {
			out = append(out, id)
		}
	}
	return out
}

// Parent returns the parent of id, if any.
func (g *Graph) Parent(id NodeID) (NodeID, bool) {
	n, ok := g.nodes[id]
	if !ok || n.ParentID == "" || !g.Has(n.ParentID) {
		return "", false
	}
	return n.ParentID, true
}

// Depth returns the number of parent hops from id to its root.
func (g *Graph) Depth(id NodeID) int {
	depth := 0
	seen := map[NodeID]bool{id: true}
	for {
		p, ok := g.Parent(id)
		if !ok || seen[p] {
			return depth
		}
		seen[p] = true
		depth++
		id = p
	}
}

// Descendants returns every node reachable from id through tree children,
// breadth first, excluding id itself.
func (g *Graph) Descendants(id NodeID) []NodeID {
	var out []NodeID
	seen := map[NodeID]bool{id: true}
	queue := []NodeID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range g.TreeChildren(cur) {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}

// Reachable reports whether to can be reached from from by following
// children lists (cross-links included).
func (g *Graph) Reachable(from, to NodeID) bool {
	if from == to {
		return true
	}
	seen := map[NodeID]bool{from: true}
	stack := []NodeID{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := g.nodes[cur]
		if !ok {
			continue
		}
		for _, c := range n.ChildrenIDs {
			if c == to {
				return true
			}
			if !seen[c] {
				seen[c] = true
				stack = append(stack, c)
			}
		}
	}
	return false
}

// ReorderChild moves child by delta positions within parent's children.
func (g *Graph) ReorderChild(parent, child NodeID, delta int) error {
	p, ok := g.nodes[parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, parent)
	}
	idx := slices.Index(p.ChildrenIDs, child)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, Key(parent, child))
	}
	to := max(0, min(len(p.ChildrenIDs)-1, idx+delta))
	if to == idx {
		return nil
	}
	p.ChildrenIDs = slices.Delete(p.ChildrenIDs, idx, idx+1)
	p.ChildrenIDs = slices.Insert(p.ChildrenIDs, to, child)
	return nil
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make(map[NodeID]*Node, len(g.nodes)),
		order: slices.Clone(g.order),
		edges: make(map[EdgeKey]*EdgeStyle, len(g.edges)),
	}
	for id, n := range g.nodes {
		c.nodes[id] = n.Clone()
	}
	for k, s := range g.edges {
		cs := s.Clone()
		c.edges[k] = &cs
	}
	return c
}

// Validate checks the structural invariants and returns every violation.
func (g *Graph) Validate() error {
	var errs []error
	for _, id := range g.order {
		n := g.nodes[id]
		for _, c := range n.ChildrenIDs {
			if !g.Has(c) {
				errs = append(errs, fmt.Errorf("node %s lists missing child %s", id, c))
			}
		}
		if n.ParentID != "" {
			p, ok := g.nodes[n.ParentID]
			if !ok {
				errs = append(errs, fmt.Errorf("node %s has missing parent %s", id, n.ParentID))
			} else if !p.HasChild(id) {
				errs = append(errs, fmt.Errorf("node %s parent %s does not list it", id, n.ParentID))
			}
		}
	}
	for key := range g.edges {
		if !g.HasEdge(key) {
			errs = append(errs, fmt.Errorf("orphaned edge style %s", key))
		}
	}
	return errors.Join(errs...)
}

// Repair drops dangling references, orphaned edge styles and parent cycles
// left by corrupt input. It returns the number of fixes applied.
func (g *Graph) Repair() int {
	fixes := 0
	for _, id := range g.order {
		n := g.nodes[id]
		seen := map[NodeID]bool{}
		kept := n.ChildrenIDs[:0]
		for _, c := range n.ChildrenIDs {
			if c == id || !g.Has(c) || seen[c] {
				fixes++
				continue
			}
			seen[c] = true
			kept = append(kept, c)
		}
		n.ChildrenIDs = kept
	}
	for _, id := range g.order {
		n := g.nodes[id]
		if n.ParentID == "" {
			continue
		}
		if p, ok := g.nodes[n.ParentID]; !ok || !p.HasChild(id) {
			n.ParentID = g.firstLister(id)
			fixes++
		}
	}
	for _, id := range g.order {
		if g.parentCycle(id) {
			g.nodes[id].ParentID = ""
			fixes++
		}
	}
	for key := range g.edges {
		if !g.HasEdge(key) {
			delete(g.edges, key)
			fixes++
		}
	}
	return fixes
}

func (g *Graph) parentCycle(id NodeID) bool {
	seen := map[NodeID]bool{id: true}
	cur := id
	for {
		n := g.nodes[cur]
		if n.ParentID == "" || !g.Has(n.ParentID) {
			return false
		}
		if seen[n.ParentID] {
			return n.ParentID == id
		}
		seen[n.ParentID] = true
		cur = n.ParentID
	}
}

type graphJSON struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`
}

func (g *Graph) MarshalJSON() ([]byte, error) {
	out := graphJSON{Nodes: g.Nodes(), Edges: g.Edges()}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON loads nodes verbatim. Callers loading untrusted data should
// follow up with Repair.
func (g *Graph) UnmarshalJSON(b []byte) error {
	var in graphJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	fresh := New()
	for _, n := range in.Nodes {
		if n == nil || n.ID == "" {
			continue
		}
		if _, dup := fresh.nodes[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		if n.Type == "" {
			n.Type = TypeSub
		}
		fresh.nodes[n.ID] = n
		fresh.order = append(fresh.order, n.ID)
	}
	for _, e := range in.Edges {
		s := e.Style.Clone()
		fresh.edges[e.Key()] = &s
	}
	*g = *fresh
	return nil
}
