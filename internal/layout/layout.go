// Package layout computes node positions for a graph. Every function reads
// the graph and returns new positions; nothing here mutates its input.
package layout

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

// Positions maps node ids to world-space centres.
type Positions map[graph.NodeID]geom.Point

// Snapshot returns the current positions of every node in g.
func Snapshot(g *graph.Graph) Positions {
	out := make(Positions, g.Len())
	for _, n := range g.Nodes() {
		out[n.ID] = n.Position()
	}
	return out
}

// Clone returns a copy of p.
func (p Positions) Clone() Positions {
	out := make(Positions, len(p))
	for id, pt := range p {
		out[id] = pt
	}
	return out
}

// Diff returns the entries of p that differ from the node positions in g.
func (p Positions) Diff(g *graph.Graph) Positions {
	out := Positions{}
	for id, pt := range p {
		n, ok := g.Node(id)
		if !ok || !n.Position().ApproxEqual(pt, 1e-6) {
			out[id] = pt
		}
	}
	return out
}

// Translate shifts every position by d.
func (p Positions) Translate(d geom.Point) Positions {
	out := make(Positions, len(p))
	for id, pt := range p {
		out[id] = pt.Add(d)
	}
	return out
}

// Centroid returns the mean position of ids present in p.
func (p Positions) Centroid(ids []graph.NodeID) geom.Point {
	pts := make([]geom.Point, 0, len(ids))
	for _, id := range ids {
		if pt, ok := p[id]; ok {
			pts = append(pts, pt)
		}
	}
	return geom.Centroid(pts)
}

// sortedIDs returns the keys of p in a stable order.
func (p Positions) sortedIDs() []graph.NodeID {
	ids := make([]graph.NodeID, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

type Kind string

const (
	KindTree        Kind = "tree"
	KindMindmap     Kind = "mindmap"
	KindRadial      Kind = "radial"
	KindFlowchart   Kind = "flowchart"
	KindFlowchartLR Kind = "flowchart-lr"
)

var ErrUnknownKind = errors.New("unknown layout kind")

// Kinds lists the layouts Apply understands.
func Kinds() []Kind {
	return []Kind{KindTree, KindMindmap, KindRadial, KindFlowchart, KindFlowchartLR}
}

// ParseKind validates a layout name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if slices.Contains(Kinds(), k) {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Spacing, in world units.
const (
	LevelGap      = 240.0
	SiblingGap    = 24.0
	RadialStep    = 260.0
	RankGap       = 160.0
	RankNodeGap   = 220.0
	OrganicRadius = 240.0
)

// Apply runs the named layout over the whole graph.
func Apply(kind Kind, g *graph.Graph) (Positions, error) {
	switch kind {
	case KindTree:
		return Tree(g), nil
	case KindMindmap:
		return Mindmap(g), nil
	case KindRadial:
		return Radial(g), nil
	case KindFlowchart:
		return Flowchart(g, TopDown), nil
	case KindFlowchartLR:
		return Flowchart(g, LeftRight), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Partial lays out only the subset, then translates the result so the
// subset's centroid stays where it was. Positions outside the subset are
// not returned.
func Partial(kind Kind, g *graph.Graph, subset []graph.NodeID) (Positions, error) {
	sub := subgraph(g, subset)
	if sub.Len() == 0 {
		return Positions{}, nil
	}
	laid, err := Apply(kind, sub)
	if err != nil {
		return nil, err
	}
	before := Snapshot(sub).Centroid(sub.IDs())
	after := laid.Centroid(sub.IDs())
	return laid.Translate(before.Sub(after)), nil
}

// subgraph copies the listed nodes and the links among them. Tree links are
// restored first so each node keeps its original parent where possible.
func subgraph(g *graph.Graph, ids []graph.NodeID) *graph.Graph {
	sub := graph.New()
	keep := make(map[graph.NodeID]bool, len(ids))
	for _, id := range ids {
		n, ok := g.Node(id)
		if !ok || keep[id] {
			continue
		}
		keep[id] = true
		_ = sub.AddNode(n.Clone())
	}
	for _, tree := range []bool{true, false} {
		for _, id := range sub.IDs() {
			n, _ := g.Node(id)
			for _, c := range n.ChildrenIDs {
				if !keep[c] || sub.HasEdge(graph.Key(id, c)) {
					continue
				}
				child, _ := g.Node(c)
				if (child.ParentID == id) != tree {
					continue
				}
				style, _ := g.EdgeStyle(graph.Key(id, c))
				_ = sub.Link(id, c, style)
			}
		}
	}
	return sub
}

// forest is the spanning tree structure the layouts walk. Each node appears
// once; nodes stranded by parent cycles become extra roots.
type forest struct {
	roots    []graph.NodeID
	children map[graph.NodeID][]graph.NodeID
	depth    map[graph.NodeID]int
}

func buildForest(g *graph.Graph) forest {
	f := forest{
		children: make(map[graph.NodeID][]graph.NodeID, g.Len()),
		depth:    make(map[graph.NodeID]int, g.Len()),
	}
	seen := make(map[graph.NodeID]bool, g.Len())
	walk := func(root graph.NodeID) {
		seen[root] = true
		f.roots = append(f.roots, root)
		queue := []graph.NodeID{root}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, c := range g.TreeChildren(id) {
				if seen[c] {
					continue
				}
				seen[c] = true
				f.depth[c] = f.depth[id] + 1
				f.children[id] = append(f.children[id], c)
				queue = append(queue, c)
			}
		}
	}
	for _, r := range g.Roots() {
		walk(r)
	}
	for _, id := range g.IDs() {
		if !seen[id] {
			walk(id)
		}
	}
	return f
}

// leaves counts the leaves under id, counting id itself when it has no children.
func (f forest) leaves(id graph.NodeID) int {
	kids := f.children[id]
	if len(kids) == 0 {
		return 1
	}
	n := 0
	for _, c := range kids {
		n += f.leaves(c)
	}
	return n
}
