package layout

import (
	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

type treeLayout struct {
	g       *graph.Graph
	f       forest
	heights map[graph.NodeID]float64
	out     Positions
}

func newTreeLayout(g *graph.Graph) *treeLayout {
	return &treeLayout{
		g:       g,
		f:       buildForest(g),
		heights: map[graph.NodeID]float64{},
		out:     make(Positions, g.Len()),
	}
}

// subtreeHeight is the vertical span a node's subtree needs: the larger of
// its own height and its children's stacked spans.
func (t *treeLayout) subtreeHeight(id graph.NodeID) float64 {
	if h, ok := t.heights[id]; ok {
		return h
	}
	n, _ := t.g.Node(id)
	_, own := graph.NodeSize(n.Type)
	h := t.stackHeight(t.f.children[id])
	h = max(h, own)
	t.heights[id] = h
	return h
}

func (t *treeLayout) stackHeight(ids []graph.NodeID) float64 {
	total := 0.0
	for i, c := range ids {
		total += t.subtreeHeight(c)
		if i > 0 {
			total += SiblingGap
		}
	}
	return total
}

// stack centres ids vertically on at.Y, one level away from at in dir.
func (t *treeLayout) stack(ids []graph.NodeID, at geom.Point, dir float64) {
	y := at.Y - t.stackHeight(ids)/2
	for _, c := range ids {
		h := t.subtreeHeight(c)
		p := geom.Pt(at.X+dir*LevelGap, y+h/2)
		t.out[c] = p
		t.stack(t.f.children[c], p, dir)
		y += h + SiblingGap
	}
}

func (t *treeLayout) rootPosition(id graph.NodeID) geom.Point {
	n, _ := t.g.Node(id)
	p := n.Position()
	t.out[id] = p
	return p
}

// Tree grows every root's subtree to the right. Roots keep their positions.
func Tree(g *graph.Graph) Positions {
	t := newTreeLayout(g)
	for _, r := range t.f.roots {
		t.stack(t.f.children[r], t.rootPosition(r), 1)
	}
	return t.out
}

// Mindmap splits each root's children between the right and left sides,
// each child going to the currently lighter side, so branches alternate
// and balance by subtree size.
func Mindmap(g *graph.Graph) Positions {
	t := newTreeLayout(g)
	for _, r := range t.f.roots {
		at := t.rootPosition(r)
		var right, left []graph.NodeID
		var rh, lh float64
		for _, c := range t.f.children[r] {
			h := t.subtreeHeight(c)
			if rh <= lh {
				right = append(right, c)
				rh += h + SiblingGap
			} else {
				left = append(left, c)
				lh += h + SiblingGap
			}
		}
		t.stack(right, at, 1)
		t.stack(left, at, -1)
	}
	return t.out
}
