package layout

import (
	"math"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

// Radial places each node on a circle around its root with radius
// depth*RadialStep. Every subtree owns a wedge proportional to its leaf
// count, and children are centred in their wedge.
func Radial(g *graph.Graph) Positions {
	f := buildForest(g)
	out := make(Positions, g.Len())

	var place func(id graph.NodeID, center geom.Point, from, to float64)
	place = func(id graph.NodeID, center geom.Point, from, to float64) {
		kids := f.children[id]
		total := float64(f.leaves(id))
		a := from
		for _, c := range kids {
			span := (to - from) * float64(f.leaves(c)) / total
			mid := a + span/2
			out[c] = center.Polar(mid, float64(f.depth[c])*RadialStep)
			place(c, center, a, a+span)
			a += span
		}
	}

	for _, r := range f.roots {
		n, _ := g.Node(r)
		center := n.Position()
		out[r] = center
		place(r, center, 0, 2*math.Pi)
	}
	return out
}
