package layout

import (
	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

type Orientation int

const (
	TopDown Orientation = iota
	LeftRight
)

// Flowchart assigns ranks by breadth-first depth from the roots, following
// every link, and spaces each rank evenly around the first root.
func Flowchart(g *graph.Graph, o Orientation) Positions {
	out := make(Positions, g.Len())
	roots := g.Roots()
	if len(roots) == 0 {
		roots = g.IDs()[:min(1, g.Len())]
	}
	if len(roots) == 0 {
		return out
	}
	first, _ := g.Node(roots[0])
	origin := first.Position()

	rank := make(map[graph.NodeID]int, g.Len())
	var ranks [][]graph.NodeID
	add := func(id graph.NodeID, r int) {
		rank[id] = r
		for len(ranks) <= r {
			ranks = append(ranks, nil)
		}
		ranks[r] = append(ranks[r], id)
	}

	queue := make([]graph.NodeID, 0, g.Len())
	for _, r := range roots {
		add(r, 0)
		queue = append(queue, r)
	}
	visit := func() {
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, c := range g.Children(id) {
				if _, ok := rank[c]; ok {
					continue
				}
				add(c, rank[id]+1)
				queue = append(queue, c)
			}
		}
	}
	visit()
	for _, id := range g.IDs() {
		if _, ok := rank[id]; !ok {
			add(id, 0)
			queue = append(queue, id)
			visit()
		}
	}

	for r, ids := range ranks {
		for i, id := range ids {
			along := (float64(i) - float64(len(ids)-1)/2) * RankNodeGap
			if o == LeftRight {
				out[id] = origin.Add(geom.Pt(float64(r)*LevelGap, along/2))
			} else {
				out[id] = origin.Add(geom.Pt(along, float64(r)*RankGap))
			}
		}
	}
	return out
}
