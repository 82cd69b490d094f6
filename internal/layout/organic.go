package layout

import (
	"math"
	"slices"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

// OrganicHalfArc bounds how far a non-root parent's children may turn away
// from the direction the parent grew in. Children never point back within
// π-OrganicHalfArc of the grandparent.
const OrganicHalfArc = math.Pi * 0.6

// Organic lays out only the tree children of parentID. Children already
// placed away from the parent keep their angle and distance (pulled into
// the allowed arc if needed); children still sitting on the parent, which is
// where new nodes are created, go into the widest free angular gap.
func Organic(g *graph.Graph, parentID graph.NodeID) Positions {
	parent, ok := g.Node(parentID)
	if !ok {
		return Positions{}
	}
	kids := g.TreeChildren(parentID)
	out := make(Positions, len(kids))
	if len(kids) == 0 {
		return out
	}
	center := parent.Position()

	// Arc of allowed directions, as offsets from base.
	base, half := 0.0, math.Pi
	full := true
	if gp, ok := g.Parent(parentID); ok {
		gn, _ := g.Node(gp)
		if away := center.Sub(gn.Position()); away.Len() > geom.Epsilon {
			base, half, full = away.Angle(), OrganicHalfArc, false
		}
	}

	var placed []float64
	var pending []graph.NodeID
	radii := 0.0
	for _, id := range kids {
		n, _ := g.Node(id)
		off := n.Position().Sub(center)
		dist := off.Len()
		if dist < 1 {
			pending = append(pending, id)
			continue
		}
		rel := geom.NormalizeAngle(off.Angle() - base)
		radii += dist
		if !full && math.Abs(rel) > half {
			rel = max(-half, min(half, rel))
			out[id] = center.Polar(base+rel, dist)
		} else {
			out[id] = n.Position()
		}
		placed = append(placed, rel)
	}

	radius := OrganicRadius
	if len(placed) > 0 {
		radius = radii / float64(len(placed))
	}
	for _, id := range pending {
		rel := widestGap(placed, half, full)
		placed = append(placed, rel)
		out[id] = center.Polar(base+rel, radius)
	}
	return out
}

// widestGap returns the middle of the largest free interval among angles.
// For a full circle the first angle is 0 and gaps wrap around; otherwise the
// interval is [-half, half] and its ends count as boundaries.
func widestGap(angles []float64, half float64, full bool) float64 {
	if len(angles) == 0 {
		return 0
	}
	sorted := slices.Clone(angles)
	slices.Sort(sorted)

	var bounds []float64
	if full {
		bounds = append(sorted, sorted[0]+2*math.Pi)
	} else {
		bounds = append([]float64{-half}, sorted...)
		bounds = append(bounds, half)
	}

	best, bestAt := -1.0, 0.0
	for i := 1; i < len(bounds); i++ {
		gap := bounds[i] - bounds[i-1]
		if gap > best+geom.Epsilon {
			best, bestAt = gap, bounds[i-1]+gap/2
		}
	}
	return geom.NormalizeAngle(bestAt)
}
