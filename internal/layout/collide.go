package layout

import (
	"math"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

const (
	// DefaultMinDistance is the centre-to-centre separation kept between nodes.
	DefaultMinDistance = 150.0
	// DefaultMaxIterations bounds PushNodesAside on dense clusters.
	DefaultMaxIterations = 50
)

// separationSlack absorbs float noise so relaxation stops once pairs settle.
const separationSlack = 1e-6

// goldenAngle spreads coincident nodes in distinct directions.
const goldenAngle = 2.399963229728653

// PushNodesAside separates nodes closer than minDist. The anchor, usually the
// node just placed or moved, never moves; a node overlapping the anchor is
// pushed straight away from it, other overlapping pairs split the correction.
// It runs until a pass moves nothing or maxIter passes have run, and returns
// new positions. Input without overlaps comes back unchanged.
func PushNodesAside(pos Positions, anchor graph.NodeID, minDist float64, maxIter int) Positions {
	out := pos.Clone()
	if minDist <= 0 || maxIter <= 0 {
		return out
	}
	ids := out.sortedIDs()

	for iter := 0; iter < maxIter; iter++ {
		moved := false
		for i, a := range ids {
			for j := i + 1; j < len(ids); j++ {
				b := ids[j]
				pa, pb := out[a], out[b]
				d := pb.Sub(pa)
				dist := d.Len()
				if dist >= minDist-separationSlack {
					continue
				}
				dir := d.Unit()
				if dist < geom.Epsilon {
					angle := float64(i*len(ids)+j) * goldenAngle
					dir = geom.Pt(math.Cos(angle), math.Sin(angle))
				}
				overlap := minDist - dist
				switch anchor {
				case a:
					out[b] = pb.Add(dir.Mul(overlap))
				case b:
					out[a] = pa.Sub(dir.Mul(overlap))
				default:
					out[a] = pa.Sub(dir.Mul(overlap / 2))
					out[b] = pb.Add(dir.Mul(overlap / 2))
				}
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return out
}
