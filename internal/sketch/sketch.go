// Package sketch models freehand drawing on the canvas.
package sketch

import (
	"slices"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
)

type Tool string

const (
	ToolPen         Tool = "pen"
	ToolHighlighter Tool = "highlighter"
	ToolEraser      Tool = "eraser"
)

// Path is a committed stroke. Points are in world space.
type Path struct {
	ID     string       `json:"id"`
	Points []geom.Point `json:"points"`
	Color  string       `json:"color"`
	Width  float64      `json:"width"`
	Tool   Tool         `json:"tool"`
}

// Clone returns a deep copy of the path.
func (p Path) Clone() Path {
	p.Points = slices.Clone(p.Points)
	return p
}

// Bounds returns the axis-aligned extent of the points, grown by half the
// stroke width.
func (p Path) Bounds() geom.Rect {
	if len(p.Points) == 0 {
		return geom.Rect{}
	}
	minP, maxP := p.Points[0], p.Points[0]
	for _, pt := range p.Points[1:] {
		minP.X, minP.Y = min(minP.X, pt.X), min(minP.Y, pt.Y)
		maxP.X, maxP.Y = max(maxP.X, pt.X), max(maxP.Y, pt.Y)
	}
	return geom.RectFromPoints(minP, maxP).Expand(p.Width / 2)
}

// Near reports whether pt lies within radius of any segment of the path.
func (p Path) Near(pt geom.Point, radius float64) bool {
	switch len(p.Points) {
	case 0:
		return false
	case 1:
		return p.Points[0].Dist(pt) <= radius+p.Width/2
	}
	for i := 1; i < len(p.Points); i++ {
		if geom.SegmentDistance(pt, p.Points[i-1], p.Points[i]) <= radius+p.Width/2 {
			return true
		}
	}
	return false
}

// ClonePaths deep-copies a slice of paths.
func ClonePaths(paths []Path) []Path {
	if paths == nil {
		return nil
	}
	out := make([]Path, len(paths))
	for i, p := range paths {
		out[i] = p.Clone()
	}
	return out
}

// Default stroke attributes per tool.
func DefaultStyle(tool Tool) (color string, width float64) {
	switch tool {
	case ToolHighlighter:
		return "#facc1580", 16
	case ToolEraser:
		return "", 20
	default:
		return "#0f172a", 3
	}
}

// Stroke accumulates points between pointer down and up. Nothing is visible
// to the document until Commit.
type Stroke struct {
	path   Path
	active bool
}

// Begin starts a new stroke at p.
func (s *Stroke) Begin(id string, tool Tool, color string, width float64, p geom.Point) {
	s.path = Path{ID: id, Tool: tool, Color: color, Width: width, Points: []geom.Point{p}}
	s.active = true
}

// Active reports whether a stroke is in progress.
func (s *Stroke) Active() bool {
	return s.active
}

// Append adds p unless it repeats the last point.
func (s *Stroke) Append(p geom.Point) {
	if !s.active || !p.Finite() {
		return
	}
	last := s.path.Points[len(s.path.Points)-1]
	if last.ApproxEqual(p, geom.Epsilon) {
		return
	}
	s.path.Points = append(s.path.Points, p)
}

// Preview returns the in-progress path.
func (s *Stroke) Preview() (Path, bool) {
	return s.path, s.active
}

// Commit ends the stroke and returns the finished path.
func (s *Stroke) Commit() (Path, bool) {
	if !s.active {
		return Path{}, false
	}
	p := s.path
	s.path, s.active = Path{}, false
	return p, true
}

// Cancel discards the in-progress stroke.
func (s *Stroke) Cancel() {
	s.path, s.active = Path{}, false
}

// Erase removes every path touched by the eraser trail and returns the
// remaining paths plus the number removed.
func Erase(paths []Path, trail []geom.Point, radius float64) ([]Path, int) {
	kept := make([]Path, 0, len(paths))
	removed := 0
	for _, p := range paths {
		hit := false
		for _, pt := range trail {
			if p.Near(pt, radius) {
				hit = true
				break
			}
		}
		if hit {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	return kept, removed
}
