// Package geom holds the small 2D vocabulary shared by the canvas packages:
// points, axis-aligned rectangles and affine matrices.
package geom

import "math"

// Epsilon is the tolerance used for float comparisons on canvas coordinates.
const Epsilon = 1e-9

// Point is a 2D coordinate, in world or screen space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

func (p Point) Mul(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Len returns the Euclidean length of p as a vector.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Lerp interpolates between p (t=0) and q (t=1).
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Mid returns the midpoint of p and q.
func (p Point) Mid(q Point) Point {
	return p.Lerp(q, 0.5)
}

// Unit returns p scaled to length 1. The zero vector is returned unchanged.
func (p Point) Unit() Point {
	l := p.Len()
	if l < Epsilon {
		return Point{}
	}
	return Point{p.X / l, p.Y / l}
}

// Angle returns the direction of p in radians.
func (p Point) Angle() float64 {
	return math.Atan2(p.Y, p.X)
}

// Polar returns the point at the given angle and radius around p.
func (p Point) Polar(angle, radius float64) Point {
	return Point{p.X + math.Cos(angle)*radius, p.Y + math.Sin(angle)*radius}
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// ApproxEqual compares two points within tol.
func (p Point) ApproxEqual(q Point, tol float64) bool {
	return math.Abs(p.X-q.X) <= tol && math.Abs(p.Y-q.Y) <= tol
}

// Centroid returns the mean of pts, or the zero point when pts is empty.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sum Point
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(pts)))
}

// SegmentDistance returns the distance from p to the segment ab.
func SegmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 < Epsilon {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Mul(t)))
}

// NormalizeAngle maps a to (-π, π].
func NormalizeAngle(a float64) float64 {
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
