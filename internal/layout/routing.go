package layout

import (
	"math"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

const (
	// CurveTangent is the fraction of the source-target offset used for the
	// Bezier handles of an unshaped curved edge.
	CurveTangent = 0.5
	// SplineTension scales Catmull-Rom tangents.
	SplineTension = 1.0
	flattenSteps  = 16
)

type SegmentOp string

const (
	OpMove  SegmentOp = "M"
	OpLine  SegmentOp = "L"
	OpCubic SegmentOp = "C"
)

// Segment is one path command. Move and Line carry one point, Cubic carries
// two handles and the end point.
type Segment struct {
	Op     SegmentOp
	Points []geom.Point
}

// Path is a routed edge in world space.
type Path struct {
	Segments []Segment
}

func (p *Path) moveTo(pt geom.Point) {
	p.Segments = append(p.Segments, Segment{Op: OpMove, Points: []geom.Point{pt}})
}

func (p *Path) lineTo(pt geom.Point) {
	p.Segments = append(p.Segments, Segment{Op: OpLine, Points: []geom.Point{pt}})
}

func (p *Path) cubicTo(c1, c2, end geom.Point) {
	p.Segments = append(p.Segments, Segment{Op: OpCubic, Points: []geom.Point{c1, c2, end}})
}

// Route builds the path for an edge from source to target through the
// given control points.
func Route(routing graph.RoutingType, source, target geom.Point, control []geom.Point) Path {
	pts := make([]geom.Point, 0, len(control)+2)
	pts = append(pts, source)
	pts = append(pts, control...)
	pts = append(pts, target)

	var p Path
	p.moveTo(source)
	switch routing {
	case graph.RoutingStraight:
		for _, pt := range pts[1:] {
			p.lineTo(pt)
		}
	case graph.RoutingOrthogonal:
		for i := 1; i < len(pts); i++ {
			a, b := pts[i-1], pts[i]
			if math.Abs(b.X-a.X) >= math.Abs(b.Y-a.Y) {
				mx := (a.X + b.X) / 2
				p.lineTo(geom.Pt(mx, a.Y))
				p.lineTo(geom.Pt(mx, b.Y))
			} else {
				my := (a.Y + b.Y) / 2
				p.lineTo(geom.Pt(a.X, my))
				p.lineTo(geom.Pt(b.X, my))
			}
			p.lineTo(b)
		}
	default:
		if len(control) == 0 {
			c1, c2 := curveHandles(source, target)
			p.cubicTo(c1, c2, target)
		} else {
			catmullRom(&p, pts)
		}
	}
	return p
}

// curveHandles returns tangent handles along the dominant axis.
func curveHandles(s, t geom.Point) (geom.Point, geom.Point) {
	d := t.Sub(s)
	if math.Abs(d.X) >= math.Abs(d.Y) {
		return geom.Pt(s.X+d.X*CurveTangent, s.Y), geom.Pt(t.X-d.X*CurveTangent, t.Y)
	}
	return geom.Pt(s.X, s.Y+d.Y*CurveTangent), geom.Pt(t.X, t.Y-d.Y*CurveTangent)
}

// catmullRom chains cubic Beziers through pts. Phantom end points reflect the
// first and last real segments.
func catmullRom(p *Path, pts []geom.Point) {
	n := len(pts)
	ext := make([]geom.Point, 0, n+2)
	ext = append(ext, pts[0].Mul(2).Sub(pts[1]))
	ext = append(ext, pts...)
	ext = append(ext, pts[n-1].Mul(2).Sub(pts[n-2]))

	k := SplineTension / 6
	for i := 1; i < len(ext)-2; i++ {
		p0, p1, p2, p3 := ext[i-1], ext[i], ext[i+1], ext[i+2]
		c1 := p1.Add(p2.Sub(p0).Mul(k))
		c2 := p2.Sub(p3.Sub(p1).Mul(k))
		p.cubicTo(c1, c2, p2)
	}
}

// Commands returns the path as ["M",x,y] / ["L",x,y] / ["C",x1,y1,x2,y2,x,y]
// arrays for the renderer.
func (p Path) Commands() [][]any {
	out := make([][]any, 0, len(p.Segments))
	for _, s := range p.Segments {
		cmd := []any{string(s.Op)}
		for _, pt := range s.Points {
			cmd = append(cmd, pt.X, pt.Y)
		}
		out = append(out, cmd)
	}
	return out
}

// Flatten samples the path as a polyline.
func (p Path) Flatten() []geom.Point {
	var out []geom.Point
	var cur geom.Point
	for _, s := range p.Segments {
		switch s.Op {
		case OpMove, OpLine:
			cur = s.Points[0]
			out = append(out, cur)
		case OpCubic:
			c1, c2, end := s.Points[0], s.Points[1], s.Points[2]
			for i := 1; i <= flattenSteps; i++ {
				out = append(out, cubicAt(cur, c1, c2, end, float64(i)/flattenSteps))
			}
			cur = end
		}
	}
	return out
}

func cubicAt(p0, p1, p2, p3 geom.Point, t float64) geom.Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return geom.Pt(
		a*p0.X+b*p1.X+c*p2.X+d*p3.X,
		a*p0.Y+b*p1.Y+c*p2.Y+d*p3.Y,
	)
}

// Distance returns the distance from pt to the nearest point on the path.
func (p Path) Distance(pt geom.Point) float64 {
	poly := p.Flatten()
	switch len(poly) {
	case 0:
		return math.Inf(1)
	case 1:
		return pt.Dist(poly[0])
	}
	best := math.Inf(1)
	for i := 1; i < len(poly); i++ {
		best = min(best, geom.SegmentDistance(pt, poly[i-1], poly[i]))
	}
	return best
}

// Midpoint returns the point halfway along the path, used for edge labels.
func (p Path) Midpoint() geom.Point {
	poly := p.Flatten()
	if len(poly) == 0 {
		return geom.Point{}
	}
	total := 0.0
	for i := 1; i < len(poly); i++ {
		total += poly[i].Dist(poly[i-1])
	}
	half := total / 2
	for i := 1; i < len(poly); i++ {
		l := poly[i].Dist(poly[i-1])
		if l >= half && l > 0 {
			return poly[i-1].Lerp(poly[i], half/l)
		}
		half -= l
	}
	return poly[len(poly)-1]
}

// Bounds returns the extent of the flattened path.
func (p Path) Bounds() geom.Rect {
	poly := p.Flatten()
	if len(poly) == 0 {
		return geom.Rect{}
	}
	lo, hi := poly[0], poly[0]
	for _, pt := range poly[1:] {
		lo.X, lo.Y = min(lo.X, pt.X), min(lo.Y, pt.Y)
		hi.X, hi.Y = max(hi.X, pt.X), max(hi.Y, pt.Y)
	}
	return geom.RectFromPoints(lo, hi)
}

// RouteBetween routes an edge from the border of src to the border of dst,
// so markers sit on the outline rather than under the node.
func RouteBetween(style graph.EdgeStyle, src, dst geom.Rect) Path {
	towardSrc, towardDst := dst.Center(), src.Center()
	if n := len(style.ControlPoints); n > 0 {
		towardSrc, towardDst = style.ControlPoints[0], style.ControlPoints[n-1]
	}
	from := BorderPoint(src, towardSrc)
	to := BorderPoint(dst, towardDst)
	return Route(style.Routing, from, to, style.ControlPoints)
}

// BorderPoint is where the ray from r's centre toward p leaves r. Points
// inside r map to the centre.
func BorderPoint(r geom.Rect, p geom.Point) geom.Point {
	c := r.Center()
	d := p.Sub(c)
	if r.Contains(p) || d.Len() < geom.Epsilon {
		return c
	}
	t := math.Inf(1)
	if d.X != 0 {
		t = min(t, r.Width/2/math.Abs(d.X))
	}
	if d.Y != 0 {
		t = min(t, r.Height/2/math.Abs(d.Y))
	}
	return c.Add(d.Mul(min(t, 1)))
}
