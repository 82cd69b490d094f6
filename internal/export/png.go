package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
)

const (
	DefaultPadding = 40.0
	// MaxPixels caps the longer side of the rendered image.
	MaxPixels = 4096
	labelSize = 13.0
)

type PNGOptions struct {
	Padding float64 `json:"padding" validate:"gte=0,lte=500"`
	Scale   float64 `json:"scale" validate:"gte=0,lte=4"`
	// Background is a hex colour; empty means white.
	Background string `json:"background" validate:"omitempty,hexcolor"`
}

var parseMono = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gomono.TTF)
})

var defaultFill = map[graph.NodeType]string{
	graph.TypeRoot: "#1e293b",
	graph.TypeNote: "#fef9c3",
	graph.TypeCode: "#0f172a",
}

// PNG rasterises the visible part of the map: collapsed subtrees stay
// hidden, as they are on the canvas.
func PNG(w io.Writer, doc *document.Document, opts PNGOptions) error {
	if opts.Padding <= 0 {
		opts.Padding = DefaultPadding
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}

	g := doc.Graph
	ids := g.VisibleNodeIDs(doc.Collapsed)
	box := g.BoundingBox(ids, opts.Padding)
	for _, p := range doc.Drawings {
		if len(p.Points) > 0 {
			box = box.Union(p.Bounds().Expand(opts.Padding))
		}
	}
	if box.IsEmpty() {
		box = geom.Rect{Width: 2 * opts.Padding, Height: 2 * opts.Padding}
	}
	scale := opts.Scale
	if longest := math.Max(box.Width, box.Height) * scale; longest > MaxPixels {
		scale *= MaxPixels / longest
	}
	width := min(MaxPixels, max(1, int(math.Ceil(box.Width*scale))))
	height := min(MaxPixels, max(1, int(math.Ceil(box.Height*scale))))

	ttf, err := parseMono()
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    labelSize * scale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	r := &rasterizer{dc: gg.NewContext(width, height), origin: geom.Pt(box.X, box.Y), scale: scale}
	r.dc.SetFontFace(face)
	if opts.Background != "" {
		r.dc.SetHexColor(opts.Background)
	} else {
		r.dc.SetColor(color.White)
	}
	r.dc.Clear()

	for _, p := range doc.Drawings {
		r.drawing(p.Points, p.Color, p.Width)
	}

	shown := make(map[graph.NodeID]bool, len(ids))
	for _, id := range ids {
		shown[id] = true
	}
	for _, e := range g.Edges() {
		if !shown[e.Source] || !shown[e.Target] {
			continue
		}
		src, _ := g.Node(e.Source)
		dst, _ := g.Node(e.Target)
		r.edge(layout.RouteBetween(e.Style, src.Bounds(), dst.Bounds()), e.Style)
	}
	for _, id := range ids {
		if n, ok := g.Node(id); ok {
			r.node(n)
		}
	}
	return r.dc.EncodePNG(w)
}

type rasterizer struct {
	dc     *gg.Context
	origin geom.Point
	scale  float64
}

func (r *rasterizer) pt(p geom.Point) (float64, float64) {
	return (p.X - r.origin.X) * r.scale, (p.Y - r.origin.Y) * r.scale
}

func (r *rasterizer) drawing(pts []geom.Point, hex string, width float64) {
	if len(pts) < 2 {
		return
	}
	r.dc.NewSubPath()
	for i, p := range pts {
		x, y := r.pt(p)
		if i == 0 {
			r.dc.MoveTo(x, y)
		} else {
			r.dc.LineTo(x, y)
		}
	}
	r.dc.SetHexColor(hex)
	r.dc.SetLineWidth(math.Max(width, 1) * r.scale)
	r.dc.Stroke()
}

func (r *rasterizer) edge(path layout.Path, style graph.EdgeStyle) {
	dc := r.dc
	dc.NewSubPath()
	for _, seg := range path.Segments {
		switch seg.Op {
		case layout.OpMove:
			dc.MoveTo(r.pt(seg.Points[0]))
		case layout.OpLine:
			dc.LineTo(r.pt(seg.Points[0]))
		case layout.OpCubic:
			x1, y1 := r.pt(seg.Points[0])
			x2, y2 := r.pt(seg.Points[1])
			x3, y3 := r.pt(seg.Points[2])
			dc.CubicTo(x1, y1, x2, y2, x3, y3)
		}
	}
	w := math.Max(style.Width, 1) * r.scale
	switch style.Dash {
	case graph.DashDashed:
		dc.SetDash(4*w, 3*w)
	case graph.DashDotted:
		dc.SetDash(w, 2*w)
	default:
		dc.SetDash()
	}
	dc.SetHexColor(style.Color)
	dc.SetLineWidth(w)
	dc.Stroke()
	dc.SetDash()

	pts := path.Flatten()
	if len(pts) < 2 {
		return
	}
	tip := pts[len(pts)-1]
	switch style.Marker {
	case graph.MarkerArrow:
		r.arrowHead(pts[len(pts)-2], tip, w)
	case graph.MarkerCircle:
		x, y := r.pt(tip)
		dc.DrawCircle(x, y, 2*w)
		dc.Fill()
	}
	if style.Label != "" {
		x, y := r.pt(path.Midpoint())
		dc.SetHexColor("#475569")
		dc.DrawStringAnchored(style.Label, x, y, 0.5, 0.5)
	}
}

// arrowHead fills a triangle at tip pointing away from prev.
func (r *rasterizer) arrowHead(prev, tip geom.Point, width float64) {
	dir := tip.Sub(prev).Unit()
	size := 4 * width
	tx, ty := r.pt(tip)
	bx, by := tx-dir.X*size, ty-dir.Y*size
	nx, ny := -dir.Y*size/2, dir.X*size/2
	r.dc.MoveTo(tx, ty)
	r.dc.LineTo(bx+nx, by+ny)
	r.dc.LineTo(bx-nx, by-ny)
	r.dc.ClosePath()
	r.dc.Fill()
}

func (r *rasterizer) node(n *graph.Node) {
	dc := r.dc
	b := n.Bounds()
	x, y := r.pt(geom.Pt(b.X, b.Y))
	w, h := b.Width*r.scale, b.Height*r.scale

	switch n.Shape {
	case graph.ShapeRect, graph.ShapeNoBorder:
		dc.DrawRectangle(x, y, w, h)
	case graph.ShapeEllipse:
		dc.DrawEllipse(x+w/2, y+h/2, w/2, h/2)
	case graph.ShapeDiamond:
		dc.MoveTo(x+w/2, y)
		dc.LineTo(x+w, y+h/2)
		dc.LineTo(x+w/2, y+h)
		dc.LineTo(x, y+h/2)
		dc.ClosePath()
	case graph.ShapePill:
		dc.DrawRoundedRectangle(x, y, w, h, h/2)
	default:
		dc.DrawRoundedRectangle(x, y, w, h, 10*r.scale)
	}

	fill := n.Color
	if fill == "" {
		fill = defaultFill[n.Type]
	}
	if fill == "" {
		fill = "#ffffff"
	}
	if fill != graph.ColorTransparent {
		dc.SetHexColor(fill)
		dc.FillPreserve()
	}
	if n.Shape != graph.ShapeNoBorder {
		dc.SetHexColor("#cbd5e1")
		dc.SetLineWidth(1.5 * r.scale)
		dc.Stroke()
	}
	dc.ClearPath()

	text := n.Label
	if n.Type == graph.TypeTask {
		box := "[ ] "
		if n.Checked {
			box = "[x] "
		}
		text = box + text
	}
	dc.SetHexColor(textColor(fill))
	dc.DrawStringWrapped(text, x+w/2, y+h/2, 0.5, 0.5, w-12*r.scale, 1.2, gg.AlignCenter)
}

// textColor picks dark or light text for legibility on fill.
func textColor(fill string) string {
	var cr, cg, cb int
	if len(fill) != 7 || fill[0] != '#' {
		return "#0f172a"
	}
	if _, err := fmt.Sscanf(fill[1:], "%02x%02x%02x", &cr, &cg, &cb); err != nil {
		return "#0f172a"
	}
	if 299*cr+587*cg+114*cb < 128000 {
		return "#f8fafc"
	}
	return "#0f172a"
}
