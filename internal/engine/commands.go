package engine

import (
	"encoding/json"
	"strconv"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/gesture"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
	"github.com/mindweave/mindweave/backend-go/internal/sketch"
	"github.com/mindweave/mindweave/backend-go/internal/viewport"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "path", "text", "circle", "save", "restore"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Layer       string        `json:"layer,omitempty"`       // node, edge, drawing, overlay
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width, world units
	Dash        []float64     `json:"dash,omitempty"`
	Opacity     float64       `json:"opacity,omitempty"`
	Text        string        `json:"text,omitempty"`
	X           float64       `json:"x,omitempty"`
	Y           float64       `json:"y,omitempty"`
	Radius      float64       `json:"radius,omitempty"`
	Marker      string        `json:"marker,omitempty"`
	Animated    bool          `json:"animated,omitempty"`
}

// Overlay is transient gesture feedback drawn above the map.
type Overlay struct {
	Marquee     *geom.Rect
	Guides      []gesture.Guide
	LinkFrom    graph.NodeID
	LinkTo      geom.Point
	LinkActive  bool
	StrokeDraft *sketch.Path
}

// Frame is everything CompileDrawCommands needs besides the scene graph.
type Frame struct {
	Viewport viewport.Viewport
	// Visible is the world rect on screen; nodes outside it are culled.
	// An empty rect disables culling.
	Visible  geom.Rect
	Drawings []sketch.Path
	Overlay  Overlay
}

// CompileDrawCommands generates a draw command buffer from a scene graph.
// Commands are in painter's order (back to front).
func CompileDrawCommands(sg *SceneGraph, f Frame) []DrawCommand {
	if sg == nil {
		return nil
	}
	zoom := f.Viewport.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	cull := !f.Visible.IsEmpty()

	commands := []DrawCommand{{Op: "save", Transform: f.Viewport.Matrix().ToSlice()}}
	for _, p := range f.Drawings {
		commands = append(commands, strokeCommand(p))
	}
	for _, e := range sg.Edges {
		if cull && !f.Visible.Intersects(e.Bounds) {
			continue
		}
		commands = append(commands, compileEdge(e)...)
	}
	for _, n := range sg.Nodes {
		if cull && !f.Visible.Intersects(n.Bounds) {
			continue
		}
		commands = append(commands, compileNode(n, zoom)...)
	}
	commands = append(commands, compileOverlay(sg, f, zoom)...)
	commands = append(commands, DrawCommand{Op: "restore"})
	return commands
}

func strokeCommand(p sketch.Path) DrawCommand {
	cmd := DrawCommand{
		Op:          "path",
		ObjectID:    p.ID,
		Layer:       "drawing",
		Stroke:      p.Color,
		StrokeWidth: p.Width,
		Opacity:     1,
	}
	for i, pt := range p.Points {
		op := "L"
		if i == 0 {
			op = "M"
		}
		cmd.Path = append(cmd.Path, PathCommand{op, pt.X, pt.Y})
	}
	return cmd
}

func compileEdge(e *SceneEdge) []DrawCommand {
	cmd := DrawCommand{
		Op:          "path",
		ObjectID:    e.Key.String(),
		Layer:       "edge",
		Path:        toPathCommands(e.Path),
		Stroke:      e.Style.Color,
		StrokeWidth: e.Style.Width,
		Dash:        dashPattern(e.Style.Dash, e.Style.Width),
		Opacity:     1,
		Marker:      string(e.Style.Marker),
		Animated:    e.Style.Animated,
	}
	if e.Selected {
		cmd.Stroke = strokeSelected
	}
	out := []DrawCommand{cmd}
	if e.Style.Label != "" {
		mid := e.Path.Midpoint()
		out = append(out, DrawCommand{Op: "text", Layer: "edge", Text: e.Style.Label, X: mid.X, Y: mid.Y, Fill: "#475569"})
	}
	return out
}

func compileNode(n *SceneNode, zoom float64) []DrawCommand {
	opacity := 1.0
	if n.Dreaming {
		opacity = 0.6
	}
	width := 1.5
	if n.Selected {
		width = 3
	}
	out := []DrawCommand{{
		Op:          "path",
		ObjectID:    string(n.ID),
		Layer:       "node",
		Path:        shapePath(n.Shape, n.Bounds),
		Fill:        n.Fill,
		Stroke:      n.Stroke,
		StrokeWidth: width,
		Opacity:     opacity,
		Animated:    n.Dreaming,
	}, {
		Op:       "text",
		ObjectID: string(n.ID),
		Layer:    "node",
		Text:     n.Label,
		X:        n.Center.X,
		Y:        n.Center.Y,
		Fill:     labelColor(n.Fill),
		Opacity:  opacity,
	}}
	if n.HiddenChildren > 0 {
		out = append(out, DrawCommand{
			Op:     "circle",
			Layer:  "node",
			X:      n.Bounds.X + n.Bounds.Width,
			Y:      n.Center.Y,
			Radius: collapseBadgeRadius / zoom,
			Fill:   strokeSelected,
		}, DrawCommand{
			Op:    "text",
			Layer: "node",
			Text:  strconv.Itoa(n.HiddenChildren),
			X:     n.Bounds.X + n.Bounds.Width,
			Y:     n.Center.Y,
			Fill:  "#ffffff",
		})
	}
	if n.Selected {
		h := n.LinkHandle(zoom)
		out = append(out, DrawCommand{
			Op:          "circle",
			ObjectID:    string(n.ID),
			Layer:       "overlay",
			X:           h.X,
			Y:           h.Y,
			Radius:      LinkHandleRadius / zoom,
			Fill:        "#ffffff",
			Stroke:      strokeSelected,
			StrokeWidth: 2 / zoom,
		})
	}
	return out
}

func compileOverlay(sg *SceneGraph, f Frame, zoom float64) []DrawCommand {
	var out []DrawCommand
	for _, e := range sg.Edges {
		if !e.Selected {
			continue
		}
		for _, cp := range e.Style.ControlPoints {
			out = append(out, DrawCommand{
				Op: "circle", Layer: "overlay", X: cp.X, Y: cp.Y,
				Radius: ControlPointRadius / zoom, Fill: strokeSelected,
			})
		}
	}
	ov := f.Overlay
	if ov.LinkActive {
		if src, ok := sg.NodesByID[ov.LinkFrom]; ok {
			from := layout.BorderPoint(src.Bounds, ov.LinkTo)
			out = append(out, DrawCommand{
				Op: "path", Layer: "overlay",
				Path:   []PathCommand{{"M", from.X, from.Y}, {"L", ov.LinkTo.X, ov.LinkTo.Y}},
				Stroke: strokeSelected, StrokeWidth: 2 / zoom, Dash: []float64{6 / zoom, 4 / zoom},
				Marker: string(graph.MarkerArrow),
			})
		}
	}
	if len(ov.Guides) > 0 {
		span := f.Visible
		if span.IsEmpty() {
			span = sg.Bounds.Expand(1000)
		}
		for _, g := range ov.Guides {
			a, b := geom.Pt(span.X, g.At), geom.Pt(span.X+span.Width, g.At)
			if g.Vertical {
				a, b = geom.Pt(g.At, span.Y), geom.Pt(g.At, span.Y+span.Height)
			}
			out = append(out, DrawCommand{
				Op: "path", Layer: "overlay",
				Path:   []PathCommand{{"M", a.X, a.Y}, {"L", b.X, b.Y}},
				Stroke: "#f43f5e", StrokeWidth: 1 / zoom,
			})
		}
	}
	if ov.StrokeDraft != nil && len(ov.StrokeDraft.Points) > 0 {
		out = append(out, strokeCommand(*ov.StrokeDraft))
	}
	if ov.Marquee != nil {
		r := *ov.Marquee
		out = append(out, DrawCommand{
			Op: "path", Layer: "overlay",
			Path:   rectPath(r),
			Fill:   "#3b82f61a",
			Stroke: "#3b82f6", StrokeWidth: 1 / zoom,
		})
	}
	return out
}

func toPathCommands(p layout.Path) []PathCommand {
	cmds := p.Commands()
	out := make([]PathCommand, len(cmds))
	for i, c := range cmds {
		out[i] = PathCommand(c)
	}
	return out
}

func dashPattern(d graph.DashStyle, width float64) []float64 {
	w := max(width, 1)
	switch d {
	case graph.DashDashed:
		return []float64{4 * w, 3 * w}
	case graph.DashDotted:
		return []float64{w, 2 * w}
	}
	return nil
}

// kappa places cubic handles so four arcs approximate a circle.
const kappa = 0.5522847498

func shapePath(s graph.Shape, r geom.Rect) []PathCommand {
	switch s {
	case graph.ShapeRect, graph.ShapeNoBorder:
		return rectPath(r)
	case graph.ShapeEllipse:
		c := r.Center()
		rx, ry := r.Width/2, r.Height/2
		kx, ky := rx*kappa, ry*kappa
		return []PathCommand{
			{"M", c.X + rx, c.Y},
			{"C", c.X + rx, c.Y + ky, c.X + kx, c.Y + ry, c.X, c.Y + ry},
			{"C", c.X - kx, c.Y + ry, c.X - rx, c.Y + ky, c.X - rx, c.Y},
			{"C", c.X - rx, c.Y - ky, c.X - kx, c.Y - ry, c.X, c.Y - ry},
			{"C", c.X + kx, c.Y - ry, c.X + rx, c.Y - ky, c.X + rx, c.Y},
			{"Z"},
		}
	case graph.ShapeDiamond:
		c := r.Center()
		return []PathCommand{
			{"M", c.X, r.Y},
			{"L", r.X + r.Width, c.Y},
			{"L", c.X, r.Y + r.Height},
			{"L", r.X, c.Y},
			{"Z"},
		}
	case graph.ShapePill:
		return roundedPath(r, r.Height/2)
	default:
		return roundedPath(r, 10)
	}
}

func rectPath(r geom.Rect) []PathCommand {
	return []PathCommand{
		{"M", r.X, r.Y},
		{"L", r.X + r.Width, r.Y},
		{"L", r.X + r.Width, r.Y + r.Height},
		{"L", r.X, r.Y + r.Height},
		{"Z"},
	}
}

func roundedPath(r geom.Rect, radius float64) []PathCommand {
	rad := min(radius, r.Width/2, r.Height/2)
	k := rad * (1 - kappa)
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.Width, r.Y+r.Height
	return []PathCommand{
		{"M", x0 + rad, y0},
		{"L", x1 - rad, y0},
		{"C", x1 - k, y0, x1, y0 + k, x1, y0 + rad},
		{"L", x1, y1 - rad},
		{"C", x1, y1 - k, x1 - k, y1, x1 - rad, y1},
		{"L", x0 + rad, y1},
		{"C", x0 + k, y1, x0, y1 - k, x0, y1 - rad},
		{"L", x0, y0 + rad},
		{"C", x0, y0 + k, x0 + k, y0, x0 + rad, y0},
		{"Z"},
	}
}

// labelColor picks dark or light text for a fill.
func labelColor(fill string) string {
	if len(fill) < 7 || fill[0] != '#' {
		return "#0f172a"
	}
	var rgb [3]int
	for i := range rgb {
		rgb[i] = hexByte(fill[1+2*i], fill[2+2*i])
	}
	if 299*rgb[0]+587*rgb[1]+114*rgb[2] < 128000 {
		return "#f8fafc"
	}
	return "#0f172a"
}

func hexByte(hi, lo byte) int {
	return hexDigit(hi)<<4 | hexDigit(lo)
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 0
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTest returns the ID of the topmost node at world point p, or the key
// of the edge under it, or an empty string.
func HitTest(sg *SceneGraph, p geom.Point, zoom float64) string {
	if sg == nil {
		return ""
	}
	if id, ok := sg.NodeAt(p); ok {
		return string(id)
	}
	if k, ok := sg.EdgeAt(p, zoom); ok {
		return k.String()
	}
	return ""
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r geom.Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
