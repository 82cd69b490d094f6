// Package viewport holds the world-to-screen transform of the canvas and the
// animations that drive it (zoom inertia and fly-to tweens).
package viewport

import (
	"math"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
)

const (
	ZoomMin = 0.1
	ZoomMax = 5.0
)

// Viewport maps world to screen: screen = world*Zoom + (X, Y).
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Default is the identity viewport.
func Default() Viewport {
	return Viewport{Zoom: 1}
}

// ClampZoom limits z to [ZoomMin, ZoomMax].
func ClampZoom(z float64) float64 {
	return max(ZoomMin, min(ZoomMax, z))
}

// Sanitize repairs a viewport read from untrusted storage.
func (v Viewport) Sanitize() Viewport {
	if math.IsNaN(v.X) || math.IsInf(v.X, 0) {
		v.X = 0
	}
	if math.IsNaN(v.Y) || math.IsInf(v.Y, 0) {
		v.Y = 0
	}
	if math.IsNaN(v.Zoom) || v.Zoom <= 0 {
		v.Zoom = 1
	}
	v.Zoom = ClampZoom(v.Zoom)
	return v
}

// ScreenToWorld converts a screen point to world space.
func (v Viewport) ScreenToWorld(p geom.Point) geom.Point {
	return geom.Pt((p.X-v.X)/v.Zoom, (p.Y-v.Y)/v.Zoom)
}

// WorldToScreen converts a world point to screen space.
func (v Viewport) WorldToScreen(p geom.Point) geom.Point {
	return geom.Pt(p.X*v.Zoom+v.X, p.Y*v.Zoom+v.Y)
}

// ScreenRectToWorld converts a screen-space rectangle to world space.
func (v Viewport) ScreenRectToWorld(r geom.Rect) geom.Rect {
	return geom.RectFromPoints(
		v.ScreenToWorld(geom.Pt(r.X, r.Y)),
		v.ScreenToWorld(geom.Pt(r.X+r.Width, r.Y+r.Height)),
	)
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// anchor fixed on screen. Non-finite or non-positive factors are ignored.
func (v *Viewport) ZoomAt(anchor geom.Point, factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) || !anchor.Finite() {
		return
	}
	world := v.ScreenToWorld(anchor)
	v.Zoom = ClampZoom(v.Zoom * factor)
	v.X = anchor.X - world.X*v.Zoom
	v.Y = anchor.Y - world.Y*v.Zoom
}

// SetZoom sets an absolute zoom about anchor.
func (v *Viewport) SetZoom(anchor geom.Point, zoom float64) {
	if v.Zoom <= 0 {
		return
	}
	v.ZoomAt(anchor, zoom/v.Zoom)
}

// PanBy translates the viewport by a screen-space delta.
func (v *Viewport) PanBy(dx, dy float64) {
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return
	}
	v.X += dx
	v.Y += dy
}

// Matrix returns the world-to-screen affine transform.
func (v Viewport) Matrix() geom.Matrix2D {
	return geom.Translate(v.X, v.Y).Multiply(geom.Scale(v.Zoom, v.Zoom))
}

// VisibleWorld returns the world rectangle shown on a screen of the given size.
func (v Viewport) VisibleWorld(screenW, screenH float64) geom.Rect {
	return v.ScreenRectToWorld(geom.Rect{Width: screenW, Height: screenH})
}

// Fit returns the viewport that frames r on a screen of the given size
// with padding screen pixels on each side.
func Fit(r geom.Rect, screenW, screenH, padding float64) Viewport {
	if r.IsEmpty() || screenW <= 0 || screenH <= 0 {
		c := r.Center()
		return Viewport{X: screenW/2 - c.X, Y: screenH/2 - c.Y, Zoom: 1}
	}
	availW := max(1, screenW-2*padding)
	availH := max(1, screenH-2*padding)
	zoom := ClampZoom(min(availW/r.Width, availH/r.Height, 1))
	c := r.Center()
	return Viewport{
		X:    screenW/2 - c.X*zoom,
		Y:    screenH/2 - c.Y*zoom,
		Zoom: zoom,
	}
}

// CenterOn returns v translated so world point p sits at the screen centre.
func (v Viewport) CenterOn(p geom.Point, screenW, screenH float64) Viewport {
	v.X = screenW/2 - p.X*v.Zoom
	v.Y = screenH/2 - p.Y*v.Zoom
	return v
}
