package viewport

import (
	"math"
	"time"
)

type Easing string

const (
	EaseLinear   Easing = "linear"
	EaseIn       Easing = "easeIn"
	EaseOut      Easing = "easeOut"
	EaseInOut    Easing = "easeInOut"
	EaseCubicOut Easing = "cubicOut"
)

// DefaultFlyFor is used when Start is given no duration.
const DefaultFlyFor = 400 * time.Millisecond

// ease maps t in [0,1] through the easing curve.
func ease(t float64, e Easing) float64 {
	switch e {
	case EaseIn:
		return t * t
	case EaseOut:
		return t * (2 - t)
	case EaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	case EaseCubicOut:
		t2 := 1 - t
		return 1 - t2*t2*t2
	default:
		return t
	}
}

// Tween flies the viewport from one state to another over a duration.
// Zoom is interpolated geometrically so the motion looks uniform.
type Tween struct {
	from, to Viewport
	start    time.Time
	duration time.Duration
	easing   Easing
	active   bool
}

// Start begins a tween at now.
func (tw *Tween) Start(from, to Viewport, now time.Time, d time.Duration, e Easing) {
	if d <= 0 {
		d = DefaultFlyFor
	}
	tw.from, tw.to = from.Sanitize(), to.Sanitize()
	tw.start, tw.duration, tw.easing = now, d, e
	tw.active = true
}

// Active reports whether the tween is running.
func (tw *Tween) Active() bool {
	return tw.active
}

// Cancel stops the tween where it is.
func (tw *Tween) Cancel() {
	tw.active = false
}

// Step writes the interpolated viewport for now into v and reports whether
// the tween is still running.
func (tw *Tween) Step(v *Viewport, now time.Time) bool {
	if !tw.active {
		return false
	}
	t := float64(now.Sub(tw.start)) / float64(tw.duration)
	if t >= 1 {
		*v = tw.to
		tw.active = false
		return false
	}
	t = ease(max(0, t), tw.easing)

	// Interpolate the world point at the screen origin, then rebuild the
	// translation for the interpolated zoom.
	zoom := tw.from.Zoom * math.Pow(tw.to.Zoom/tw.from.Zoom, t)
	fx, fy := -tw.from.X/tw.from.Zoom, -tw.from.Y/tw.from.Zoom
	tx, ty := -tw.to.X/tw.to.Zoom, -tw.to.Y/tw.to.Zoom
	v.Zoom = zoom
	v.X = -(fx + (tx-fx)*t) * zoom
	v.Y = -(fy + (ty-fy)*t) * zoom
	return true
}
