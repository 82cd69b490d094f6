package viewport

import (
	"math"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
)

const (
	// InertiaDecay multiplies the zoom velocity every frame.
	InertiaDecay = 0.92
	// InertiaStop ends the animation once |velocity| falls below it.
	InertiaStop = 0.001
	// WheelSensitivity converts wheel delta (pixels) to velocity.
	WheelSensitivity = 0.0015
	// maxVelocity caps a single frame's zoom change.
	maxVelocity = 0.5
)

// Inertia animates wheel zoom. There is one loop per viewport: a new wheel
// event feeds the running velocity and replaces the anchor rather than
// starting a second animation.
type Inertia struct {
	velocity float64
	anchor   geom.Point
	running  bool
}

// Push adds a wheel delta at anchor. Wheel up (negative delta) zooms in.
func (in *Inertia) Push(anchor geom.Point, deltaY float64) {
	if math.IsNaN(deltaY) || math.IsInf(deltaY, 0) {
		return
	}
	in.velocity += -deltaY * WheelSensitivity
	in.velocity = max(-maxVelocity, min(maxVelocity, in.velocity))
	in.anchor = anchor
	in.running = math.Abs(in.velocity) >= InertiaStop
}

// Running reports whether the animation needs more frames.
func (in *Inertia) Running() bool {
	return in.running
}

// Velocity returns the current per-frame zoom velocity.
func (in *Inertia) Velocity() float64 {
	return in.velocity
}

// Step applies one frame to v and decays the velocity. It returns false
// once the animation has stopped.
func (in *Inertia) Step(v *Viewport) bool {
	if !in.running {
		return false
	}
	v.ZoomAt(in.anchor, 1+in.velocity)
	in.velocity *= InertiaDecay
	if math.Abs(in.velocity) < InertiaStop {
		in.Stop()
	}
	return in.running
}

// Stop cancels the animation.
func (in *Inertia) Stop() {
	in.velocity = 0
	in.running = false
}

// WheelFactor is the direct (non-inertial) zoom factor for a wheel delta.
func WheelFactor(deltaY float64) float64 {
	return math.Exp(-deltaY * WheelSensitivity)
}
