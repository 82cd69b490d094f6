package gesture

import (
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

// Mode is the machine's current state. Each state carries only its own data.
type Mode interface {
	Name() string
}

type Idle struct{}

type Panning struct {
	Origin, Last geom.Point
	Button       Button
	Touch        bool
}

type NodeDragging struct {
	Origin, Last geom.Point
	// Node is the node under the pointer when the drag began.
	Node        graph.NodeID
	IDs         []graph.NodeID
	Start       map[graph.NodeID]geom.Point
	CtrlStart   map[graph.EdgeKey][]geom.Point
	Touch       bool
	Additive    bool
	WasSelected bool
	Moved       bool
}

type MarqueeSelecting struct {
	Origin, Last geom.Point
	Touch        bool
	Additive     bool
	// Edge is the edge under the press, selected if the gesture is a tap.
	Edge    graph.EdgeKey
	HasEdge bool
}

type PinchZooming struct {
	LastDist float64
}

type LinkDrawing struct {
	Source graph.NodeID
	Last   geom.Point
	Touch  bool
}

type EdgeControlPointDragging struct {
	Origin, Last geom.Point
	Index        int
	Keys         []graph.EdgeKey
	Start        map[graph.EdgeKey][]geom.Point
	Touch        bool
	Moved        bool
}

type LongPressPending struct {
	Origin, Last geom.Point
	Deadline     time.Time
}

type Drawing struct {
	Last  geom.Point
	Touch bool
}

// Absorbing swallows input until the gesture ends, after a gesture has
// already been resolved (long-press menu, multi-select toggle, pinch tail).
type Absorbing struct {
	Touch bool
}

func (Idle) Name() string                     { return "idle" }
func (Panning) Name() string                  { return "panning" }
func (NodeDragging) Name() string             { return "nodeDragging" }
func (MarqueeSelecting) Name() string         { return "marqueeSelecting" }
func (PinchZooming) Name() string             { return "pinchZooming" }
func (LinkDrawing) Name() string              { return "linkDrawing" }
func (EdgeControlPointDragging) Name() string { return "controlPointDragging" }
func (LongPressPending) Name() string         { return "longPressPending" }
func (Drawing) Name() string                  { return "drawing" }
func (Absorbing) Name() string                { return "absorbing" }
