package gesture

import (
	"math"
	"slices"
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/sketch"
)

const (
	// TouchTapSlop and MouseTapSlop are the screen distances under which a
	// release counts as a tap rather than a drag.
	TouchTapSlop = 15.0
	MouseTapSlop = 3.0

	LongPressDelay  = 600 * time.Millisecond
	LongPressSlop   = 10.0
	DoubleTapWindow = 300 * time.Millisecond

	// SnapThreshold is in world units.
	SnapThreshold = 5.0
	PinchDamping  = 0.8
)

// Machine is the gesture state machine. It is driven from a single event
// loop and is not safe for concurrent use.
type Machine struct {
	mode        Mode
	tool        Tool
	multiSelect bool

	lastCanvasTouch time.Time
	lastTapNode     graph.NodeID
	lastTapAt       time.Time
}

func New() *Machine {
	return &Machine{mode: Idle{}, tool: ToolSelect}
}

func (m *Machine) Mode() Mode {
	return m.mode
}

func (m *Machine) Tool() Tool {
	return m.tool
}

func (m *Machine) SetTool(t Tool) {
	m.tool = t
}

// SetMultiSelect toggles the mode where pressing a node toggles its
// selection instead of dragging.
func (m *Machine) SetMultiSelect(on bool) {
	m.multiSelect = on
}

func (m *Machine) MultiSelect() bool {
	return m.multiSelect
}

func (m *Machine) idle() bool {
	_, ok := m.mode.(Idle)
	return ok
}

// Pointer handles a mouse event.
func (m *Machine) Pointer(s Scene, e PointerEvent) []Intent {
	switch e.Phase {
	case PhaseStart:
		if !m.idle() {
			return nil
		}
		if e.Button == ButtonMiddle || e.Button == ButtonRight || m.tool == ToolHand {
			m.mode = Panning{Origin: e.Pos, Last: e.Pos, Button: e.Button}
			return nil
		}
		return m.press(s, e.Pos, false, e.Mods, e.Time)
	case PhaseMove:
		return m.move(s, e.Pos, e.Mods.Alt)
	case PhaseEnd:
		return m.release(s, e.Pos, false, e.Mods.Alt, e.Time)
	case PhaseCancel:
		return m.Cancel()
	}
	return nil
}

// Touch handles a touch event.
func (m *Machine) Touch(s Scene, e TouchEvent) []Intent {
	switch e.Phase {
	case PhaseStart:
		if len(e.Touches) >= 2 {
			return m.beginPinch(e.Touches)
		}
		if len(e.Touches) == 0 || !m.idle() {
			return nil
		}
		pos := e.Touches[0].Pos
		if m.tool == ToolHand {
			m.mode = Panning{Origin: pos, Last: pos, Touch: true}
			return nil
		}
		return m.press(s, pos, true, Modifiers{}, e.Time)

	case PhaseMove:
		if md, ok := m.mode.(PinchZooming); ok {
			return m.pinch(md, e.Touches)
		}
		if len(e.Touches) == 0 {
			return nil
		}
		return m.move(s, e.Touches[0].Pos, false)

	case PhaseEnd:
		switch m.mode.(type) {
		case PinchZooming:
			if len(e.Touches) == 0 {
				m.mode = Idle{}
			} else {
				m.mode = Absorbing{Touch: true}
			}
			return nil
		case Absorbing:
			if len(e.Touches) == 0 {
				m.mode = Idle{}
			}
			return nil
		}
		if len(e.Touches) > 0 {
			return nil
		}
		pos, _ := m.lastPointer()
		return m.release(s, pos, true, false, e.Time)

	case PhaseCancel:
		return m.Cancel()
	}
	return nil
}

// Wheel turns wheel input into a zoom request about the cursor.
func (m *Machine) Wheel(_ Scene, e WheelEvent) []Intent {
	if e.DeltaY == 0 {
		return nil
	}
	return []Intent{WheelZoom{Anchor: e.Pos, DeltaY: e.DeltaY}}
}

// Tick fires time-based transitions. Only the long-press timer lives here.
func (m *Machine) Tick(s Scene, now time.Time) []Intent {
	md, ok := m.mode.(LongPressPending)
	if !ok || now.Before(md.Deadline) {
		return nil
	}
	m.mode = Absorbing{Touch: true}
	m.lastCanvasTouch = time.Time{}
	return []Intent{ContextMenu{Screen: md.Origin, World: s.Viewport().ScreenToWorld(md.Origin)}}
}

// Cancel abandons the current gesture, reverting any live preview.
func (m *Machine) Cancel() []Intent {
	var out []Intent
	switch md := m.mode.(type) {
	case NodeDragging:
		if md.Moved {
			out = append(out, CancelMove{Positions: md.Start, ControlPoints: md.CtrlStart})
		}
	case MarqueeSelecting:
		out = append(out, Marquee{Active: false})
	case LinkDrawing:
		out = append(out, LinkCancel{Source: md.Source})
	case EdgeControlPointDragging:
		if md.Moved {
			out = append(out, MoveControlPoints{Points: md.Start})
		}
	case Drawing:
		out = append(out, StrokeCancel{})
	}
	m.mode = Idle{}
	return out
}

func (m *Machine) lastPointer() (geom.Point, bool) {
	switch md := m.mode.(type) {
	case Panning:
		return md.Last, true
	case NodeDragging:
		return md.Last, true
	case MarqueeSelecting:
		return md.Last, true
	case LinkDrawing:
		return md.Last, true
	case EdgeControlPointDragging:
		return md.Last, true
	case LongPressPending:
		return md.Last, true
	case Drawing:
		return md.Last, true
	}
	return geom.Point{}, false
}

// press starts a single-pointer gesture.
func (m *Machine) press(s Scene, pos geom.Point, touch bool, mods Modifiers, now time.Time) []Intent {
	world := s.Viewport().ScreenToWorld(pos)

	if m.tool.Drawing() {
		m.mode = Drawing{Last: pos, Touch: touch}
		return []Intent{StrokeBegin{Tool: sketch.Tool(m.tool), Point: world}}
	}
	if key, idx, ok := s.ControlPointAt(world); ok {
		return m.beginControlDrag(s, key, idx, pos, touch)
	}
	if id, ok := s.LinkHandleAt(world); ok {
		return m.beginLink(id, pos, world, touch)
	}
	if id, ok := s.NodeAt(world); ok {
		if m.tool == ToolConnect || mods.Alt {
			return m.beginLink(id, pos, world, touch)
		}
		if m.multiSelect {
			m.mode = Absorbing{Touch: touch}
			return []Intent{ToggleSelect{ID: id}}
		}
		return m.beginDrag(s, id, pos, touch, mods.Shift)
	}

	if touch {
		if !m.lastCanvasTouch.IsZero() && now.Sub(m.lastCanvasTouch) <= DoubleTapWindow {
			m.lastCanvasTouch = time.Time{}
			m.mode = MarqueeSelecting{Origin: pos, Last: pos, Touch: true}
			return []Intent{Marquee{Rect: geom.Rect{X: world.X, Y: world.Y}, Active: true}}
		}
		m.lastCanvasTouch = now
		m.mode = LongPressPending{Origin: pos, Last: pos, Deadline: now.Add(LongPressDelay)}
		return nil
	}

	edge, hasEdge := s.EdgeAt(world)
	m.mode = MarqueeSelecting{Origin: pos, Last: pos, Additive: mods.Shift, Edge: edge, HasEdge: hasEdge}
	return nil
}

func (m *Machine) beginLink(source graph.NodeID, pos, world geom.Point, touch bool) []Intent {
	m.mode = LinkDrawing{Source: source, Last: pos, Touch: touch}
	return []Intent{LinkPreview{Source: source, To: world}}
}

func (m *Machine) beginDrag(s Scene, id graph.NodeID, pos geom.Point, touch, additive bool) []Intent {
	var out []Intent
	var ids []graph.NodeID
	wasSelected := s.IsSelected(id)
	switch {
	case wasSelected:
		ids = s.Selection()
	case additive:
		ids = append(s.Selection(), id)
		out = append(out, Select{IDs: []graph.NodeID{id}, Additive: true})
	default:
		ids = []graph.NodeID{id}
		out = append(out, Select{IDs: []graph.NodeID{id}})
	}

	start := make(map[graph.NodeID]geom.Point, len(ids))
	movable := make([]graph.NodeID, 0, len(ids))
	for _, n := range ids {
		if s.NodeLocked(n) {
			continue
		}
		if p, ok := s.NodePosition(n); ok {
			if _, dup := start[n]; !dup {
				start[n] = p
				movable = append(movable, n)
			}
		}
	}
	ctrl := map[graph.EdgeKey][]geom.Point{}
	if len(movable) > 1 {
		for _, k := range s.InternalEdges(movable) {
			if cps := s.ControlPoints(k); len(cps) > 0 {
				ctrl[k] = slices.Clone(cps)
			}
		}
	}

	m.mode = NodeDragging{
		Origin: pos, Last: pos,
		Node:        id,
		IDs:         movable,
		Start:       start,
		CtrlStart:   ctrl,
		Touch:       touch,
		Additive:    additive,
		WasSelected: wasSelected,
	}
	return out
}

func (m *Machine) beginControlDrag(s Scene, key graph.EdgeKey, idx int, pos geom.Point, touch bool) []Intent {
	keys := []graph.EdgeKey{key}
	selected := s.SelectedEdges()
	if slices.Contains(selected, key) {
		for _, k := range selected {
			if k != key && idx < len(s.ControlPoints(k)) {
				keys = append(keys, k)
			}
		}
	}
	start := make(map[graph.EdgeKey][]geom.Point, len(keys))
	for _, k := range keys {
		start[k] = slices.Clone(s.ControlPoints(k))
	}
	m.mode = EdgeControlPointDragging{Origin: pos, Last: pos, Index: idx, Keys: keys, Start: start, Touch: touch}
	return nil
}

func (m *Machine) beginPinch(touches []Touch) []Intent {
	out := m.Cancel()
	m.lastCanvasTouch = time.Time{}
	m.mode = PinchZooming{LastDist: touches[0].Pos.Dist(touches[1].Pos)}
	return out
}

// pinch zooms by the damped ratio of the current to the previous finger
// distance; the reference distance follows the gesture every frame.
func (m *Machine) pinch(md PinchZooming, touches []Touch) []Intent {
	if len(touches) < 2 {
		return nil
	}
	a, b := touches[0].Pos, touches[1].Pos
	d := a.Dist(b)
	if md.LastDist < geom.Epsilon || d < geom.Epsilon {
		if d >= geom.Epsilon {
			md.LastDist = d
			m.mode = md
		}
		return nil
	}
	factor := 1 + (d/md.LastDist-1)*PinchDamping
	md.LastDist = d
	m.mode = md
	return []Intent{ZoomAt{Anchor: a.Mid(b), Factor: factor}}
}

func (m *Machine) move(s Scene, pos geom.Point, alt bool) []Intent {
	vp := s.Viewport()
	switch md := m.mode.(type) {
	case Panning:
		d := pos.Sub(md.Last)
		md.Last = pos
		m.mode = md
		return []Intent{PanBy{DX: d.X, DY: d.Y}}

	case LongPressPending:
		md.Last = pos
		if pos.Dist(md.Origin) <= LongPressSlop {
			m.mode = md
			return nil
		}
		m.mode = Panning{Origin: md.Origin, Last: pos, Touch: true}
		d := pos.Sub(md.Origin)
		return []Intent{PanBy{DX: d.X, DY: d.Y}}

	case NodeDragging:
		md.Last = pos
		md.Moved = true
		m.mode = md
		return []Intent{m.dragPreview(s, md, alt)}

	case MarqueeSelecting:
		md.Last = pos
		m.mode = md
		return []Intent{Marquee{Rect: vp.ScreenRectToWorld(geom.RectFromPoints(md.Origin, pos)), Active: true}}

	case LinkDrawing:
		md.Last = pos
		m.mode = md
		return []Intent{LinkPreview{Source: md.Source, To: vp.ScreenToWorld(pos)}}

	case EdgeControlPointDragging:
		md.Last = pos
		md.Moved = true
		m.mode = md
		return []Intent{m.controlPreview(s, md, false)}

	case Drawing:
		md.Last = pos
		m.mode = md
		return []Intent{StrokeAppend{Point: vp.ScreenToWorld(pos)}}
	}
	return nil
}

func (m *Machine) dragPreview(s Scene, md NodeDragging, alt bool) MoveNodes {
	vp := s.Viewport()
	delta := vp.ScreenToWorld(md.Last).Sub(vp.ScreenToWorld(md.Origin))

	out := MoveNodes{Positions: make(map[graph.NodeID]geom.Point, len(md.Start))}
	for id, p := range md.Start {
		out.Positions[id] = p.Add(delta)
	}
	if len(md.IDs) == 1 && !alt && !m.multiSelect {
		id := md.IDs[0]
		p, guides := Snap(out.Positions[id], s.SnapCandidates(id), SnapThreshold)
		out.Positions[id] = p
		out.Guides = guides
	}
	if len(md.CtrlStart) > 0 {
		out.ControlPoints = make(map[graph.EdgeKey][]geom.Point, len(md.CtrlStart))
		for k, pts := range md.CtrlStart {
			moved := make([]geom.Point, len(pts))
			for i, p := range pts {
				moved[i] = p.Add(delta)
			}
			out.ControlPoints[k] = moved
		}
	}
	return out
}

func (m *Machine) controlPreview(s Scene, md EdgeControlPointDragging, commit bool) MoveControlPoints {
	vp := s.Viewport()
	delta := vp.ScreenToWorld(md.Last).Sub(vp.ScreenToWorld(md.Origin))
	out := MoveControlPoints{Points: make(map[graph.EdgeKey][]geom.Point, len(md.Start)), Commit: commit}
	for k, pts := range md.Start {
		moved := slices.Clone(pts)
		if md.Index < len(moved) {
			moved[md.Index] = moved[md.Index].Add(delta)
		}
		out.Points[k] = moved
	}
	return out
}

// Snap aligns each axis of p independently to the nearest candidate within
// threshold and returns the guide lines for the snapped axes.
func Snap(p geom.Point, candidates []geom.Point, threshold float64) (geom.Point, []Guide) {
	bestX, bestY := threshold, threshold
	snapX, snapY := false, false
	out := p
	for _, c := range candidates {
		if !c.Finite() {
			continue
		}
		if dx := math.Abs(c.X - p.X); dx <= bestX {
			bestX, out.X, snapX = dx, c.X, true
		}
		if dy := math.Abs(c.Y - p.Y); dy <= bestY {
			bestY, out.Y, snapY = dy, c.Y, true
		}
	}
	var guides []Guide
	if snapX {
		guides = append(guides, Guide{Vertical: true, At: out.X})
	}
	if snapY {
		guides = append(guides, Guide{Vertical: false, At: out.Y})
	}
	return out, guides
}

// release resolves the gesture. Tap versus drag is only decided here.
func (m *Machine) release(s Scene, pos geom.Point, touch, alt bool, now time.Time) []Intent {
	slop := MouseTapSlop
	if touch {
		slop = TouchTapSlop
	}
	vp := s.Viewport()
	world := vp.ScreenToWorld(pos)

	switch md := m.mode.(type) {
	case Panning:
		m.mode = Idle{}
		if !md.Touch && md.Button == ButtonRight && pos.Dist(md.Origin) < slop {
			node, _ := s.NodeAt(world)
			return []Intent{ContextMenu{Screen: pos, World: world, Node: node}}
		}
		return nil

	case LongPressPending:
		m.mode = Idle{}
		return []Intent{ClearSelection{}}

	case NodeDragging:
		m.mode = Idle{}
		md.Last = pos
		if pos.Dist(md.Origin) >= slop {
			return []Intent{m.dragPreview(s, md, alt), CommitMove{}}
		}
		var out []Intent
		if md.Moved {
			out = append(out, CancelMove{Positions: md.Start, ControlPoints: md.CtrlStart})
		}
		switch {
		case !now.IsZero() && md.Node == m.lastTapNode && now.Sub(m.lastTapAt) <= DoubleTapWindow:
			out = append(out, EditLabel{ID: md.Node})
			m.lastTapNode, m.lastTapAt = "", time.Time{}
			return out
		case md.WasSelected && !md.Additive && len(s.Selection()) > 1:
			out = append(out, Select{IDs: []graph.NodeID{md.Node}})
		}
		m.lastTapNode, m.lastTapAt = md.Node, now
		return out

	case MarqueeSelecting:
		m.mode = Idle{}
		out := []Intent{Marquee{Active: false}}
		if pos.Dist(md.Origin) < slop {
			switch {
			case md.HasEdge:
				out = append(out, SelectEdge{Key: md.Edge, Additive: md.Additive})
			case !md.Additive:
				out = append(out, ClearSelection{})
			}
			return out
		}
		r := vp.ScreenRectToWorld(geom.RectFromPoints(md.Origin, pos))
		return append(out, MarqueeSelect{Nodes: s.NodesInRect(r), Edges: s.EdgesInRect(r), Additive: md.Additive})

	case LinkDrawing:
		m.mode = Idle{}
		if target, ok := s.NodeAt(world); ok && target != md.Source {
			return []Intent{LinkCreate{Source: md.Source, Target: target}}
		}
		return []Intent{LinkCancel{Source: md.Source}}

	case EdgeControlPointDragging:
		m.mode = Idle{}
		md.Last = pos
		if pos.Dist(md.Origin) < slop {
			if md.Moved {
				return []Intent{MoveControlPoints{Points: md.Start}}
			}
			return nil
		}
		return []Intent{m.controlPreview(s, md, true)}

	case Drawing:
		m.mode = Idle{}
		return []Intent{StrokeCommit{}}

	case PinchZooming, Absorbing:
		m.mode = Idle{}
	}
	return nil
}
