package gesture

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/sketch"
	"github.com/mindweave/mindweave/backend-go/internal/viewport"
)

// fakeScene treats every node as a 40x40 square around its position.
type fakeScene struct {
	vp            viewport.Viewport
	order         []graph.NodeID
	pos           map[graph.NodeID]geom.Point
	locked        map[graph.NodeID]bool
	selected      []graph.NodeID
	selectedEdges []graph.EdgeKey
	ctrl          map[graph.EdgeKey][]geom.Point
}

func newScene() *fakeScene {
	return &fakeScene{
		vp:     viewport.Default(),
		pos:    map[graph.NodeID]geom.Point{},
		locked: map[graph.NodeID]bool{},
		ctrl:   map[graph.EdgeKey][]geom.Point{},
	}
}

func (s *fakeScene) add(id graph.NodeID, x, y float64) *fakeScene {
	s.order = append(s.order, id)
	s.pos[id] = geom.Pt(x, y)
	return s
}

func (s *fakeScene) Viewport() viewport.Viewport { return s.vp }

func (s *fakeScene) NodeAt(p geom.Point) (graph.NodeID, bool) {
	for _, id := range s.order {
		if geom.RectAround(s.pos[id], 40, 40).Contains(p) {
			return id, true
		}
	}
	return "", false
}

func (s *fakeScene) LinkHandleAt(geom.Point) (graph.NodeID, bool) { return "", false }

func (s *fakeScene) EdgeAt(geom.Point) (graph.EdgeKey, bool) { return graph.EdgeKey{}, false }

func (s *fakeScene) ControlPointAt(p geom.Point) (graph.EdgeKey, int, bool) {
	for _, k := range s.selectedEdges {
		for i, cp := range s.ctrl[k] {
			if cp.Dist(p) <= 6 {
				return k, i, true
			}
		}
	}
	return graph.EdgeKey{}, 0, false
}

func (s *fakeScene) NodePosition(id graph.NodeID) (geom.Point, bool) {
	p, ok := s.pos[id]
	return p, ok
}

func (s *fakeScene) NodeLocked(id graph.NodeID) bool            { return s.locked[id] }
func (s *fakeScene) IsSelected(id graph.NodeID) bool            { return slices.Contains(s.selected, id) }
func (s *fakeScene) Selection() []graph.NodeID                  { return slices.Clone(s.selected) }
func (s *fakeScene) SelectedEdges() []graph.EdgeKey             { return s.selectedEdges }
func (s *fakeScene) ControlPoints(k graph.EdgeKey) []geom.Point { return s.ctrl[k] }

func (s *fakeScene) InternalEdges(ids []graph.NodeID) []graph.EdgeKey {
	var out []graph.EdgeKey
	for k := range s.ctrl {
		if slices.Contains(ids, k.Source) && slices.Contains(ids, k.Target) {
			out = append(out, k)
		}
	}
	return out
}

func (s *fakeScene) NodesInRect(r geom.Rect) []graph.NodeID {
	var out []graph.NodeID
	for _, id := range s.order {
		if r.Contains(s.pos[id]) {
			out = append(out, id)
		}
	}
	return out
}

func (s *fakeScene) EdgesInRect(geom.Rect) []graph.EdgeKey { return nil }

func (s *fakeScene) SnapCandidates(id graph.NodeID) []geom.Point {
	var out []geom.Point
	for _, other := range s.order {
		if other != id {
			out = append(out, s.pos[other])
		}
	}
	return out
}

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func mouse(phase Phase, x, y float64) PointerEvent {
	return PointerEvent{Phase: phase, Pos: geom.Pt(x, y), Button: ButtonLeft, Time: t0}
}

func touches(phase Phase, at time.Time, pts ...geom.Point) TouchEvent {
	e := TouchEvent{Phase: phase, Time: at}
	for i, p := range pts {
		e.Touches = append(e.Touches, Touch{ID: i, Pos: p})
	}
	return e
}

func find[T Intent](intents []Intent) (T, bool) {
	for _, in := range intents {
		if v, ok := in.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func TestMachine_DragSnapsToNeighbour(t *testing.T) {
	s := newScene().add("a", 0, 0).add("b", 203, 300)
	m := New()

	down := m.Pointer(s, mouse(PhaseStart, 0, 0))
	sel, ok := find[Select](down)
	require.True(t, ok)
	assert.Equal(t, []graph.NodeID{"a"}, sel.IDs)

	moved := m.Pointer(s, mouse(PhaseMove, 200, 100))
	preview, ok := find[MoveNodes](moved)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(203, 100), preview.Positions["a"])
	assert.Equal(t, []Guide{{Vertical: true, At: 203}}, preview.Guides)

	up := m.Pointer(s, mouse(PhaseEnd, 200, 100))
	final, ok := find[MoveNodes](up)
	require.True(t, ok)
	assert.Equal(t, 203.0, final.Positions["a"].X)
	_, committed := find[CommitMove](up)
	assert.True(t, committed)
	assert.IsType(t, Idle{}, m.Mode())
}

func TestMachine_DragSnapUsesWorldUnits(t *testing.T) {
	s := newScene().add("a", 0, 0).add("b", 104, 300)
	s.vp = viewport.Viewport{Zoom: 2}
	m := New()

	m.Pointer(s, mouse(PhaseStart, 0, 0))
	// 200px on screen is 100 world units at zoom 2
	out := m.Pointer(s, mouse(PhaseMove, 200, 0))

	preview, _ := find[MoveNodes](out)
	assert.Equal(t, 104.0, preview.Positions["a"].X)
}

func TestMachine_AltDisablesSnapping(t *testing.T) {
	s := newScene().add("a", 0, 0).add("b", 203, 300)
	m := New()
	m.Pointer(s, mouse(PhaseStart, 0, 0))

	e := mouse(PhaseMove, 200, 100)
	e.Mods.Alt = true
	out := m.Pointer(s, e)

	preview, _ := find[MoveNodes](out)
	assert.Equal(t, geom.Pt(200, 100), preview.Positions["a"])
	assert.Empty(t, preview.Guides)
}

func TestMachine_MultiDragMovesInternalControlPointsRigidly(t *testing.T) {
	s := newScene().add("a", 0, 0).add("b", 300, 0).add("c", 600, 0)
	s.selected = []graph.NodeID{"a", "b"}
	inner := graph.Key("a", "b")
	outer := graph.Key("b", "c")
	s.ctrl[inner] = []geom.Point{{X: 150, Y: -50}}
	s.ctrl[outer] = []geom.Point{{X: 450, Y: 50}}
	m := New()

	m.Pointer(s, mouse(PhaseStart, 0, 0))
	out := m.Pointer(s, mouse(PhaseMove, 1, 42))

	preview, ok := find[MoveNodes](out)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(1, 42), preview.Positions["a"])
	assert.Equal(t, geom.Pt(301, 42), preview.Positions["b"])
	assert.Empty(t, preview.Guides, "multi-node drags never snap")
	assert.Equal(t, []geom.Point{{X: 151, Y: -8}}, preview.ControlPoints[inner])
	assert.NotContains(t, preview.ControlPoints, outer)
}

func TestMachine_LockedNodesStayPut(t *testing.T) {
	s := newScene().add("a", 0, 0).add("b", 300, 0)
	s.selected = []graph.NodeID{"a", "b"}
	s.locked["b"] = true
	m := New()

	m.Pointer(s, mouse(PhaseStart, 0, 0))
	out := m.Pointer(s, mouse(PhaseMove, 50, 50))

	preview, _ := find[MoveNodes](out)
	assert.NotContains(t, preview.Positions, graph.NodeID("b"))
}

func TestMachine_TapVersusDrag(t *testing.T) {
	t.Run("small touch move is a tap and reverts the preview", func(t *testing.T) {
		s := newScene().add("a", 0, 0)
		m := New()

		m.Touch(s, touches(PhaseStart, t0, geom.Pt(0, 0)))
		m.Touch(s, touches(PhaseMove, t0, geom.Pt(10, 0)))
		up := m.Touch(s, touches(PhaseEnd, t0))

		revert, ok := find[CancelMove](up)
		require.True(t, ok)
		assert.Equal(t, geom.Pt(0, 0), revert.Positions["a"])
		_, committed := find[CommitMove](up)
		assert.False(t, committed)
	})

	t.Run("same distance with a mouse is a drag", func(t *testing.T) {
		s := newScene().add("a", 0, 0)
		m := New()

		m.Pointer(s, mouse(PhaseStart, 0, 0))
		m.Pointer(s, mouse(PhaseMove, 10, 0))
		up := m.Pointer(s, mouse(PhaseEnd, 10, 0))

		_, committed := find[CommitMove](up)
		assert.True(t, committed)
	})

	t.Run("tap on a node inside a selection narrows it", func(t *testing.T) {
		s := newScene().add("a", 0, 0).add("b", 300, 0)
		s.selected = []graph.NodeID{"a", "b"}
		m := New()

		m.Pointer(s, mouse(PhaseStart, 0, 0))
		up := m.Pointer(s, mouse(PhaseEnd, 1, 0))

		sel, ok := find[Select](up)
		require.True(t, ok)
		assert.Equal(t, []graph.NodeID{"a"}, sel.IDs)
	})

	t.Run("double tap edits the label", func(t *testing.T) {
		s := newScene().add("a", 0, 0)
		m := New()

		m.Touch(s, touches(PhaseStart, t0, geom.Pt(0, 0)))
		m.Touch(s, touches(PhaseEnd, t0))
		m.Touch(s, touches(PhaseStart, t0.Add(200*time.Millisecond), geom.Pt(0, 0)))
		up := m.Touch(s, touches(PhaseEnd, t0.Add(250*time.Millisecond)))

		edit, ok := find[EditLabel](up)
		require.True(t, ok)
		assert.Equal(t, graph.NodeID("a"), edit.ID)
	})
}

func TestMachine_PinchZoom(t *testing.T) {
	s := newScene()
	m := New()

	m.Touch(s, touches(PhaseStart, t0, geom.Pt(100, 100)))
	out := m.Touch(s, touches(PhaseStart, t0, geom.Pt(100, 100), geom.Pt(200, 100)))
	assert.Empty(t, out)
	require.IsType(t, PinchZooming{}, m.Mode())

	out = m.Touch(s, touches(PhaseMove, t0, geom.Pt(75, 100), geom.Pt(225, 100)))
	zoom, ok := find[ZoomAt](out)
	require.True(t, ok)
	assert.InDelta(t, 1.4, zoom.Factor, 1e-9)
	assert.Equal(t, geom.Pt(150, 100), zoom.Anchor)

	// reference distance follows the gesture, so holding still is factor 1
	out = m.Touch(s, touches(PhaseMove, t0, geom.Pt(75, 100), geom.Pt(225, 100)))
	zoom, _ = find[ZoomAt](out)
	assert.InDelta(t, 1.0, zoom.Factor, 1e-9)

	vp := viewport.Default()
	vp.ZoomAt(geom.Pt(150, 100), 1.4)
	assert.InDelta(t, 1.4, vp.Zoom, 1e-9)
}

func TestMachine_PinchZeroDistanceSkipped(t *testing.T) {
	s := newScene()
	m := New()
	m.Touch(s, touches(PhaseStart, t0, geom.Pt(50, 50), geom.Pt(50, 50)))

	out := m.Touch(s, touches(PhaseMove, t0, geom.Pt(50, 50), geom.Pt(50, 50)))
	assert.Empty(t, out)

	out = m.Touch(s, touches(PhaseMove, t0, geom.Pt(0, 50), geom.Pt(100, 50)))
	assert.Empty(t, out, "first non-zero distance only seeds the reference")

	out = m.Touch(s, touches(PhaseMove, t0, geom.Pt(0, 50), geom.Pt(200, 50)))
	zoom, ok := find[ZoomAt](out)
	require.True(t, ok)
	assert.InDelta(t, 1.8, zoom.Factor, 1e-9)
}

func TestMachine_PinchAnyRatioStaysInZoomBounds(t *testing.T) {
	s := newScene()
	m := New()
	vp := viewport.Default()
	m.Touch(s, touches(PhaseStart, t0, geom.Pt(0, 0), geom.Pt(1, 0)))

	out := m.Touch(s, touches(PhaseMove, t0, geom.Pt(0, 0), geom.Pt(1e6, 0)))
	zoom, _ := find[ZoomAt](out)
	vp.ZoomAt(zoom.Anchor, zoom.Factor)

	assert.Equal(t, viewport.ZoomMax, vp.Zoom)
}

func TestMachine_LongPress(t *testing.T) {
	t.Run("fires after the delay", func(t *testing.T) {
		s := newScene()
		m := New()
		m.Touch(s, touches(PhaseStart, t0, geom.Pt(40, 40)))
		require.IsType(t, LongPressPending{}, m.Mode())

		assert.Empty(t, m.Tick(s, t0.Add(599*time.Millisecond)))
		out := m.Tick(s, t0.Add(LongPressDelay))

		menu, ok := find[ContextMenu](out)
		require.True(t, ok)
		assert.Equal(t, geom.Pt(40, 40), menu.Screen)
		assert.Empty(t, m.Touch(s, touches(PhaseEnd, t0.Add(time.Second))))
		assert.IsType(t, Idle{}, m.Mode())
	})

	t.Run("movement beyond slop pans instead", func(t *testing.T) {
		s := newScene()
		m := New()
		m.Touch(s, touches(PhaseStart, t0, geom.Pt(40, 40)))

		assert.Empty(t, m.Touch(s, touches(PhaseMove, t0, geom.Pt(45, 40))))
		out := m.Touch(s, touches(PhaseMove, t0, geom.Pt(60, 40)))

		pan, ok := find[PanBy](out)
		require.True(t, ok)
		assert.Equal(t, PanBy{DX: 20, DY: 0}, pan)
		assert.Empty(t, m.Tick(s, t0.Add(time.Second)))
	})

	t.Run("second touch cancels", func(t *testing.T) {
		s := newScene()
		m := New()
		m.Touch(s, touches(PhaseStart, t0, geom.Pt(40, 40)))
		m.Touch(s, touches(PhaseStart, t0, geom.Pt(40, 40), geom.Pt(140, 40)))

		assert.Empty(t, m.Tick(s, t0.Add(time.Second)))
		assert.IsType(t, PinchZooming{}, m.Mode())
	})

	t.Run("quick lift is a canvas tap", func(t *testing.T) {
		s := newScene()
		m := New()
		m.Touch(s, touches(PhaseStart, t0, geom.Pt(40, 40)))

		out := m.Touch(s, touches(PhaseEnd, t0.Add(100*time.Millisecond)))

		_, cleared := find[ClearSelection](out)
		assert.True(t, cleared)
	})
}

func TestMachine_DoubleTapStartsMarquee(t *testing.T) {
	s := newScene().add("a", 100, 100).add("b", 900, 900)
	m := New()

	m.Touch(s, touches(PhaseStart, t0, geom.Pt(0, 0)))
	m.Touch(s, touches(PhaseEnd, t0.Add(80*time.Millisecond)))
	m.Touch(s, touches(PhaseStart, t0.Add(250*time.Millisecond), geom.Pt(0, 0)))
	require.IsType(t, MarqueeSelecting{}, m.Mode())

	assert.Empty(t, m.Tick(s, t0.Add(2*time.Second)), "double tap preempts long-press")
	m.Touch(s, touches(PhaseMove, t0, geom.Pt(200, 200)))
	out := m.Touch(s, touches(PhaseEnd, t0))

	sel, ok := find[MarqueeSelect](out)
	require.True(t, ok)
	assert.Equal(t, []graph.NodeID{"a"}, sel.Nodes)
}

func TestMachine_SlowSecondTapDoesNotMarquee(t *testing.T) {
	s := newScene()
	m := New()

	m.Touch(s, touches(PhaseStart, t0, geom.Pt(0, 0)))
	m.Touch(s, touches(PhaseEnd, t0))
	m.Touch(s, touches(PhaseStart, t0.Add(301*time.Millisecond), geom.Pt(0, 0)))

	assert.IsType(t, LongPressPending{}, m.Mode())
}

func TestMachine_LinkDrawing(t *testing.T) {
	setup := func() (*fakeScene, *Machine) {
		s := newScene().add("x", 0, 0).add("y", 300, 0)
		m := New()
		m.SetTool(ToolConnect)
		return s, m
	}

	t.Run("connect tool on touch skips selection", func(t *testing.T) {
		s, m := setup()

		out := m.Touch(s, touches(PhaseStart, t0, geom.Pt(0, 0)))

		_, selected := find[Select](out)
		assert.False(t, selected)
		assert.IsType(t, LinkDrawing{}, m.Mode())
	})

	t.Run("drop on target links", func(t *testing.T) {
		s, m := setup()
		m.Touch(s, touches(PhaseStart, t0, geom.Pt(0, 0)))
		out := m.Touch(s, touches(PhaseMove, t0, geom.Pt(300, 5)))
		preview, _ := find[LinkPreview](out)
		assert.Equal(t, geom.Pt(300, 5), preview.To)

		out = m.Touch(s, touches(PhaseEnd, t0))

		assert.Equal(t, []Intent{LinkCreate{Source: "x", Target: "y"}}, out)
	})

	t.Run("drop on empty canvas cancels", func(t *testing.T) {
		s, m := setup()
		m.Pointer(s, mouse(PhaseStart, 0, 0))

		out := m.Pointer(s, mouse(PhaseEnd, 150, 400))

		assert.Equal(t, []Intent{LinkCancel{Source: "x"}}, out)
	})

	t.Run("drop on source cancels", func(t *testing.T) {
		s, m := setup()
		m.Pointer(s, mouse(PhaseStart, 0, 0))

		out := m.Pointer(s, mouse(PhaseEnd, 5, 5))

		assert.Equal(t, []Intent{LinkCancel{Source: "x"}}, out)
	})

	t.Run("alt click starts a link with the select tool", func(t *testing.T) {
		s := newScene().add("x", 0, 0)
		m := New()
		e := mouse(PhaseStart, 0, 0)
		e.Mods.Alt = true

		m.Pointer(s, e)

		assert.IsType(t, LinkDrawing{}, m.Mode())
	})

	t.Run("escape cancels", func(t *testing.T) {
		s, m := setup()
		m.Pointer(s, mouse(PhaseStart, 0, 0))

		out := m.Key(KeyEvent{Key: "Escape"})

		assert.Equal(t, []Intent{LinkCancel{Source: "x"}}, out)
		assert.IsType(t, Idle{}, m.Mode())
	})
}

func TestMachine_MultiSelectTouchToggles(t *testing.T) {
	s := newScene().add("a", 0, 0)
	m := New()
	m.SetMultiSelect(true)

	out := m.Touch(s, touches(PhaseStart, t0, geom.Pt(0, 0)))
	assert.Equal(t, []Intent{ToggleSelect{ID: "a"}}, out)

	assert.Empty(t, m.Touch(s, touches(PhaseMove, t0, geom.Pt(100, 100))))
	assert.Empty(t, m.Touch(s, touches(PhaseEnd, t0)))
	assert.IsType(t, Idle{}, m.Mode())
}

func TestMachine_TouchCancelClearsEverything(t *testing.T) {
	s := newScene().add("a", 0, 0)
	m := New()
	m.Touch(s, touches(PhaseStart, t0, geom.Pt(0, 0)))
	m.Touch(s, touches(PhaseMove, t0, geom.Pt(80, 80)))

	out := m.Touch(s, touches(PhaseCancel, t0))

	revert, ok := find[CancelMove](out)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(0, 0), revert.Positions["a"])
	assert.IsType(t, Idle{}, m.Mode())
}

func TestMachine_MouseButtons(t *testing.T) {
	t.Run("right click tap opens the context menu", func(t *testing.T) {
		s := newScene().add("a", 0, 0)
		m := New()
		e := mouse(PhaseStart, 2, 2)
		e.Button = ButtonRight

		m.Pointer(s, e)
		e.Phase = PhaseEnd
		out := m.Pointer(s, e)

		menu, ok := find[ContextMenu](out)
		require.True(t, ok)
		assert.Equal(t, graph.NodeID("a"), menu.Node)
	})

	t.Run("middle drag pans", func(t *testing.T) {
		s := newScene().add("a", 0, 0)
		m := New()
		e := mouse(PhaseStart, 0, 0)
		e.Button = ButtonMiddle
		m.Pointer(s, e)

		e.Phase, e.Pos = PhaseMove, geom.Pt(30, -10)
		out := m.Pointer(s, e)

		assert.Equal(t, []Intent{PanBy{DX: 30, DY: -10}}, out)
	})

	t.Run("left drag on empty canvas selects by marquee", func(t *testing.T) {
		s := newScene().add("a", 50, 50).add("b", 500, 500)
		m := New()

		m.Pointer(s, mouse(PhaseStart, 0, 0))
		m.Pointer(s, mouse(PhaseMove, 100, 100))
		out := m.Pointer(s, mouse(PhaseEnd, 100, 100))

		sel, ok := find[MarqueeSelect](out)
		require.True(t, ok)
		assert.Equal(t, []graph.NodeID{"a"}, sel.Nodes)
	})

	t.Run("click on empty canvas clears selection", func(t *testing.T) {
		s := newScene()
		m := New()

		m.Pointer(s, mouse(PhaseStart, 0, 0))
		out := m.Pointer(s, mouse(PhaseEnd, 1, 1))

		_, cleared := find[ClearSelection](out)
		assert.True(t, cleared)
	})
}

func TestMachine_ControlPointDragSyncsSelectedEdges(t *testing.T) {
	s := newScene()
	e1, e2, e3 := graph.Key("a", "b"), graph.Key("c", "d"), graph.Key("e", "f")
	s.ctrl[e1] = []geom.Point{{X: 0, Y: 0}}
	s.ctrl[e2] = []geom.Point{{X: 100, Y: 100}}
	s.ctrl[e3] = []geom.Point{{X: 300, Y: 300}, {X: 400, Y: 400}}
	s.selectedEdges = []graph.EdgeKey{e1, e2}
	m := New()

	m.Pointer(s, mouse(PhaseStart, 0, 0))
	require.IsType(t, EdgeControlPointDragging{}, m.Mode())
	m.Pointer(s, mouse(PhaseMove, 10, 20))
	out := m.Pointer(s, mouse(PhaseEnd, 10, 20))

	mv, ok := find[MoveControlPoints](out)
	require.True(t, ok)
	assert.True(t, mv.Commit)
	assert.Equal(t, []geom.Point{{X: 10, Y: 20}}, mv.Points[e1])
	assert.Equal(t, []geom.Point{{X: 110, Y: 120}}, mv.Points[e2])
	assert.NotContains(t, mv.Points, e3)
}

func TestMachine_Drawing(t *testing.T) {
	s := newScene().add("a", 0, 0)
	m := New()
	m.SetTool(ToolPen)

	out := m.Pointer(s, mouse(PhaseStart, 0, 0))
	assert.Equal(t, []Intent{StrokeBegin{Tool: sketch.ToolPen, Point: geom.Pt(0, 0)}}, out)
	out = m.Pointer(s, mouse(PhaseMove, 5, 5))
	assert.Equal(t, []Intent{StrokeAppend{Point: geom.Pt(5, 5)}}, out)
	out = m.Pointer(s, mouse(PhaseEnd, 5, 5))
	assert.Equal(t, []Intent{StrokeCommit{}}, out)
}

func TestMachine_Wheel(t *testing.T) {
	m := New()

	out := m.Wheel(newScene(), WheelEvent{Pos: geom.Pt(10, 10), DeltaY: -120})

	assert.Equal(t, []Intent{WheelZoom{Anchor: geom.Pt(10, 10), DeltaY: -120}}, out)
	assert.Empty(t, m.Wheel(newScene(), WheelEvent{}))
}

func TestMachine_Keys(t *testing.T) {
	tests := []struct {
		key  KeyEvent
		want []Intent
	}{
		{KeyEvent{Key: "Tab"}, cmd(CmdAddChild)},
		{KeyEvent{Key: "Enter"}, cmd(CmdAddSibling)},
		{KeyEvent{Key: "Backspace"}, cmd(CmdDelete)},
		{KeyEvent{Key: "z", Mods: Modifiers{Ctrl: true}}, cmd(CmdUndo)},
		{KeyEvent{Key: "Z", Mods: Modifiers{Ctrl: true, Shift: true}}, cmd(CmdRedo)},
		{KeyEvent{Key: "y", Mods: Modifiers{Meta: true}}, cmd(CmdRedo)},
		{KeyEvent{Key: "a", Mods: Modifiers{Ctrl: true}}, cmd(CmdSelectAll)},
		{KeyEvent{Key: "ArrowUp", Mods: Modifiers{Alt: true}}, cmd(CmdMoveUp)},
		{KeyEvent{Key: " "}, cmd(CmdToggleCollapse)},
		{KeyEvent{Key: "f"}, cmd(CmdFitView)},
		{KeyEvent{Key: "Escape"}, cmd(CmdDeselect)},
		{KeyEvent{Key: "h"}, []Intent{SetTool{Tool: ToolHand}}},
		{KeyEvent{Key: "q"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.key.Key, func(t *testing.T) {
			m := New()

			assert.Equal(t, tt.want, m.Key(tt.key))
		})
	}

	m := New()
	m.Key(KeyEvent{Key: "p"})
	assert.Equal(t, ToolPen, m.Tool())
}
