package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/generate"
	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/gesture"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/viewport"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingSaver struct {
	mu    sync.Mutex
	saves []*document.Document
	err   error
}

func (s *recordingSaver) Save(_ context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saves = append(s.saves, doc)
	return nil
}

func (s *recordingSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

type stubGenerator struct {
	labels []string
	err    error
	block  chan struct{}
}

func (g *stubGenerator) Expand(ctx context.Context, topic string, _ generate.Options) (*generate.Tree, error) {
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	t := &generate.Tree{Label: topic}
	for _, l := range g.labels {
		t.Children = append(t.Children, generate.Tree{Label: l})
	}
	return t, nil
}

func (g *stubGenerator) Illustrate(context.Context, string) (*generate.Image, error) {
	return nil, generate.ErrUnavailable
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}
}

// newEngine returns an engine showing a single root at the world origin in
// the centre of an 800x600 canvas.
func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.NewID == nil {
		opts.NewID = seqIDs()
	}
	e := NewEngine(opts)
	t.Cleanup(e.Close)

	doc := document.NewEmptyDocument("map_test", "Root", "root")
	data, err := doc.Marshal()
	require.NoError(t, err)
	require.NoError(t, e.LoadDocument(string(data)))
	e.SetViewportSize(800, 600)
	e.SetViewport(viewport.Viewport{X: 400, Y: 300, Zoom: 1})
	return e
}

func press(e *Engine, x, y float64, b gesture.Button, at time.Time) {
	e.Pointer(gesture.PointerEvent{Phase: gesture.PhaseStart, Pos: geom.Pt(x, y), Button: b, Time: at})
}

func moveTo(e *Engine, x, y float64, at time.Time) {
	e.Pointer(gesture.PointerEvent{Phase: gesture.PhaseMove, Pos: geom.Pt(x, y), Time: at})
}

func release(e *Engine, x, y float64, b gesture.Button, at time.Time) {
	e.Pointer(gesture.PointerEvent{Phase: gesture.PhaseEnd, Pos: geom.Pt(x, y), Button: b, Time: at})
}

func rootPos(t *testing.T, e *Engine) geom.Point {
	t.Helper()
	n, ok := e.Editor().Graph().Node("root")
	require.True(t, ok)
	return n.Position()
}

func TestEngine_DragIsCoalescedPerFrame(t *testing.T) {
	e := newEngine(t, Options{})

	press(e, 400, 300, gesture.ButtonLeft, t0)
	moveTo(e, 450, 300, t0.Add(10*time.Millisecond))
	moveTo(e, 500, 300, t0.Add(20*time.Millisecond))

	assert.Equal(t, geom.Pt(0, 0), rootPos(t, e), "moves wait for the frame")
	assert.Equal(t, []graph.NodeID{"root"}, e.Editor().Selection())

	e.Tick(t0.Add(30 * time.Millisecond))
	assert.Equal(t, geom.Pt(100, 0), rootPos(t, e))
	assert.False(t, e.Editor().CanUndo(), "previews record no history")

	release(e, 520, 300, gesture.ButtonLeft, t0.Add(40*time.Millisecond))

	assert.Equal(t, geom.Pt(120, 0), rootPos(t, e))
	require.True(t, e.Editor().CanUndo())
	require.True(t, e.Editor().Undo())
	assert.Equal(t, geom.Pt(0, 0), rootPos(t, e))
}

func TestEngine_EscapeRevertsDrag(t *testing.T) {
	e := newEngine(t, Options{})

	press(e, 400, 300, gesture.ButtonLeft, t0)
	moveTo(e, 480, 340, t0)
	e.Tick(t0)
	e.Key(gesture.KeyEvent{Key: "Escape"})

	assert.Equal(t, geom.Pt(0, 0), rootPos(t, e))
	assert.False(t, e.Editor().CanUndo())
}

func TestEngine_WheelZoom(t *testing.T) {
	t.Run("inertia keeps the anchor fixed", func(t *testing.T) {
		e := newEngine(t, Options{})
		anchor := geom.Pt(600, 200)
		before := e.Viewport().ScreenToWorld(anchor)

		e.Wheel(gesture.WheelEvent{Pos: anchor, DeltaY: -100})
		for i := 0; i < 10; i++ {
			e.Tick(t0.Add(time.Duration(i) * 16 * time.Millisecond))
		}

		assert.Greater(t, e.Viewport().Zoom, 1.0)
		after := e.Viewport().ScreenToWorld(anchor)
		assert.InDelta(t, before.X, after.X, 1e-6)
		assert.InDelta(t, before.Y, after.Y, 1e-6)
	})

	t.Run("direct zoom without inertia", func(t *testing.T) {
		e := newEngine(t, Options{})
		require.NoError(t, e.SetSettings(`{"zoomInertia":false}`))

		e.Wheel(gesture.WheelEvent{Pos: geom.Pt(400, 300), DeltaY: -100})

		assert.InDelta(t, viewport.WheelFactor(-100), e.Viewport().Zoom, 1e-9)
	})

	t.Run("zoom is clamped", func(t *testing.T) {
		e := newEngine(t, Options{})
		for i := 0; i < 50; i++ {
			e.Key(gesture.KeyEvent{Key: "=", Mods: gesture.Modifiers{Ctrl: true}})
		}
		assert.Equal(t, viewport.ZoomMax, e.Viewport().Zoom)
	})
}

func TestEngine_RightClickOpensContextMenu(t *testing.T) {
	e := newEngine(t, Options{})

	press(e, 410, 305, gesture.ButtonRight, t0)
	release(e, 410, 305, gesture.ButtonRight, t0)
	events := e.DrainEvents()

	require.Len(t, events, 1)
	assert.Equal(t, EventContextMenu, events[0].Type)
	assert.Equal(t, graph.NodeID("root"), events[0].Node)
	assert.Equal(t, geom.Pt(10, 5), events[0].World)
	assert.Empty(t, e.DrainEvents())
}

func TestEngine_KeyboardCommands(t *testing.T) {
	e := newEngine(t, Options{})
	e.Editor().Select([]graph.NodeID{"root"}, false)

	e.Key(gesture.KeyEvent{Key: "Tab"})
	assert.Equal(t, 2, e.Editor().Graph().Len())

	e.Key(gesture.KeyEvent{Key: "F2"})
	events := e.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventEditLabel, events[0].Type)

	e.Key(gesture.KeyEvent{Key: "p"})
	events = e.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, gesture.ToolPen, events[0].Tool)

	e.Key(gesture.KeyEvent{Key: "z", Mods: gesture.Modifiers{Meta: true}})
	assert.Equal(t, 1, e.Editor().Graph().Len())
}

func TestEngine_HitTest(t *testing.T) {
	e := newEngine(t, Options{})

	assert.Equal(t, "root", e.HitTest(400, 300))
	assert.Equal(t, "", e.HitTest(10, 10))

	e.SetViewport(viewport.Viewport{X: 0, Y: 0, Zoom: 2})
	assert.Equal(t, "root", e.HitTest(150, 40), "world (75, 20) is inside the root")
}

func TestEngine_Render(t *testing.T) {
	e := newEngine(t, Options{})

	var cmds []DrawCommand
	require.NoError(t, json.Unmarshal([]byte(e.Tick(t0)), &cmds))

	require.NotEmpty(t, cmds)
	assert.Equal(t, "save", cmds[0].Op)
	assert.Equal(t, []float64{1, 0, 0, 1, 400, 300}, cmds[0].Transform)
	assert.Equal(t, "restore", cmds[len(cmds)-1].Op)
	var hasRoot bool
	for _, c := range cmds {
		hasRoot = hasRoot || c.ObjectID == "root"
	}
	assert.True(t, hasRoot)

	e.SetViewport(viewport.Viewport{X: 5000, Y: 5000, Zoom: 1})
	var culled []DrawCommand
	require.NoError(t, json.Unmarshal([]byte(e.Render()), &culled))
	require.NotEmpty(t, culled)
	for _, c := range culled {
		assert.NotEqual(t, "root", c.ObjectID, "off-screen nodes are culled")
	}
}

func TestEngine_FitView(t *testing.T) {
	e := newEngine(t, Options{})
	e.SetViewport(viewport.Viewport{X: -300, Y: 20, Zoom: 0.5})

	e.FitView(t0)
	e.Tick(t0.Add(viewport.DefaultFlyFor / 2))
	mid := e.Viewport()
	e.Tick(t0.Add(viewport.DefaultFlyFor))

	assert.NotEqual(t, viewport.Viewport{X: 400, Y: 300, Zoom: 1}, mid)
	assert.Equal(t, viewport.Viewport{X: 400, Y: 300, Zoom: 1}, e.Viewport())

	e.SetViewport(viewport.Viewport{Zoom: 3})
	e.FitView(time.Time{})
	assert.Equal(t, viewport.Viewport{X: 400, Y: 300, Zoom: 1}, e.Viewport(), "no clock jumps directly")
}

func TestEngine_Autosave(t *testing.T) {
	saver := &recordingSaver{}
	e := newEngine(t, Options{Saver: saver, Config: Config{SaveDelay: 2 * time.Second}})

	e.Tick(t0)
	assert.Zero(t, saver.count(), "loading is not a change")

	e.Editor().Select([]graph.NodeID{"root"}, false)
	e.Key(gesture.KeyEvent{Key: "Tab"})
	e.Tick(t0.Add(time.Second))
	e.Key(gesture.KeyEvent{Key: "Enter"})
	e.Tick(t0.Add(2500 * time.Millisecond))
	assert.Zero(t, saver.count(), "second change pushes the deadline back")

	e.Tick(t0.Add(4500 * time.Millisecond))
	require.Equal(t, 1, saver.count())
	assert.Equal(t, 3, saver.saves[0].Graph.Len())
	assert.Equal(t, "map_test", saver.saves[0].ID)

	events := e.DrainEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, EventSaved, events[len(events)-1].Type)

	e.Tick(t0.Add(10 * time.Second))
	assert.Equal(t, 1, saver.count(), "nothing new to save")
}

func TestEngine_AutosaveIgnoresSelection(t *testing.T) {
	saver := &recordingSaver{}
	e := newEngine(t, Options{Saver: saver})

	press(e, 400, 300, gesture.ButtonLeft, t0)
	release(e, 400, 300, gesture.ButtonLeft, t0)
	e.Tick(t0.Add(time.Minute))

	assert.Equal(t, []graph.NodeID{"root"}, e.Editor().Selection())
	assert.Zero(t, saver.count())
}

func TestEngine_FlushAndSaveErrors(t *testing.T) {
	saver := &recordingSaver{}
	e := newEngine(t, Options{Saver: saver})
	e.Editor().Select([]graph.NodeID{"root"}, false)

	e.Key(gesture.KeyEvent{Key: "Tab"})
	e.Flush()
	assert.Equal(t, 1, saver.count())
	e.Flush()
	assert.Equal(t, 1, saver.count())

	saver.err = errors.New("quota exceeded")
	e.Key(gesture.KeyEvent{Key: "Tab"})
	e.Flush()
	var notice bool
	for _, ev := range e.DrainEvents() {
		notice = notice || ev.Type == EventNotice
	}
	assert.True(t, notice)
}

func TestEngine_Generate(t *testing.T) {
	labels := []string{"Alpha", "Beta"}

	t.Run("applies the result on tick", func(t *testing.T) {
		e := newEngine(t, Options{Generator: &stubGenerator{labels: labels}})

		require.NoError(t, e.Generate("root", generate.DefaultOptions()))
		n, _ := e.Editor().Graph().Node("root")
		assert.True(t, n.Dreaming)

		e.gen.Wait()
		e.Tick(t0)

		n, _ = e.Editor().Graph().Node("root")
		assert.False(t, n.Dreaming)
		assert.Len(t, e.Editor().Graph().Children("root"), 2)
		assert.NoError(t, e.Editor().Graph().Validate())
	})

	t.Run("failure leaves the map and reports once", func(t *testing.T) {
		e := newEngine(t, Options{Generator: &stubGenerator{err: errors.New("boom")}})

		require.NoError(t, e.Generate("root", generate.DefaultOptions()))
		e.gen.Wait()
		e.Tick(t0)

		n, _ := e.Editor().Graph().Node("root")
		assert.False(t, n.Dreaming)
		assert.Equal(t, 1, e.Editor().Graph().Len())
		events := e.DrainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventNotice, events[0].Type)
	})

	t.Run("one request per node", func(t *testing.T) {
		gen := &stubGenerator{labels: labels, block: make(chan struct{})}
		e := newEngine(t, Options{Generator: gen})

		require.NoError(t, e.Generate("root", generate.DefaultOptions()))
		err := e.Generate("root", generate.DefaultOptions())
		assert.ErrorIs(t, err, generate.ErrInFlight)

		close(gen.block)
		e.gen.Wait()
		e.Tick(t0)
		assert.Len(t, e.Editor().Graph().Children("root"), 2)
	})

	t.Run("cancel is silent", func(t *testing.T) {
		gen := &stubGenerator{labels: labels, block: make(chan struct{})}
		e := newEngine(t, Options{Generator: gen})

		require.NoError(t, e.Generate("root", generate.DefaultOptions()))
		e.CancelGeneration("root")
		e.gen.Wait()
		e.Tick(t0)

		assert.Empty(t, e.DrainEvents())
		assert.Equal(t, 1, e.Editor().Graph().Len())
	})

	t.Run("errors", func(t *testing.T) {
		e := newEngine(t, Options{})
		assert.ErrorIs(t, e.Generate("root", generate.DefaultOptions()), generate.ErrUnavailable)

		e = newEngine(t, Options{Generator: &stubGenerator{labels: labels}})
		assert.ErrorIs(t, e.Generate("ghost", generate.DefaultOptions()), graph.ErrNodeNotFound)
		assert.ErrorIs(t, e.Generate("root", generate.Options{Depth: 9}), generate.ErrInvalidOptions)
	})
}

func TestEngine_LoadDocumentOrDefault(t *testing.T) {
	e := newEngine(t, Options{})

	ok := e.LoadDocumentOrDefault("{not json", "map_x")

	assert.False(t, ok)
	assert.Equal(t, 1, e.Editor().Graph().Len())
	assert.Equal(t, "map_x", e.Document().ID)
	events := e.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventNotice, events[0].Type)
}

func TestEngine_DocumentRoundTrip(t *testing.T) {
	e := newEngine(t, Options{})
	e.LoadSampleDocument("map_sample")
	e.SetViewport(viewport.Viewport{X: 12, Y: -8, Zoom: 1.5})

	data := e.GetDocument()
	other := newEngine(t, Options{})
	require.NoError(t, other.LoadDocument(data))

	assert.Equal(t, e.Editor().Graph().Len(), other.Editor().Graph().Len())
	assert.Len(t, other.Editor().Graph().Edges(), len(e.Editor().Graph().Edges()))
	assert.Equal(t, e.Viewport(), other.Viewport())
	assert.Len(t, other.Drawings(), len(e.Drawings()))
	assert.Error(t, other.LoadDocument("[]"))
}

func TestEngine_Queries(t *testing.T) {
	e := newEngine(t, Options{})
	e.Editor().Select([]graph.NodeID{"root"}, false)

	assert.JSONEq(t, `{"nodes":["root"],"edges":[]}`, e.GetSelection())
	assert.JSONEq(t, `{"x":400,"y":300,"zoom":1}`, e.GetViewport())

	var box geom.Rect
	require.NoError(t, json.Unmarshal([]byte(e.GetBoundingBox(10)), &box))
	assert.Equal(t, geom.Rect{X: -100, Y: -42, Width: 200, Height: 84}, box)

	var state map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.GetState()), &state))
	assert.Equal(t, "select", state["tool"])
	assert.Equal(t, float64(1), state["nodes"])
}

func TestEngine_ToolbarCommands(t *testing.T) {
	e := newEngine(t, Options{})
	e.Editor().Select([]graph.NodeID{"root"}, false)

	e.Command(gesture.CmdAddChild)
	assert.Equal(t, 2, e.Editor().Graph().Len())

	e.Command(gesture.CmdZoomIn)
	assert.InDelta(t, ZoomInStep, e.Viewport().Zoom, 1e-9)

	require.NoError(t, e.ApplyLayout("radial"))
	assert.True(t, e.Editor().CanUndo())
	assert.Error(t, e.ApplyLayout("spiral"))

	e.Command(gesture.CmdUndo)
	e.Command(gesture.CmdUndo)
	assert.Equal(t, 1, e.Editor().Graph().Len())
}
