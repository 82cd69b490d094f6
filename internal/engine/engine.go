package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/editor"
	"github.com/mindweave/mindweave/backend-go/internal/generate"
	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/gesture"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
	"github.com/mindweave/mindweave/backend-go/internal/sketch"
	"github.com/mindweave/mindweave/backend-go/internal/store"
	"github.com/mindweave/mindweave/backend-go/internal/typeid"
	"github.com/mindweave/mindweave/backend-go/internal/viewport"
)

// Keyboard zoom steps about the screen centre.
const (
	ZoomInStep  = 1.25
	ZoomOutStep = 0.8
)

// Saver persists a document snapshot. store.Store satisfies it.
type Saver interface {
	Save(ctx context.Context, doc *document.Document) error
}

// Options wires an Engine to its host. Everything is optional.
type Options struct {
	Config    Config
	Saver     Saver
	Generator generate.Service
	Logger    *slog.Logger
	NewID     func() string
}

// Engine is the canvas interaction engine. It owns the editor (and through
// it the graph), the viewport and its animations, the gesture machine and
// the retained scene graph. It is single threaded: the host feeds it input
// events and calls Tick once per animation frame.
type Engine struct {
	cfg Config
	log *slog.Logger

	// Document state
	ed       *editor.Editor
	mapID    string
	name     string
	settings document.Settings

	// View state
	vp      viewport.Viewport
	screenW float64
	screenH float64
	inertia viewport.Inertia
	tween   viewport.Tween
	now     time.Time

	machine *gesture.Machine
	overlay Overlay
	// pendingMove holds the latest drag preview; only the last one per frame
	// reaches the editor.
	pendingMove *gesture.MoveNodes

	gen   *generate.Dispatcher
	saver Saver
	// debounce trails structural changes; savedChanges is the editor change
	// counter last seen.
	debounce     *store.Debouncer
	savedChanges uint64

	// Retained scene graph
	sceneGraph *SceneGraph
	builtRev   uint64
	dirty      bool

	events []Event
}

// NewEngine creates an engine holding an empty map.
func NewEngine(opts Options) *Engine {
	cfg := opts.Config.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newID := opts.NewID
	if newID == nil {
		newID = typeid.NewNodeID
	}
	e := &Engine{
		cfg:      cfg,
		log:      logger,
		machine:  gesture.New(),
		saver:    opts.Saver,
		debounce: store.NewDebouncer(cfg.SaveDelay),
		ed: editor.New(nil, nil, editor.Options{
			HistoryLimit: cfg.HistoryLimit,
			MinDistance:  cfg.MinDistance,
			NewID:        newID,
			Logger:       logger,
		}),
	}
	if opts.Generator != nil {
		e.gen = generate.NewDispatcher(opts.Generator, cfg.GenerateTimeout, logger)
	}
	e.load(document.NewEmptyDocument(typeid.NewMapID(), "Untitled map", newID()))
	return e
}

// Close stops background generation.
func (e *Engine) Close() {
	if e.gen != nil {
		e.gen.Close()
	}
}

// Editor exposes the document model for hosts that edit outside gestures
// (toolbars, inspectors).
func (e *Engine) Editor() *editor.Editor { return e.ed }

// --- Commands (frontend → backend) ---

// LoadDocument loads a stored document from JSON, repairing structural damage.
func (e *Engine) LoadDocument(jsonData string) error {
	doc, fixes, err := document.Parse([]byte(jsonData))
	if err != nil {
		return err
	}
	if fixes > 0 {
		e.log.Warn("repaired document on load", "map", doc.ID, "fixes", fixes)
	}
	e.load(doc)
	return nil
}

// LoadDocumentOrDefault loads jsonData, falling back to a fresh map with one
// root when it is missing or corrupt. It reports whether the data was used.
func (e *Engine) LoadDocumentOrDefault(jsonData, mapID string) bool {
	doc, ok := document.ParseOrDefault([]byte(jsonData), mapID, typeid.NewNodeID())
	if !ok && jsonData != "" {
		e.notice("Saved map could not be read; started a new one")
	}
	e.load(doc)
	return ok
}

// LoadSampleDocument loads the built-in welcome map.
func (e *Engine) LoadSampleDocument(mapID string) {
	e.load(document.NewSampleDocument(mapID))
}

func (e *Engine) load(doc *document.Document) {
	e.ed.Load(doc.Graph, doc.Drawings, doc.Collapsed)
	e.ed.SetLayoutMode(doc.Settings.Layout)
	e.mapID, e.name, e.settings = doc.ID, doc.ProjectName, doc.Settings
	e.vp = doc.Viewport.Sanitize()

	e.machine.Cancel()
	e.overlay = Overlay{}
	e.pendingMove = nil
	e.inertia.Stop()
	e.tween.Cancel()

	e.debounce.Cancel()
	e.savedChanges = e.ed.Changes()
	e.dirty = true
}

// SetViewportSize records the canvas size in CSS pixels.
func (e *Engine) SetViewportSize(w, h float64) {
	e.screenW, e.screenH = max(0, w), max(0, h)
}

// SetViewport jumps to v, stopping any animation.
func (e *Engine) SetViewport(v viewport.Viewport) {
	e.inertia.Stop()
	e.tween.Cancel()
	e.vp = v.Sanitize()
}

// SetSettings replaces the per-map preferences from JSON. Changing the
// layout mode only affects how new nodes are placed.
func (e *Engine) SetSettings(jsonData string) error {
	s := e.settings
	if err := json.Unmarshal([]byte(jsonData), &s); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if _, err := layout.ParseKind(string(s.Layout)); err != nil {
		return err
	}
	if !s.ZoomInertia {
		e.inertia.Stop()
	}
	if !s.AutoSave {
		e.debounce.Cancel()
	}
	e.settings = s
	e.ed.SetLayoutMode(s.Layout)
	return nil
}

// SetTool switches the active tool, abandoning any gesture in progress.
func (e *Engine) SetTool(t gesture.Tool) {
	e.apply(e.machine.Cancel()...)
	e.machine.SetTool(t)
}

// SetMultiSelect toggles the touch multi-select mode.
func (e *Engine) SetMultiSelect(on bool) {
	e.machine.SetMultiSelect(on)
}

// --- Input ---

func (e *Engine) Pointer(ev gesture.PointerEvent) {
	e.observe(ev.Time)
	e.apply(e.machine.Pointer(e, ev)...)
}

func (e *Engine) Touch(ev gesture.TouchEvent) {
	e.observe(ev.Time)
	e.apply(e.machine.Touch(e, ev)...)
}

func (e *Engine) Wheel(ev gesture.WheelEvent) {
	e.apply(e.machine.Wheel(e, ev)...)
}

func (e *Engine) Key(ev gesture.KeyEvent) {
	e.apply(e.machine.Key(ev)...)
}

func (e *Engine) observe(t time.Time) {
	if t.After(e.now) {
		e.now = t
	}
}

// apply routes intents. Drag previews are held until the frame ends so a
// burst of pointer moves costs one graph update; any other intent flushes
// the held preview first to keep ordering.
func (e *Engine) apply(intents ...gesture.Intent) {
	for _, in := range intents {
		if mv, ok := in.(gesture.MoveNodes); ok {
			e.pendingMove = &mv
			continue
		}
		e.flushMove()
		e.applyOne(in)
	}
}

func (e *Engine) flushMove() {
	if e.pendingMove == nil {
		return
	}
	mv := e.pendingMove
	e.pendingMove = nil
	e.overlay.Guides = mv.Guides
	e.ed.PreviewMove(mv.Positions, mv.ControlPoints)
}

func (e *Engine) applyOne(in gesture.Intent) {
	switch in := in.(type) {
	case gesture.PanBy:
		e.tween.Cancel()
		e.vp.PanBy(in.DX, in.DY)
	case gesture.ZoomAt:
		e.tween.Cancel()
		e.inertia.Stop()
		e.vp.ZoomAt(in.Anchor, in.Factor)
	case gesture.WheelZoom:
		e.tween.Cancel()
		if e.settings.ZoomInertia {
			e.inertia.Push(in.Anchor, in.DeltaY)
		} else {
			e.vp.ZoomAt(in.Anchor, viewport.WheelFactor(in.DeltaY))
		}
	case gesture.Marquee:
		if in.Active {
			r := in.Rect
			e.overlay.Marquee = &r
		} else {
			e.overlay.Marquee = nil
		}
	case gesture.LinkPreview:
		e.overlay.LinkFrom, e.overlay.LinkTo, e.overlay.LinkActive = in.Source, in.To, true
	case gesture.LinkCancel:
		e.overlay.LinkActive = false
	case gesture.LinkCreate:
		e.overlay.LinkActive = false
		e.ed.Apply(in)
	case gesture.CommitMove, gesture.CancelMove:
		e.overlay.Guides = nil
		e.ed.Apply(in)
	case gesture.ContextMenu:
		e.emit(Event{Type: EventContextMenu, Node: in.Node, Screen: in.Screen, World: in.World})
	case gesture.EditLabel:
		e.emit(Event{Type: EventEditLabel, Node: in.ID})
	case gesture.SetTool:
		e.emit(Event{Type: EventToolChanged, Tool: in.Tool})
	case gesture.Command:
		e.command(in.Name)
	default:
		if !e.ed.Apply(in) {
			e.log.Debug("unhandled intent", "intent", fmt.Sprintf("%T", in))
		}
	}
}

func (e *Engine) command(name gesture.CommandName) {
	switch name {
	case gesture.CmdFitView:
		e.FitView(e.now)
	case gesture.CmdZoomIn:
		e.ZoomBy(ZoomInStep)
	case gesture.CmdZoomOut:
		e.ZoomBy(ZoomOutStep)
	case gesture.CmdEditLabel:
		if sel := e.ed.Selection(); len(sel) > 0 {
			e.emit(Event{Type: EventEditLabel, Node: sel[len(sel)-1]})
		}
	default:
		e.ed.Apply(gesture.Command{Name: name})
	}
}

// Command runs a named command as a toolbar or menu would.
func (e *Engine) Command(name gesture.CommandName) {
	e.apply(gesture.Command{Name: name})
}

// ApplyLayout runs the named layout as one undo step; see
// editor.ApplyLayout for how the selection narrows it.
func (e *Engine) ApplyLayout(kind string) error {
	k, err := layout.ParseKind(kind)
	if err != nil {
		return err
	}
	e.flushMove()
	return e.ed.ApplyLayout(k)
}

// --- View ---

// ZoomBy zooms about the screen centre.
func (e *Engine) ZoomBy(factor float64) {
	e.tween.Cancel()
	e.inertia.Stop()
	e.vp.ZoomAt(geom.Pt(e.screenW/2, e.screenH/2), factor)
}

// FitView flies the viewport to frame every visible node.
func (e *Engine) FitView(now time.Time) {
	r := e.ed.Graph().BoundingBox(e.ed.VisibleNodeIDs(), 0)
	e.flyTo(viewport.Fit(r, e.screenW, e.screenH, e.cfg.FitPadding), now)
}

// FocusNode flies the viewport to centre on id, keeping the zoom.
func (e *Engine) FocusNode(id graph.NodeID, now time.Time) bool {
	n, ok := e.ed.Graph().Node(id)
	if !ok {
		return false
	}
	e.flyTo(e.vp.CenterOn(n.Position(), e.screenW, e.screenH), now)
	return true
}

func (e *Engine) flyTo(target viewport.Viewport, now time.Time) {
	e.inertia.Stop()
	if now.IsZero() {
		e.tween.Cancel()
		e.vp = target.Sanitize()
		return
	}
	e.tween.Start(e.vp, target, now, viewport.DefaultFlyFor, viewport.EaseInOut)
}

// --- Generation ---

// Generate asks the generator to expand node id, using its label as the
// topic. The node shows as dreaming until Tick applies the result.
func (e *Engine) Generate(id graph.NodeID, opts generate.Options) error {
	if e.gen == nil {
		return generate.ErrUnavailable
	}
	n, ok := e.ed.Graph().Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
	}
	if _, err := e.gen.Submit(id, n.Label, opts); err != nil {
		return err
	}
	e.ed.BeginGeneration(id)
	return nil
}

// CancelGeneration abandons the request for id, if any.
func (e *Engine) CancelGeneration(id graph.NodeID) {
	if e.gen == nil {
		return
	}
	e.gen.Cancel(id)
	e.ed.FailGeneration(id)
}

func (e *Engine) pollGenerations() {
	if e.gen == nil {
		return
	}
	for _, res := range e.gen.Poll() {
		req := res.Request
		if res.Err != nil {
			e.ed.FailGeneration(req.Node)
			if errors.Is(res.Err, context.Canceled) {
				continue
			}
			e.log.Warn("generation failed", "node", req.Node, "error", res.Err)
			e.notice(fmt.Sprintf("Could not generate ideas for %q", req.Topic))
			continue
		}
		added, err := e.ed.FinishGeneration(req.Node, res.Tree, req.Options.InheritStyle)
		if err != nil {
			e.log.Warn("generation not applied", "node", req.Node, "error", err)
			e.notice(fmt.Sprintf("Could not add ideas for %q", req.Topic))
			continue
		}
		e.log.Debug("generation applied", "node", req.Node, "added", added)
	}
}

// --- Frame loop ---

// Tick runs one animation frame at now and returns the draw commands.
// This is called once per animation frame from the frontend.
func (e *Engine) Tick(now time.Time) string {
	e.observe(now)
	e.apply(e.machine.Tick(e, now)...)
	e.flushMove()

	e.inertia.Step(&e.vp)
	e.tween.Step(&e.vp, now)

	e.pollGenerations()
	e.autosave(now)
	return e.Render()
}

func (e *Engine) autosave(now time.Time) {
	if e.saver == nil || !e.settings.AutoSave {
		return
	}
	if c := e.ed.Changes(); c != e.savedChanges {
		e.savedChanges = c
		e.debounce.Mark(now)
	}
	if e.debounce.Due(now) {
		e.save()
	}
}

// Flush saves immediately if a change is waiting. Hosts call it before the
// page unloads.
func (e *Engine) Flush() {
	if e.saver == nil {
		return
	}
	if c := e.ed.Changes(); c != e.savedChanges {
		e.savedChanges = c
		e.debounce.Mark(e.now)
	}
	if e.debounce.Flush() {
		e.save()
	}
}

func (e *Engine) save() {
	doc := e.Document()
	if err := e.saver.Save(context.Background(), doc); err != nil {
		e.log.Error("autosave failed", "map", doc.ID, "error", err)
		e.notice("Changes could not be saved")
		return
	}
	e.emit(Event{Type: EventSaved})
}

// --- Queries (frontend ← backend) ---

// scene returns the retained scene graph, rebuilding it if the editor
// changed since the last build.
func (e *Engine) scene() *SceneGraph {
	if rev := e.ed.Revision(); e.dirty || e.sceneGraph == nil || rev != e.builtRev {
		e.sceneGraph = BuildSceneGraph(e.ed)
		e.builtRev = rev
		e.dirty = false
	}
	return e.sceneGraph
}

// Render returns the current frame's draw commands as JSON.
func (e *Engine) Render() string {
	overlay := e.overlay
	if draft, ok := e.ed.StrokePreview(); ok {
		overlay.StrokeDraft = &draft
	}
	var visible geom.Rect
	if e.screenW > 0 && e.screenH > 0 {
		visible = e.vp.VisibleWorld(e.screenW, e.screenH)
	}
	commands := CompileDrawCommands(e.scene(), Frame{
		Viewport: e.vp,
		Visible:  visible,
		Drawings: e.ed.Drawings(),
		Overlay:  overlay,
	})
	out, err := DrawCommandsToJSON(commands)
	if err != nil {
		e.log.Error("encode draw commands", "error", err)
	}
	return out
}

// HitTest performs a hit test at the given screen coordinates.
// Returns the node id or edge key of the topmost hit, or empty string.
func (e *Engine) HitTest(x, y float64) string {
	return HitTest(e.scene(), e.vp.ScreenToWorld(geom.Pt(x, y)), e.vp.Zoom)
}

// Document returns a deep snapshot of the map as it would be saved.
func (e *Engine) Document() *document.Document {
	doc := &document.Document{
		Version:     document.Version,
		ID:          e.mapID,
		ProjectName: e.name,
		Graph:       e.ed.Graph(),
		Drawings:    e.ed.Drawings(),
		Viewport:    e.vp,
		Settings:    e.settings,
		Collapsed:   e.ed.Collapsed(),
		UpdatedAt:   e.now,
	}
	doc.Settings.Layout = e.ed.LayoutMode()
	return doc.Clone()
}

// GetDocument returns the full document as JSON (for saving/sync).
func (e *Engine) GetDocument() string {
	data, err := e.Document().Marshal()
	if err != nil {
		e.log.Error("encode document", "error", err)
		return "{}"
	}
	return string(data)
}

// GetViewport returns the viewport as JSON.
func (e *Engine) GetViewport() string {
	data, _ := json.Marshal(e.vp)
	return string(data)
}

// GetSelection returns the selected nodes and edges as JSON.
func (e *Engine) GetSelection() string {
	edges := make([]string, 0, len(e.ed.SelectedEdges()))
	for _, k := range e.ed.SelectedEdges() {
		edges = append(edges, k.String())
	}
	nodes := e.ed.Selection()
	if nodes == nil {
		nodes = []graph.NodeID{}
	}
	data, _ := json.Marshal(map[string]any{"nodes": nodes, "edges": edges})
	return string(data)
}

// GetBoundingBox returns the world bounds of every visible node, grown by
// padding, as JSON.
func (e *Engine) GetBoundingBox(padding float64) string {
	return RectToJSON(e.ed.Graph().BoundingBox(e.ed.VisibleNodeIDs(), padding))
}

// GetSelectionBounds returns the bounding box of the current selection as JSON.
func (e *Engine) GetSelectionBounds() string {
	return RectToJSON(e.scene().SelectionBounds(e.ed.Selection()))
}

// GetState returns the toolbar state as JSON.
func (e *Engine) GetState() string {
	data, _ := json.Marshal(map[string]any{
		"tool":     e.machine.Tool(),
		"mode":     e.machine.Mode().Name(),
		"canUndo":  e.ed.CanUndo(),
		"canRedo":  e.ed.CanRedo(),
		"layout":   e.ed.LayoutMode(),
		"settings": e.settings,
		"nodes":    e.ed.Graph().Len(),
	})
	return string(data)
}

// Drawings returns a copy of the freehand layer.
func (e *Engine) Drawings() []sketch.Path {
	return sketch.ClonePaths(e.ed.Drawings())
}
