// Package editor is the single owner of a map's graph. Every mutation goes
// through it so that invariants hold and each discrete action records exactly
// one history step, while live previews (drags, colour scrubbing) record none.
package editor

import (
	"log/slog"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/history"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
	"github.com/mindweave/mindweave/backend-go/internal/sketch"
	"github.com/mindweave/mindweave/backend-go/internal/typeid"
)

// Options configures an Editor. Zero values select defaults.
type Options struct {
	HistoryLimit int
	// Layout is the active layout mode. In mindmap mode new children are
	// placed by the organic layout.
	Layout      layout.Kind
	MinDistance float64
	NewID       func() string
	Logger      *slog.Logger
}

type Editor struct {
	g         *graph.Graph
	collapsed graph.CollapseSet
	drawings  []sketch.Path
	history   *history.Manager

	selection []graph.NodeID
	edgeSel   []graph.EdgeKey

	stroke     sketch.Stroke
	eraseTrail []geom.Point
	moving     bool
	dreaming   map[graph.NodeID]struct{}

	mode    layout.Kind
	minDist float64
	newID   func() string
	log     *slog.Logger

	// revision counts every change, previews included; changes counts only
	// changes that should be persisted.
	revision uint64
	changes  uint64
}

// New returns an editor over g (an empty graph when nil). The editor takes
// ownership of g.
func New(g *graph.Graph, drawings []sketch.Path, opts Options) *Editor {
	if g == nil {
		g = graph.New()
	}
	e := &Editor{
		g:         g,
		collapsed: graph.CollapseSet{},
		drawings:  drawings,
		history:   history.New(opts.HistoryLimit),
		mode:      opts.Layout,
		minDist:   opts.MinDistance,
		newID:     opts.NewID,
		log:       opts.Logger,
	}
	if e.mode == "" {
		e.mode = layout.KindMindmap
	}
	if e.minDist <= 0 {
		e.minDist = layout.DefaultMinDistance
	}
	if e.newID == nil {
		e.newID = typeid.NewNodeID
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.history.Reset(e.g, e.drawings)
	return e
}

// Load replaces the whole document and starts a fresh history.
func (e *Editor) Load(g *graph.Graph, drawings []sketch.Path, collapsed graph.CollapseSet) {
	if g == nil {
		g = graph.New()
	}
	if n := g.Repair(); n > 0 {
		e.log.Warn("repaired loaded graph", "fixes", n)
	}
	if collapsed == nil {
		collapsed = graph.CollapseSet{}
	}
	collapsed.Prune(g)
	e.g, e.drawings, e.collapsed = g, drawings, collapsed
	e.syncDreaming()
	e.selection, e.edgeSel = nil, nil
	e.stroke.Cancel()
	e.eraseTrail = nil
	e.moving = false
	e.history.Reset(e.g, e.drawings)
	e.revision++
}

// Graph returns the live graph. Callers must treat it as read-only.
func (e *Editor) Graph() *graph.Graph { return e.g }

func (e *Editor) Drawings() []sketch.Path { return e.drawings }

func (e *Editor) Collapsed() graph.CollapseSet { return e.collapsed }

func (e *Editor) LayoutMode() layout.Kind { return e.mode }

// SetLayoutMode changes the mode used for automatic placement without
// moving anything.
func (e *Editor) SetLayoutMode(k layout.Kind) {
	e.mode = k
	e.changes++
}

func (e *Editor) Revision() uint64 { return e.revision }

// Changes counts persisted-state changes; savers watch it.
func (e *Editor) Changes() uint64 { return e.changes }

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// VisibleNodeIDs returns the nodes not hidden under a collapsed ancestor.
func (e *Editor) VisibleNodeIDs() []graph.NodeID {
	return e.g.VisibleNodeIDs(e.collapsed)
}

// commit records the current state as one history step.
func (e *Editor) commit() {
	e.history.Commit(e.g, e.drawings)
	e.revision++
	e.changes++
}

// preview marks a change that is shown but not recorded.
func (e *Editor) preview() {
	e.revision++
}

// ignore logs a rejected mutation. Invalid requests are expected when UI
// actions race with async state, so they are not errors for the caller.
func (e *Editor) ignore(op string, err error, args ...any) {
	e.log.Debug("ignored mutation", append([]any{"op", op, "error", err}, args...)...)
}

// Undo restores the previous step.
func (e *Editor) Undo() bool {
	step, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(step)
	return true
}

// Redo re-applies the next step.
func (e *Editor) Redo() bool {
	step, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(step)
	return true
}

func (e *Editor) restore(step history.Step) {
	e.g, e.drawings = step.Graph, step.Drawings
	e.syncDreaming()
	e.collapsed.Prune(e.g)
	e.pruneSelection()
	e.stroke.Cancel()
	e.eraseTrail = nil
	e.moving = false
	e.revision++
	e.changes++
}
