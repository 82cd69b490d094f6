package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
	"github.com/mindweave/mindweave/backend-go/internal/sketch"
	"github.com/mindweave/mindweave/backend-go/internal/viewport"
)

// Version is the envelope format written by this package.
const Version = 1

var (
	ErrEmpty              = errors.New("empty document")
	ErrUnsupportedVersion = errors.New("unsupported document version")
	ErrInvalid            = errors.New("invalid document")
)

// Settings are per-map preferences persisted with the document.
type Settings struct {
	Layout      layout.Kind `json:"layout"`
	ZoomInertia bool        `json:"zoomInertia"`
	SnapToNodes bool        `json:"snapToNodes"`
	// AutoSave disables the debounced saver when false.
	AutoSave bool `json:"autoSave"`
}

func DefaultSettings() Settings {
	return Settings{
		Layout:      layout.KindMindmap,
		ZoomInertia: true,
		SnapToNodes: true,
		AutoSave:    true,
	}
}

// Document is the persisted form of one map.
type Document struct {
	Version     int               `json:"version"`
	ID          string            `json:"id"`
	ProjectName string            `json:"projectName"`
	Graph       *graph.Graph      `json:"graph"`
	Drawings    []sketch.Path     `json:"drawings"`
	Viewport    viewport.Viewport `json:"viewport"`
	Settings    Settings          `json:"settings"`
	Collapsed   graph.CollapseSet `json:"collapsed"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// NewEmptyDocument creates a map holding a single root node.
func NewEmptyDocument(id, name, rootID string) *Document {
	g := graph.New()
	_ = g.AddNode(&graph.Node{
		ID:    graph.NodeID(rootID),
		Type:  graph.TypeRoot,
		Label: name,
		Shape: graph.ShapeRounded,
	})
	return &Document{
		Version:     Version,
		ID:          id,
		ProjectName: name,
		Graph:       g,
		Drawings:    []sketch.Path{},
		Viewport:    viewport.Default(),
		Settings:    DefaultSettings(),
		Collapsed:   graph.CollapseSet{},
	}
}

// Parse decodes and repairs a stored document. Structural damage in the
// graph (dangling child ids, orphaned styles, parent cycles) is repaired
// rather than rejected; the number of fixes is returned.
func Parse(data []byte) (*Document, int, error) {
	if len(data) == 0 {
		return nil, 0, ErrEmpty
	}
	// Fields missing from data keep their defaults.
	doc := Document{Settings: DefaultSettings(), Viewport: viewport.Default()}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if doc.Version > Version {
		return nil, 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	if doc.Graph == nil {
		return nil, 0, fmt.Errorf("%w: missing graph", ErrInvalid)
	}
	fixes := doc.normalize()
	return &doc, fixes, nil
}

// normalize brings a decoded document back within its invariants.
func (d *Document) normalize() int {
	fixes := d.Graph.Repair()
	for _, n := range d.Graph.Nodes() {
		if math.IsNaN(n.X) || math.IsInf(n.X, 0) || math.IsNaN(n.Y) || math.IsInf(n.Y, 0) {
			_ = d.Graph.Update(n.ID, func(n *graph.Node) { n.X, n.Y = 0, 0 })
			fixes++
		}
		if n.Dreaming {
			// a request in flight cannot survive a reload
			_ = d.Graph.Update(n.ID, func(n *graph.Node) { n.Dreaming = false })
		}
	}
	if d.Version == 0 {
		d.Version = Version
	}
	if d.Collapsed == nil {
		d.Collapsed = graph.CollapseSet{}
	}
	d.Collapsed.Prune(d.Graph)
	if d.Drawings == nil {
		d.Drawings = []sketch.Path{}
	}
	d.Viewport = d.Viewport.Sanitize()
	if _, err := layout.ParseKind(string(d.Settings.Layout)); err != nil {
		d.Settings.Layout = layout.KindMindmap
	}
	return fixes
}

// ParseOrDefault is Parse with a fallback: missing or corrupt data yields a
// fresh single-root map with the given id. ok reports whether data was used.
func ParseOrDefault(data []byte, id, rootID string) (doc *Document, ok bool) {
	doc, _, err := Parse(data)
	if err != nil {
		return NewEmptyDocument(id, "Untitled map", rootID), false
	}
	if doc.ID == "" {
		doc.ID = id
	}
	if doc.Graph.Len() == 0 {
		_ = doc.Graph.AddNode(&graph.Node{ID: graph.NodeID(rootID), Type: graph.TypeRoot, Label: "Central topic"})
	}
	return doc, true
}

// Marshal stamps the envelope version and encodes the document.
func (d *Document) Marshal() ([]byte, error) {
	d.Version = Version
	return json.Marshal(d)
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	c := *d
	if d.Graph != nil {
		c.Graph = d.Graph.Clone()
	}
	c.Drawings = sketch.ClonePaths(d.Drawings)
	c.Collapsed = make(graph.CollapseSet, len(d.Collapsed))
	for id := range d.Collapsed {
		c.Collapsed[id] = struct{}{}
	}
	return &c
}
