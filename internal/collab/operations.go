package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

var (
	ErrStaleVersion     = errors.New("stale base version")
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrInvalidOperation = errors.New("invalid operation")
)

// maxLabel bounds labels arriving over the wire.
const maxLabel = 500

// DocumentState holds the authoritative document state for a room
type DocumentState struct {
	mu      sync.RWMutex
	doc     *document.Document
	version int64
	dirty   bool
}

// NewDocumentState creates a new document state from an initial document
func NewDocumentState(doc *document.Document) *DocumentState {
	return &DocumentState{doc: doc}
}

// Document returns a deep copy of the current document.
func (ds *DocumentState) Document() *document.Document {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.doc.Clone()
}

func (ds *DocumentState) Version() int64 {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.version
}

// SyncPayload encodes the current document for a doc.sync message.
func (ds *DocumentState) SyncPayload() (DocSyncPayload, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	data, err := json.Marshal(ds.doc)
	if err != nil {
		return DocSyncPayload{}, fmt.Errorf("encode document: %w", err)
	}
	return DocSyncPayload{Version: ds.version, Document: data}, nil
}

// Replace swaps in a whole document sent by a client. The update must be
// based on the current version; the map id never changes.
func (ds *DocumentState) Replace(baseVersion int64, data []byte) (int64, error) {
	doc, _, err := document.Parse(data)
	if err != nil {
		return 0, err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if baseVersion != ds.version {
		return ds.version, fmt.Errorf("%w: base %d, current %d", ErrStaleVersion, baseVersion, ds.version)
	}
	doc.ID = ds.doc.ID
	ds.doc = doc
	ds.version++
	ds.dirty = true
	return ds.version, nil
}

// ApplyOperation applies an operation to the document and returns the new version.
func (ds *DocumentState) ApplyOperation(op Operation) (int64, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.applyOperationLocked(op); err != nil {
		return 0, err
	}
	ds.version++
	ds.dirty = true
	return ds.version, nil
}

// applyOperationLocked applies the operation without locking (caller must hold lock)
func (ds *DocumentState) applyOperationLocked(op Operation) error {
	switch op.Type {
	case OpNodeMove:
		return ds.applyMove(op)
	case OpNodeLabel:
		return ds.applyLabel(op)
	case OpNodeColor:
		return ds.applyColor(op)
	case OpNodeLocked:
		return ds.applyLocked(op)
	case OpMapRename:
		return ds.applyRename(op)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

func (ds *DocumentState) applyMove(op Operation) error {
	if op.X == nil || op.Y == nil {
		return fmt.Errorf("%w: move needs x and y", ErrInvalidOperation)
	}
	p := geom.Pt(*op.X, *op.Y)
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return fmt.Errorf("%w: non-finite position", ErrInvalidOperation)
	}
	n, ok := ds.doc.Graph.Node(graph.NodeID(op.NodeID))
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, op.NodeID)
	}
	if n.Locked {
		return fmt.Errorf("%w: node %s is locked", ErrInvalidOperation, op.NodeID)
	}
	return ds.doc.Graph.Move(n.ID, p)
}

func (ds *DocumentState) applyLabel(op Operation) error {
	if op.Text == nil || len(*op.Text) > maxLabel {
		return fmt.Errorf("%w: label missing or too long", ErrInvalidOperation)
	}
	return ds.doc.Graph.Update(graph.NodeID(op.NodeID), func(n *graph.Node) {
		n.Label = *op.Text
	})
}

func (ds *DocumentState) applyColor(op Operation) error {
	if op.Text == nil {
		return fmt.Errorf("%w: color missing", ErrInvalidOperation)
	}
	return ds.doc.Graph.Update(graph.NodeID(op.NodeID), func(n *graph.Node) {
		n.Color = *op.Text
	})
}

func (ds *DocumentState) applyLocked(op Operation) error {
	if op.Locked == nil {
		return fmt.Errorf("%w: locked missing", ErrInvalidOperation)
	}
	return ds.doc.Graph.Update(graph.NodeID(op.NodeID), func(n *graph.Node) {
		n.Locked = *op.Locked
	})
}

func (ds *DocumentState) applyRename(op Operation) error {
	if op.Text == nil || strings.TrimSpace(*op.Text) == "" {
		return fmt.Errorf("%w: name missing", ErrInvalidOperation)
	}
	ds.doc.ProjectName = strings.TrimSpace(*op.Text)
	return nil
}

// TakeDirty returns a snapshot to persist and clears the dirty flag, or
// false when nothing changed since the last call.
func (ds *DocumentState) TakeDirty() (*document.Document, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if !ds.dirty {
		return nil, false
	}
	ds.dirty = false
	return ds.doc.Clone(), true
}

// MarkDirty flags the document for another save attempt.
func (ds *DocumentState) MarkDirty() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.dirty = true
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
