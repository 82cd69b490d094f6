package graph

import (
	"encoding/json"
	"slices"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
)

type NodeID string

type NodeType string

const (
	TypeRoot  NodeType = "root"
	TypeMain  NodeType = "main"
	TypeSub   NodeType = "sub"
	TypeNote  NodeType = "note"
	TypeMedia NodeType = "media"
	TypeTask  NodeType = "task"
	TypeCode  NodeType = "code"
	TypeTable NodeType = "table"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case TypeRoot, TypeMain, TypeSub, TypeNote, TypeMedia, TypeTask, TypeCode, TypeTable:
		return true
	}
	return false
}

type Shape string

const (
	ShapeRounded  Shape = "rounded"
	ShapeRect     Shape = "rect"
	ShapeEllipse  Shape = "ellipse"
	ShapeDiamond  Shape = "diamond"
	ShapePill     Shape = "pill"
	ShapeNoBorder Shape = "none"
)

// ColorTransparent is the symbolic colour for nodes drawn without a fill.
const ColorTransparent = "transparent"

// Node is a mind-map node. X and Y are the world-space centre of the node.
// ParentID is a back-reference only; ownership is expressed by ChildrenIDs.
type Node struct {
	ID          NodeID   `json:"id"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Type        NodeType `json:"type"`
	Label       string   `json:"label"`
	ParentID    NodeID   `json:"parentId,omitempty"`
	ChildrenIDs []NodeID `json:"childrenIds"`
	Shape       Shape    `json:"shape,omitempty"`
	Color       string   `json:"color,omitempty"`
	Locked      bool     `json:"locked,omitempty"`
	Checked     bool     `json:"checked,omitempty"`
	// Dreaming marks a node with a generation request in flight.
	Dreaming bool    `json:"dreaming,omitempty"`
	Data     Payload `json:"-"`
}

type nodeAlias Node

type nodeJSON struct {
	nodeAlias
	Data json.RawMessage `json:"data,omitempty"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	data, err := marshalPayload(n.Data)
	if err != nil {
		return nil, err
	}
	out := nodeJSON{nodeAlias: nodeAlias(n), Data: data}
	if out.ChildrenIDs == nil {
		out.ChildrenIDs = []NodeID{}
	}
	return json.Marshal(out)
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	payload, err := unmarshalPayload(in.Data)
	if err != nil {
		return err
	}
	*n = Node(in.nodeAlias)
	n.Data = payload
	return nil
}

// Position returns the node centre.
func (n *Node) Position() geom.Point {
	return geom.Point{X: n.X, Y: n.Y}
}

// Bounds returns the node's world-space extent.
func (n *Node) Bounds() geom.Rect {
	w, h := NodeSize(n.Type)
	return geom.RectAround(n.Position(), w, h)
}

// HasChild reports whether id is listed in ChildrenIDs.
func (n *Node) HasChild(id NodeID) bool {
	return slices.Contains(n.ChildrenIDs, id)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.ChildrenIDs = slices.Clone(n.ChildrenIDs)
	if n.Data != nil {
		c.Data = n.Data.clonePayload()
	}
	return &c
}

// NodeSize returns the nominal width and height used for hit testing and bounds.
func NodeSize(t NodeType) (float64, float64) {
	switch t {
	case TypeRoot:
		return 180, 64
	case TypeMain:
		return 160, 52
	case TypeSub:
		return 140, 44
	case TypeNote:
		return 200, 120
	case TypeMedia:
		return 220, 160
	case TypeTask:
		return 180, 48
	case TypeCode:
		return 260, 160
	case TypeTable:
		return 260, 140
	default:
		return 140, 44
	}
}

// ChildType is the default type for a node created under a parent of type t.
func ChildType(parent NodeType) NodeType {
	switch parent {
	case TypeRoot:
		return TypeMain
	default:
		return TypeSub
	}
}
