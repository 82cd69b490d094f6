package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
)

func node(id string, typ NodeType, x, y float64) *Node {
	return &Node{ID: NodeID(id), Type: typ, Label: id, X: x, Y: y}
}

// buildTree creates root → a → (a1, a2) and root → b.
func buildTree(t *testing.T) *Graph {
	t.Helper()
	g := New()
	require.NoError(t, g.AddNode(node("root", TypeRoot, 0, 0)))
	require.NoError(t, g.AddNode(node("a", TypeMain, 200, 0)))
	require.NoError(t, g.AddNode(node("b", TypeMain, -200, 0)))
	require.NoError(t, g.AddNode(node("a1", TypeSub, 400, -50)))
	require.NoError(t, g.AddNode(node("a2", TypeSub, 400, 50)))
	require.NoError(t, g.Link("root", "a", DefaultEdgeStyle()))
	require.NoError(t, g.Link("root", "b", DefaultEdgeStyle()))
	require.NoError(t, g.Link("a", "a1", DefaultEdgeStyle()))
	require.NoError(t, g.Link("a", "a2", DefaultEdgeStyle()))
	return g
}

func TestGraph_AddNode(t *testing.T) {
	t.Run("rejects duplicates", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddNode(node("x", TypeRoot, 0, 0)))

		err := g.AddNode(node("x", TypeSub, 1, 1))

		assert.ErrorIs(t, err, ErrDuplicateNode)
		assert.Equal(t, 1, g.Len())
	})

	t.Run("rejects empty id", func(t *testing.T) {
		assert.ErrorIs(t, New().AddNode(&Node{}), ErrInvalidNode)
	})

	t.Run("resets structural fields", func(t *testing.T) {
		g := New()
		n := node("x", TypeSub, 0, 0)
		n.ParentID = "ghost"
		n.ChildrenIDs = []NodeID{"ghost"}

		require.NoError(t, g.AddNode(n))

		assert.Empty(t, n.ParentID)
		assert.Empty(t, n.ChildrenIDs)
		assert.NoError(t, g.Validate())
	})
}

func TestGraph_Link(t *testing.T) {
	tests := []struct {
		name   string
		source NodeID
		target NodeID
		want   error
	}{
		{"duplicate edge", "root", "a", ErrDuplicateEdge},
		{"self loop", "a", "a", ErrSelfLoop},
		{"back edge to ancestor", "a1", "root", ErrCycle},
		{"unknown source", "ghost", "a", ErrNodeNotFound},
		{"unknown target", "a", "ghost", ErrNodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildTree(t)
			before := len(g.Edges())

			err := g.Link(tt.source, tt.target, DefaultEdgeStyle())

			assert.ErrorIs(t, err, tt.want)
			assert.Len(t, g.Edges(), before)
			assert.NoError(t, g.Validate())
		})
	}

	t.Run("cross link keeps original parent", func(t *testing.T) {
		g := buildTree(t)

		require.NoError(t, g.Link("b", "a1", DefaultEdgeStyle()))

		n, _ := g.Node("a1")
		assert.Equal(t, NodeID("a"), n.ParentID)
		assert.True(t, g.HasEdge(Key("b", "a1")))
		assert.Empty(t, g.TreeChildren("b"))
	})
}

func TestGraph_EdgeStyle(t *testing.T) {
	g := buildTree(t)
	style := DefaultEdgeStyle()
	style.Routing = RoutingOrthogonal
	style.ControlPoints = []geom.Point{{X: 1, Y: 2}}

	require.NoError(t, g.SetEdgeStyle(Key("root", "a"), style))
	style.ControlPoints[0].X = 99

	got, ok := g.EdgeStyle(Key("root", "a"))
	require.True(t, ok)
	assert.Equal(t, RoutingOrthogonal, got.Routing)
	assert.Equal(t, 1.0, got.ControlPoints[0].X)

	_, ok = g.EdgeStyle(Key("a", "root"))
	assert.False(t, ok)
	assert.ErrorIs(t, g.SetEdgeStyle(Key("b", "a1"), style), ErrEdgeNotFound)
}

func TestGraph_RemoveNodes(t *testing.T) {
	t.Run("children are unlinked not deleted", func(t *testing.T) {
		g := buildTree(t)

		removed := g.RemoveNodes("a")

		assert.Equal(t, []NodeID{"a"}, removed)
		assert.Equal(t, 4, g.Len())
		assert.Equal(t, []NodeID{"b"}, g.Children("root"))
		for _, id := range []NodeID{"a1", "a2"} {
			n, ok := g.Node(id)
			require.True(t, ok)
			assert.Empty(t, n.ParentID)
		}
		assert.False(t, g.HasEdge(Key("root", "a")))
		assert.ElementsMatch(t, []NodeID{"root", "a1", "a2"}, g.Roots())
		assert.NoError(t, g.Validate())
	})

	t.Run("reparents to remaining lister", func(t *testing.T) {
		g := buildTree(t)
		require.NoError(t, g.Link("b", "a1", DefaultEdgeStyle()))

		g.RemoveNodes("a")

		n, _ := g.Node("a1")
		assert.Equal(t, NodeID("b"), n.ParentID)
		assert.NoError(t, g.Validate())
	})

	t.Run("unknown ids are ignored", func(t *testing.T) {
		g := buildTree(t)

		assert.Nil(t, g.RemoveNodes("ghost"))
		assert.Equal(t, 5, g.Len())
	})
}

func TestGraph_Unlink(t *testing.T) {
	g := buildTree(t)

	require.NoError(t, g.Unlink("a", "a1"))

	n, _ := g.Node("a1")
	assert.Empty(t, n.ParentID)
	assert.False(t, g.HasEdge(Key("a", "a1")))
	assert.ErrorIs(t, g.Unlink("a", "a1"), ErrEdgeNotFound)
	assert.NoError(t, g.Validate())
}

func TestGraph_Update(t *testing.T) {
	g := buildTree(t)

	err := g.Update("a", func(n *Node) {
		n.Label = "renamed"
		n.ChildrenIDs = nil
		n.ParentID = ""
	})

	require.NoError(t, err)
	n, _ := g.Node("a")
	assert.Equal(t, "renamed", n.Label)
	assert.Equal(t, []NodeID{"a1", "a2"}, n.ChildrenIDs)
	assert.Equal(t, NodeID("root"), n.ParentID)
}

func TestGraph_ReorderChild(t *testing.T) {
	g := buildTree(t)

	require.NoError(t, g.ReorderChild("a", "a2", -1))
	assert.Equal(t, []NodeID{"a2", "a1"}, g.Children("a"))

	require.NoError(t, g.ReorderChild("a", "a2", -5))
	assert.Equal(t, []NodeID{"a2", "a1"}, g.Children("a"))
}

func TestGraph_Clone(t *testing.T) {
	g := buildTree(t)
	require.NoError(t, g.Update("a1", func(n *Node) { n.Data = ListPayload{Items: []string{"x"}} }))

	c := g.Clone()
	require.NoError(t, c.Move("a", geom.Pt(9, 9)))
	require.NoError(t, c.Update("a1", func(n *Node) { n.Data.(ListPayload).Items[0] = "changed" }))
	c.RemoveNodes("b")

	n, _ := g.Node("a")
	assert.Equal(t, 200.0, n.X)
	a1, _ := g.Node("a1")
	assert.Equal(t, "x", a1.Data.(ListPayload).Items[0])
	assert.True(t, g.Has("b"))
}

func TestGraph_JSON(t *testing.T) {
	g := buildTree(t)
	require.NoError(t, g.Update("a2", func(n *Node) {
		n.Type = TypeCode
		n.Data = CodePayload{Language: "go", Source: "package main"}
	}))
	style := DefaultEdgeStyle()
	style.Label = "because"
	require.NoError(t, g.SetEdgeStyle(Key("a", "a2"), style))

	raw, err := json.Marshal(g)
	require.NoError(t, err)

	loaded := New()
	require.NoError(t, json.Unmarshal(raw, loaded))

	assert.Equal(t, g.IDs(), loaded.IDs())
	assert.Equal(t, g.Edges(), loaded.Edges())
	n, _ := loaded.Node("a2")
	assert.Equal(t, CodePayload{Language: "go", Source: "package main"}, n.Data)
	assert.NoError(t, loaded.Validate())
}

func TestGraph_Repair(t *testing.T) {
	raw := `{
		"nodes": [
			{"id": "r", "type": "root", "label": "r", "childrenIds": ["x", "ghost", "x"]},
			{"id": "x", "type": "sub", "label": "x", "parentId": "nobody", "childrenIds": []},
			{"id": "p", "type": "sub", "label": "p", "parentId": "q", "childrenIds": ["q"]},
			{"id": "q", "type": "sub", "label": "q", "parentId": "p", "childrenIds": ["p"]}
		],
		"edges": [{"source": "x", "target": "r", "style": {}}]
	}`
	g := New()
	require.NoError(t, json.Unmarshal([]byte(raw), g))
	require.Error(t, g.Validate())

	fixes := g.Repair()

	assert.Positive(t, fixes)
	assert.NoError(t, g.Validate())
	assert.Equal(t, []NodeID{"x"}, g.Children("r"))
	x, _ := g.Node("x")
	assert.Equal(t, NodeID("r"), x.ParentID)
	assert.NotEmpty(t, g.Roots())
}

func TestGraph_InvariantsAfterMixedOperations(t *testing.T) {
	g := buildTree(t)
	require.NoError(t, g.AddNode(node("c", TypeSub, 0, 100)))
	require.NoError(t, g.Link("b", "c", DefaultEdgeStyle()))
	require.NoError(t, g.Link("a2", "c", DefaultEdgeStyle()))
	g.RemoveNodes("b", "a1")
	require.NoError(t, g.AddNode(node("d", TypeSub, 0, 200)))
	require.NoError(t, g.Link("c", "d", DefaultEdgeStyle()))
	g.RemoveNodes("a2")

	require.NoError(t, g.Validate())
	for _, n := range g.Nodes() {
		for _, c := range n.ChildrenIDs {
			assert.True(t, g.Has(c))
		}
		if n.ParentID != "" {
			p, ok := g.Node(n.ParentID)
			require.True(t, ok)
			assert.True(t, p.HasChild(n.ID))
		}
	}
}
