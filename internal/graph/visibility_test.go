package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapseSet_Toggle(t *testing.T) {
	g := buildTree(t)
	c := CollapseSet{}

	collapsed := c.Toggle(g, "a")

	assert.True(t, collapsed)
	assert.ElementsMatch(t, []NodeID{"a", "a1", "a2"}, c.IDs())
	assert.ElementsMatch(t, []NodeID{"root", "a", "b"}, g.VisibleNodeIDs(c))

	collapsed = c.Toggle(g, "a")

	assert.False(t, collapsed)
	assert.ElementsMatch(t, []NodeID{"a1", "a2"}, c.IDs())
	assert.ElementsMatch(t, []NodeID{"root", "a", "b", "a1", "a2"}, g.VisibleNodeIDs(c))
}

func TestGraph_VisibleNodeIDs(t *testing.T) {
	t.Run("nested collapse hides grandchildren", func(t *testing.T) {
		g := buildTree(t)
		c := CollapseSet{"root": {}}

		assert.Equal(t, []NodeID{"root"}, g.VisibleNodeIDs(c))
	})

	t.Run("cross link does not leak hidden nodes", func(t *testing.T) {
		g := buildTree(t)
		require.NoError(t, g.Link("b", "a1", DefaultEdgeStyle()))
		c := CollapseSet{"a": {}}

		visible := g.VisibleNodeIDs(c)

		assert.NotContains(t, visible, NodeID("a1"))
	})

	t.Run("no visible node has a collapsed ancestor", func(t *testing.T) {
		g := buildTree(t)
		c := CollapseSet{}
		c.Toggle(g, "b")
		c.Toggle(g, "a")
		c.Toggle(g, "a")

		for _, id := range g.VisibleNodeIDs(c) {
			for p, ok := g.Parent(id); ok; p, ok = g.Parent(p) {
				assert.False(t, c.Has(p), "%s visible under collapsed %s", id, p)
			}
		}
	})
}

func TestCollapseSet_JSON(t *testing.T) {
	c := CollapseSet{"b": {}, "a": {}}

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(raw))

	var back CollapseSet
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, c, back)
}

func TestGraph_BoundingBox(t *testing.T) {
	g := buildTree(t)

	box := g.BoundingBox([]NodeID{"root", "a"}, 10)

	rw, rh := NodeSize(TypeRoot)
	mw, _ := NodeSize(TypeMain)
	assert.InDelta(t, -rw/2-10, box.X, 1e-9)
	assert.InDelta(t, -rh/2-10, box.Y, 1e-9)
	assert.InDelta(t, 200+mw/2+10, box.X+box.Width, 1e-9)

	assert.True(t, New().BoundingBox(nil, 10).IsEmpty())
}
