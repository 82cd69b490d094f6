package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/layout"
)

func TestDocument_RoundTrip(t *testing.T) {
	doc := NewSampleDocument("map_1")
	doc.Collapsed[doc.Graph.Roots()[0]] = struct{}{}

	data, err := doc.Marshal()
	require.NoError(t, err)
	got, fixes, err := Parse(data)

	require.NoError(t, err)
	assert.Zero(t, fixes)
	assert.Equal(t, "map_1", got.ID)
	assert.Equal(t, doc.Graph.Len(), got.Graph.Len())
	assert.Len(t, got.Graph.Edges(), len(doc.Graph.Edges()))
	assert.Equal(t, doc.Collapsed.IDs(), got.Collapsed.IDs())
	assert.Len(t, got.Drawings, 1)
	assert.NoError(t, got.Graph.Validate())

	var task *graph.Node
	for _, n := range got.Graph.Nodes() {
		if n.Type == graph.TypeTask {
			task = n
		}
	}
	require.NotNil(t, task)
	assert.Equal(t, graph.TaskPayload{Description: "Invite ten testers"}, task.Data)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{"empty", ``, ErrEmpty},
		{"not json", `{"graph":`, ErrInvalid},
		{"missing graph", `{"version":1,"id":"m"}`, ErrInvalid},
		{"future version", `{"version":99,"graph":{"nodes":[],"edges":[]}}`, ErrUnsupportedVersion},
		{"duplicate ids", `{"graph":{"nodes":[{"id":"a"},{"id":"a"}],"edges":[]}}`, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.data))

			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParse_RepairsDamage(t *testing.T) {
	data := `{
		"graph": {
			"nodes": [
				{"id": "r", "type": "root", "childrenIds": ["a", "ghost"]},
				{"id": "a", "type": "main", "parentId": "r", "childrenIds": [], "dreaming": true}
			],
			"edges": [
				{"source": "r", "target": "a", "style": {"dash": "solid", "width": 2}},
				{"source": "a", "target": "r", "style": {"dash": "dashed"}}
			]
		},
		"viewport": {"x": 10, "y": 20, "zoom": 50},
		"collapsed": ["a", "ghost"],
		"settings": {"layout": "spiral"}
	}`

	doc, fixes, err := Parse([]byte(data))

	require.NoError(t, err)
	assert.Equal(t, 2, fixes)
	assert.NoError(t, doc.Graph.Validate())
	assert.Equal(t, []graph.NodeID{"a"}, doc.Collapsed.IDs())
	assert.Equal(t, 5.0, doc.Viewport.Zoom)
	assert.Equal(t, layout.KindMindmap, doc.Settings.Layout)
	a, _ := doc.Graph.Node("a")
	assert.False(t, a.Dreaming)
	assert.Equal(t, Version, doc.Version)
}

func TestParse_MissingSettingsKeepDefaults(t *testing.T) {
	data := `{"id": "m1", "graph": {"nodes": [{"id": "r", "type": "root", "childrenIds": []}], "edges": []}}`

	doc, _, err := Parse([]byte(data))

	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), doc.Settings)
	assert.True(t, doc.Settings.AutoSave)
	assert.True(t, doc.Settings.SnapToNodes)
	assert.Equal(t, 1.0, doc.Viewport.Zoom)

	t.Run("partial settings", func(t *testing.T) {
		doc, _, err := Parse([]byte(`{"graph": {"nodes": [], "edges": []}, "settings": {"autoSave": false}}`))

		require.NoError(t, err)
		assert.False(t, doc.Settings.AutoSave)
		assert.True(t, doc.Settings.ZoomInertia)
		assert.Equal(t, layout.KindMindmap, doc.Settings.Layout)
	})
}

func TestParseOrDefault(t *testing.T) {
	t.Run("corrupt falls back", func(t *testing.T) {
		doc, ok := ParseOrDefault([]byte(`garbage`), "map_x", "node_root")

		assert.False(t, ok)
		assert.Equal(t, "map_x", doc.ID)
		require.Equal(t, 1, doc.Graph.Len())
		root, _ := doc.Graph.Node("node_root")
		assert.Equal(t, graph.TypeRoot, root.Type)
	})

	t.Run("empty graph gets a root", func(t *testing.T) {
		doc, ok := ParseOrDefault([]byte(`{"graph":{"nodes":[],"edges":[]}}`), "map_y", "node_root")

		assert.True(t, ok)
		assert.Equal(t, "map_y", doc.ID)
		assert.Equal(t, 1, doc.Graph.Len())
	})
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := NewEmptyDocument("m", "Plan", "root")

	c := doc.Clone()
	_ = c.Graph.Update("root", func(n *graph.Node) { n.Label = "changed" })
	c.Collapsed["root"] = struct{}{}

	root, _ := doc.Graph.Node("root")
	assert.Equal(t, "Plan", root.Label)
	assert.False(t, doc.Collapsed.Has("root"))
}
