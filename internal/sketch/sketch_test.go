package sketch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
)

func TestStroke_Lifecycle(t *testing.T) {
	var s Stroke
	s.Begin("d1", ToolPen, "#000", 2, geom.Pt(0, 0))

	s.Append(geom.Pt(0, 0))
	s.Append(geom.Pt(10, 0))
	s.Append(geom.Pt(10, 10))

	preview, ok := s.Preview()
	require.True(t, ok)
	assert.Len(t, preview.Points, 3)

	path, ok := s.Commit()
	require.True(t, ok)
	assert.Equal(t, "d1", path.ID)
	assert.Equal(t, []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, path.Points)
	assert.False(t, s.Active())

	_, ok = s.Commit()
	assert.False(t, ok)
}

func TestStroke_AppendWithoutBeginIsIgnored(t *testing.T) {
	var s Stroke

	s.Append(geom.Pt(1, 1))

	_, ok := s.Preview()
	assert.False(t, ok)
}

func TestErase(t *testing.T) {
	paths := []Path{
		{ID: "near", Points: []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}, Width: 2},
		{ID: "far", Points: []geom.Point{{X: 0, Y: 500}, {X: 100, Y: 500}}, Width: 2},
	}

	kept, removed := Erase(paths, []geom.Point{{X: 50, Y: 5}}, 8)

	assert.Equal(t, 1, removed)
	require.Len(t, kept, 1)
	assert.Equal(t, "far", kept[0].ID)
}

func TestPath_Bounds(t *testing.T) {
	p := Path{Points: []geom.Point{{X: 10, Y: 20}, {X: -10, Y: 40}}, Width: 4}

	assert.Equal(t, geom.Rect{X: -12, Y: 18, Width: 24, Height: 24}, p.Bounds())
}

func TestClonePaths(t *testing.T) {
	orig := []Path{{ID: "a", Points: []geom.Point{{X: 1, Y: 1}}}}

	c := ClonePaths(orig)
	c[0].Points[0].X = 42

	assert.Equal(t, 1.0, orig[0].Points[0].X)
	assert.Nil(t, ClonePaths(nil))
}
