package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindweave/mindweave/backend-go/internal/geom"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
)

func TestRoute_Straight(t *testing.T) {
	p := Route(graph.RoutingStraight, geom.Pt(0, 0), geom.Pt(100, 0), []geom.Point{{X: 50, Y: 50}})

	assert.Equal(t, [][]any{{"M", 0.0, 0.0}, {"L", 50.0, 50.0}, {"L", 100.0, 0.0}}, p.Commands())
}

func TestRoute_Orthogonal(t *testing.T) {
	t.Run("wide pair steps at mid x", func(t *testing.T) {
		p := Route(graph.RoutingOrthogonal, geom.Pt(0, 0), geom.Pt(200, 100), nil)

		assert.Equal(t, []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 200, Y: 100}}, p.Flatten())
	})

	t.Run("tall pair steps at mid y", func(t *testing.T) {
		p := Route(graph.RoutingOrthogonal, geom.Pt(0, 0), geom.Pt(50, 300), nil)

		assert.Equal(t, []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 150}, {X: 50, Y: 150}, {X: 50, Y: 300}}, p.Flatten())
	})
}

func TestRoute_CurvedWithoutControlPoints(t *testing.T) {
	p := Route(graph.RoutingCurved, geom.Pt(0, 0), geom.Pt(200, 100), nil)

	require.Len(t, p.Segments, 2)
	c := p.Segments[1]
	assert.Equal(t, OpCubic, c.Op)
	assert.Equal(t, []geom.Point{{X: 100, Y: 0}, {X: 100, Y: 100}, {X: 200, Y: 100}}, c.Points)
}

func TestRoute_CatmullRomPassesThroughControlPoints(t *testing.T) {
	ctrl := []geom.Point{{X: 100, Y: -80}, {X: 220, Y: 60}}

	p := Route(graph.RoutingCurved, geom.Pt(0, 0), geom.Pt(300, 0), ctrl)

	require.Len(t, p.Segments, 4)
	assert.Equal(t, ctrl[0], p.Segments[1].Points[2])
	assert.Equal(t, ctrl[1], p.Segments[2].Points[2])
	assert.Equal(t, geom.Pt(300, 0), p.Segments[3].Points[2])
	for _, cp := range ctrl {
		assert.InDelta(t, 0, p.Distance(cp), 1e-9)
	}
}

func TestRoute_CatmullRomPhantomTangent(t *testing.T) {
	// collinear points keep the curve on the line
	p := Route(graph.RoutingCurved, geom.Pt(0, 0), geom.Pt(300, 0), []geom.Point{{X: 150, Y: 0}})

	for _, pt := range p.Flatten() {
		assert.InDelta(t, 0, pt.Y, 1e-9)
	}
}

func TestPath_DistanceAndMidpoint(t *testing.T) {
	p := Route(graph.RoutingStraight, geom.Pt(0, 0), geom.Pt(100, 0), nil)

	assert.InDelta(t, 10, p.Distance(geom.Pt(50, 10)), 1e-9)
	assert.True(t, p.Midpoint().ApproxEqual(geom.Pt(50, 0), 1e-9))
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 100, Height: 0}, p.Bounds())
}
