package geom

import (
	"encoding/json"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var square = []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

func TestPointInPolygon(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		poly []Point
		want bool
	}{
		{"inside square", Pt(5, 5), square, true},
		{"outside right", Pt(15, 5), square, false},
		{"outside above", Pt(5, -1), square, false},
		{"empty polygon", Pt(0, 0), nil, false},
		{"concave notch", Pt(5, 8), []Point{{0, 0}, {10, 0}, {10, 10}, {5, 5}, {0, 10}}, false},
		{"concave body", Pt(2, 6), []Point{{0, 0}, {10, 0}, {10, 10}, {5, 5}, {0, 10}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInPolygon(tt.p, tt.poly))
		})
	}
}

func TestPointInPolygonDoesNotDependOnStartVertex(t *testing.T) {
	rotated := []Point{square[2], square[3], square[0], square[1]}
	for _, p := range []Point{{1, 1}, {9, 9}, {5, 11}, {-3, 4}} {
		assert.Equal(t, PointInPolygon(p, square), PointInPolygon(p, rotated), "point %v", p)
	}
}

func TestPointToSegmentDistance(t *testing.T) {
	assert.InDelta(t, 5.0, PointToSegmentDistance(Pt(3, 4), Pt(0, 0), Pt(0, 0)), 1e-9)
	assert.InDelta(t, 2.0, PointToSegmentDistance(Pt(5, 2), Pt(0, 0), Pt(10, 0)), 1e-9)
	// Beyond the end the projection clamps to b.
	assert.InDelta(t, 5.0, PointToSegmentDistance(Pt(13, 4), Pt(0, 0), Pt(10, 0)), 1e-9)
	assert.InDelta(t, 5.0, PointToSegmentDistance(Pt(-3, -4), Pt(0, 0), Pt(10, 0)), 1e-9)
}

func TestPolylineHit(t *testing.T) {
	open := []Point{{0, 0}, {100, 0}, {100, 100}}
	assert.True(t, PolylineHit(Pt(50, 4), open, 6, false))
	assert.False(t, PolylineHit(Pt(50, 50), open, 6, false))
	// The closing edge (100,100)->(0,0) passes through (50,50).
	assert.True(t, PolylineHit(Pt(50, 50), open, 6, true))
	assert.False(t, PolylineHit(Pt(0, 0), []Point{{0, 0}}, 6, false))
}

func TestNearestVertex(t *testing.T) {
	assert.Equal(t, -1, NearestVertex(Pt(0, 0), nil, 10))
	assert.Equal(t, 2, NearestVertex(Pt(12, 12), square, 10))
	assert.Equal(t, -1, NearestVertex(Pt(50, 50), square, 10))
}

func TestRotatedRectCorners(t *testing.T) {
	c := RotatedRectCorners(Pt(0, 0), Size{W: 4, H: 2}, 0)
	assert.Equal(t, [4]Point{{-2, -1}, {2, -1}, {2, 1}, {-2, 1}}, c)

	c = RotatedRectCorners(Pt(10, 10), Size{W: 4, H: 2}, 90)
	want := [4]Point{{11, 8}, {11, 12}, {9, 12}, {9, 8}}
	for i := range want {
		assert.InDelta(t, want[i].X, c[i].X, 1e-9)
		assert.InDelta(t, want[i].Y, c[i].Y, 1e-9)
	}
}

func TestMatrixInvertRoundTrip(t *testing.T) {
	m := Translate(30, -12).Multiply(RotateDegrees(37)).Multiply(Scale(2, 3))
	p := m.Invert().Apply(m.Apply(Pt(7, 9)))
	assert.InDelta(t, 7, p.X, 1e-9)
	assert.InDelta(t, 9, p.Y, 1e-9)
	assert.Equal(t, Identity(), Scale(0, 0).Invert())
}

func TestLabelRotationOpposesBodyRotation(t *testing.T) {
	b := BodyRotation(30).Apply(Pt(1, 0))
	l := LabelRotation(30).Apply(Pt(1, 0))
	assert.InDelta(t, b.X, l.X, 1e-9)
	assert.InDelta(t, -b.Y, l.Y, 1e-9)
	assert.Greater(t, b.Y, 0.0)
}

func TestViewportWindowToCanvas(t *testing.T) {
	v := NewViewport(960, 540)
	p, ok := v.WindowToCanvas(Pt(480, 270))
	require.True(t, ok)
	assert.Equal(t, Pt(960, 540), p)

	tall := NewViewport(1920, 1200)
	assert.Equal(t, 1.0, tall.Scale())
	assert.Equal(t, 60, tall.Frame().Min.Y)
	assert.Equal(t, image.Pt(0, 60), tall.Offset())

	_, ok = tall.WindowToCanvas(Pt(100, 30))
	assert.False(t, ok, "letterbox bar")
	_, ok = tall.WindowToCanvas(Pt(100, 1140))
	assert.False(t, ok, "bottom edge is exclusive")

	p, ok = tall.WindowToCanvas(Pt(100, 160))
	require.True(t, ok)
	assert.Equal(t, Pt(100, 100), p)
	assert.Equal(t, Pt(100, 160), tall.CanvasToWindow(p))
}

func TestNormalizeAngle(t *testing.T) {
	for in, want := range map[float64]float64{-5: 355, 360: 0, 725: 5, 0: 0, 359: 359} {
		assert.Equal(t, want, NormalizeAngle(in), "in=%v", in)
	}
}

func TestRectHelpers(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 5, Y: 5, Width: 10, Height: 10}
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(Rect{X: 20, Y: 20, Width: 1, Height: 1}))
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 15, Height: 15}, a.Union(b))
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 3, Height: 4}, BoundsOf([]Point{{1, 6}, {4, 2}}))
	assert.Equal(t, 4, Rect{X: 0.5, Y: 0, Width: 3, Height: 1}.Image().Dx())
}

func TestPointJSON(t *testing.T) {
	data, err := json.Marshal(Pt(12.5, 40))
	require.NoError(t, err)
	assert.JSONEq(t, `[12.5, 40]`, string(data))

	var p Point
	require.NoError(t, json.Unmarshal([]byte(`[3, 4]`), &p))
	assert.Equal(t, Pt(3, 4), p)
	assert.Error(t, json.Unmarshal([]byte(`[3]`), &p))
	assert.InDelta(t, 5, Pt(0, 0).Dist(p), 1e-12)
	assert.False(t, math.IsNaN(p.Scale(2).X))
}
