package nudge

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/boothmap/boothmap/internal/geom"
)

func input(keys, prev Keys) Input {
	return Input{
		Now:      10 * time.Second,
		LastMove: 10*time.Second - 100*time.Millisecond,
		Delay:    500 * time.Millisecond,
		Keys:     keys,
		Prev:     prev,
		Steps:    DefaultSteps,
		Bounds:   geom.CanvasSize,
	}
}

func TestNoInputIsIdentity(t *testing.T) {
	in := input(Keys{}, Keys{Left: true})
	p, last := Apply(geom.Pt(103, 47), in)
	assert.Equal(t, geom.Pt(103, 47), p)
	assert.Equal(t, in.LastMove, last)
}

func TestEdgePressMovesAndSnaps(t *testing.T) {
	tests := []struct {
		name   string
		in     Input
		from   geom.Point
		want   geom.Point
		coarse bool
		fine   bool
	}{
		{"right base step", input(Keys{Right: true}, Keys{}), geom.Pt(103, 47), geom.Pt(110, 47), false, false},
		{"left base step", input(Keys{Left: true}, Keys{}), geom.Pt(103, 47), geom.Pt(100, 47), false, false},
		{"down fine step", input(Keys{Down: true}, Keys{}), geom.Pt(103, 47), geom.Pt(103, 60), false, true},
		{"up coarse step", input(Keys{Up: true}, Keys{}), geom.Pt(103, 347), geom.Pt(103, 300), true, false},
		{"coarse beats fine", input(Keys{Right: true}, Keys{}), geom.Pt(0, 0), geom.Pt(50, 0), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			in.Coarse, in.Fine = tt.coarse, tt.fine
			p, last := Apply(tt.from, in)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, in.Now, last)
			step := in.Step()
			if tt.want.X != tt.from.X {
				assert.Equal(t, 0.0, math.Mod(p.X, step))
			} else {
				assert.Equal(t, 0.0, math.Mod(p.Y, step))
			}
		})
	}
}

func TestHeldKeyWaitsForDelay(t *testing.T) {
	in := input(Keys{Right: true}, Keys{Right: true})
	p, last := Apply(geom.Pt(100, 100), in)
	assert.Equal(t, geom.Pt(100, 100), p)
	assert.Equal(t, in.LastMove, last)

	in.LastMove = in.Now - in.Delay
	p, last = Apply(geom.Pt(100, 100), in)
	assert.Equal(t, geom.Pt(105, 100), p)
	assert.Equal(t, in.Now, last)
}

func TestHeldDiagonalRepeatsOnBothAxes(t *testing.T) {
	in := input(Keys{Right: true, Down: true}, Keys{Right: true, Down: true})
	in.LastMove = 0
	p, _ := Apply(geom.Pt(100, 100), in)
	assert.Equal(t, geom.Pt(105, 105), p)
}

func TestClampsToBounds(t *testing.T) {
	in := input(Keys{Left: true, Up: true}, Keys{})
	p, _ := Apply(geom.Pt(2, 3), in)
	assert.Equal(t, geom.Pt(0, 0), p)

	in = input(Keys{Right: true}, Keys{})
	in.Coarse = true
	p, _ = Apply(geom.Pt(1900, 10), in)
	assert.Equal(t, geom.Pt(1920, 10), p)
}

func TestAllowNegative(t *testing.T) {
	in := input(Keys{Left: true}, Keys{})
	in.AllowNegative = true
	p, _ := Apply(geom.Pt(0, -10), in)
	assert.Equal(t, geom.Pt(-5, -10), p)
}

func TestApplyShapeMovesEveryVertexByAnchorDelta(t *testing.T) {
	pts := []geom.Point{geom.Pt(103, 100), geom.Pt(200, 200), geom.Pt(150, 50)}
	in := input(Keys{Right: true}, Keys{})
	out, last := ApplyShape(pts, in)
	assert.Equal(t, []geom.Point{geom.Pt(110, 100), geom.Pt(207, 200), geom.Pt(157, 50)}, out)
	assert.Equal(t, in.Now, last)
	assert.Equal(t, geom.Pt(103, 100), pts[0], "input slice untouched")

	out, _ = ApplyShape(pts, input(Keys{}, Keys{}))
	assert.Equal(t, pts, out)
}
