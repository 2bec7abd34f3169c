// Package geom holds the pure geometry used by the editor: canvas points,
// polygon and segment tests, rotated rectangles, affine matrices and the
// window to canvas letterbox mapping.
package geom

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Logical canvas size. All document coordinates live in this space.
const (
	CanvasWidth  = 1920
	CanvasHeight = 1080
)

// Point is a position in canvas units. It serialises as [x, y].
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func fromVec(v r2.Vec) Point { return Point{X: v.X, Y: v.Y} }

func (p Point) Add(q Point) Point { return fromVec(r2.Add(p.vec(), q.vec())) }

func (p Point) Sub(q Point) Point { return fromVec(r2.Sub(p.vec(), q.vec())) }

func (p Point) Scale(f float64) Point { return fromVec(r2.Scale(f, p.vec())) }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return r2.Norm(r2.Sub(p.vec(), q.vec())) }

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("point: want 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Size is a width/height pair. It serialises as [w, h].
type Size struct {
	W float64
	H float64
}

func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{s.W, s.H})
}

func (s *Size) UnmarshalJSON(data []byte) error {
	var wh []float64
	if err := json.Unmarshal(data, &wh); err != nil {
		return fmt.Errorf("size: %w", err)
	}
	if len(wh) != 2 {
		return fmt.Errorf("size: want 2 components, got %d", len(wh))
	}
	s.W, s.H = wh[0], wh[1]
	return nil
}

// CanvasSize is the logical drawing area.
var CanvasSize = Size{W: CanvasWidth, H: CanvasHeight}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// ClampTo keeps p inside [0, bounds.W] x [0, bounds.H].
func ClampTo(p Point, bounds Size) Point {
	return Point{X: Clamp(p.X, 0, bounds.W), Y: Clamp(p.Y, 0, bounds.H)}
}

// ClampToCanvas keeps p inside the logical canvas.
func ClampToCanvas(p Point) Point { return ClampTo(p, CanvasSize) }

// NormalizeAngle maps degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}
