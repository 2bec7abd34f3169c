package geom

import (
	"image"
	"math"
)

// Viewport maps a resizable window onto the fixed logical canvas. The
// canvas is scaled uniformly to fit and centred, leaving letterbox bars.
type Viewport struct {
	Window Size
	Canvas Size
}

// NewViewport returns a viewport for a window of w x h pixels over the
// standard canvas.
func NewViewport(w, h int) Viewport {
	return Viewport{Window: Size{W: float64(w), H: float64(h)}, Canvas: CanvasSize}
}

// Scale is the uniform factor from canvas units to window pixels.
func (v Viewport) Scale() float64 {
	if v.Canvas.W <= 0 || v.Canvas.H <= 0 {
		return 0
	}
	return math.Min(v.Window.W/v.Canvas.W, v.Window.H/v.Canvas.H)
}

// Frame is the window area the canvas occupies, with integer-floored size
// and centring offsets.
func (v Viewport) Frame() image.Rectangle {
	s := v.Scale()
	w := int(v.Canvas.W * s)
	h := int(v.Canvas.H * s)
	ox := floorDiv(int(v.Window.W)-w, 2)
	oy := floorDiv(int(v.Window.H)-h, 2)
	return image.Rect(ox, oy, ox+w, oy+h)
}

// Offset is the top-left corner of the canvas inside the window.
func (v Viewport) Offset() image.Point { return v.Frame().Min }

// WindowToCanvas converts a window position to canvas units. ok is false
// when the position falls on a letterbox bar.
func (v Viewport) WindowToCanvas(p Point) (Point, bool) {
	f := v.Frame()
	if f.Empty() {
		return Point{}, false
	}
	if p.X < float64(f.Min.X) || p.X >= float64(f.Max.X) ||
		p.Y < float64(f.Min.Y) || p.Y >= float64(f.Max.Y) {
		return Point{}, false
	}
	s := v.Scale()
	return Point{X: (p.X - float64(f.Min.X)) / s, Y: (p.Y - float64(f.Min.Y)) / s}, true
}

// CanvasToWindow is the inverse of WindowToCanvas.
func (v Viewport) CanvasToWindow(p Point) Point {
	f := v.Frame()
	s := v.Scale()
	return Point{X: p.X*s + float64(f.Min.X), Y: p.Y*s + float64(f.Min.Y)}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
