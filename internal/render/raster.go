package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/vector"

	"github.com/boothmap/boothmap/internal/geom"
)

// fillPolygon fills the closed outline pts, given in the coordinate space
// of dst, with c. Only the part inside dst's bounds is touched.
func fillPolygon(dst *image.RGBA, pts []geom.Point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	area := geom.BoundsOf(pts).Pad(1).Image().Intersect(dst.Bounds())
	if area.Empty() {
		return
	}
	z := vector.NewRasterizer(area.Dx(), area.Dy())
	ox, oy := float64(area.Min.X), float64(area.Min.Y)
	z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	z.ClosePath()
	z.Draw(dst, area, image.NewUniform(c), image.Point{})
}

// strokePolyline draws pts as connected segments of the given width with
// round-ish joints.
func strokePolyline(dst *image.RGBA, pts []geom.Point, width float64, closed bool, c color.Color) {
	if len(pts) < 2 || width <= 0 {
		return
	}
	hw := width / 2
	n := len(pts)
	segs := n - 1
	if closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		a, b := pts[i], pts[(i+1)%n]
		d := b.Sub(a)
		l := math.Hypot(d.X, d.Y)
		if l == 0 {
			continue
		}
		off := geom.Pt(-d.Y/l*hw, d.X/l*hw)
		fillPolygon(dst, []geom.Point{a.Add(off), b.Add(off), b.Sub(off), a.Sub(off)}, c)
	}
	if width > 1 {
		for _, p := range pts {
			fillCircle(dst, p, hw, c)
		}
	}
}

// fillCircle fills a 16-sided approximation of a circle.
func fillCircle(dst *image.RGBA, center geom.Point, r float64, c color.Color) {
	const sides = 16
	pts := make([]geom.Point, sides)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / sides
		pts[i] = center.Add(geom.Pt(r*math.Cos(a), r*math.Sin(a)))
	}
	fillPolygon(dst, pts, c)
}

// drawString draws s with its baseline starting at (x, y).
func drawString(dst draw.Image, face font.Face, s string, x, y float64, c color.Color) {
	d := font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face, Dot: fixedPoint(x, y)}
	d.DrawString(s)
}

// drawCentered draws s centred on p and returns the box it occupies.
func drawCentered(dst draw.Image, face font.Face, s string, p geom.Point, c color.Color) image.Rectangle {
	box := centeredBox(face, s, p)
	drawString(dst, face, s, float64(box.Min.X), float64(box.Min.Y+ascent(face)), c)
	return box
}

func centeredBox(face font.Face, s string, p geom.Point) image.Rectangle {
	w, h := font.MeasureString(face, s).Ceil(), lineHeight(face)
	x := int(math.Round(p.X - float64(w)/2))
	y := int(math.Round(p.Y - float64(h)/2))
	return image.Rect(x, y, x+w, y+h)
}

// rotate returns src turned by the rotation m on a transparent bitmap just
// large enough to hold the result, with the content centred.
func rotate(src *image.RGBA, m geom.Matrix2D) *image.RGBA {
	sb := src.Bounds()
	w, h := float64(sb.Dx()), float64(sb.Dy())
	if m == geom.Identity() {
		return src
	}
	box := m.TransformRect(geom.Rect{X: -w / 2, Y: -h / 2, Width: w, Height: h})
	dw := max(1, int(math.Ceil(box.Width)))
	dh := max(1, int(math.Ceil(box.Height)))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	s2d := geom.Translate(float64(dw)/2, float64(dh)/2).
		Multiply(m).
		Multiply(geom.Translate(-w/2-float64(sb.Min.X), -h/2-float64(sb.Min.Y)))
	draw.BiLinear.Transform(dst, s2d.Aff3(), src, sb, draw.Over, nil)
	return dst
}

// blit draws bmp with its top-left corner at at.
func blit(dst *image.RGBA, bmp *image.RGBA, at image.Point) image.Rectangle {
	r := image.Rectangle{Min: at, Max: at.Add(bmp.Bounds().Size())}
	draw.Draw(dst, r, bmp, bmp.Bounds().Min, draw.Over)
	return r
}

// Coalesce clips rs to clip, drops empty rectangles and merges overlapping
// ones until no two results overlap.
func Coalesce(rs []image.Rectangle, clip image.Rectangle) []image.Rectangle {
	var out []image.Rectangle
	for _, r := range rs {
		if r = r.Intersect(clip); !r.Empty() {
			out = append(out, r)
		}
	}
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(out) && !merged; i++ {
			for j := i + 1; j < len(out); j++ {
				if out[i].Overlaps(out[j]) {
					out[i] = out[i].Union(out[j])
					out = append(out[:j], out[j+1:]...)
					merged = true
					break
				}
			}
		}
	}
	return out
}
