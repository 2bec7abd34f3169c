package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// edgeEpsilon replaces a zero denominator for horizontal edges in the ray
// cast so the comparison stays finite.
const edgeEpsilon = 1e-9

// PointInPolygon reports whether p lies inside poly using the even-odd
// rule. The edge list wraps from the last vertex back to the first.
// Points exactly on an edge may land on either side.
func PointInPolygon(p Point, poly []Point) bool {
	n := len(poly)
	if n == 0 {
		return false
	}
	inside := false
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			crossX := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y+edgeEpsilon) + a.X
			if p.X < crossX {
				inside = !inside
			}
		}
	}
	return inside
}

// PointToSegmentDistance returns the shortest distance from p to the
// segment ab. A degenerate segment degrades to point distance.
func PointToSegmentDistance(p, a, b Point) float64 {
	ab := r2.Sub(b.vec(), a.vec())
	ap := r2.Sub(p.vec(), a.vec())
	den := r2.Dot(ab, ab)
	if den == 0 {
		return r2.Norm(ap)
	}
	t := Clamp(r2.Dot(ap, ab)/den, 0, 1)
	proj := r2.Add(a.vec(), r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p.vec(), proj))
}

// PolylineHit reports whether p is within tol of any segment of pts.
// When closed is set the segment from the last point to the first counts too.
func PolylineHit(p Point, pts []Point, tol float64, closed bool) bool {
	n := len(pts)
	if n < 2 {
		return false
	}
	last := n - 1
	if closed {
		last = n
	}
	for i := 0; i < last; i++ {
		if PointToSegmentDistance(p, pts[i], pts[(i+1)%n]) <= tol {
			return true
		}
	}
	return false
}

// NearestVertex returns the index of the first vertex within radius of p,
// or -1.
func NearestVertex(p Point, pts []Point, radius float64) int {
	for i, v := range pts {
		if math.Hypot(p.X-v.X, p.Y-v.Y) <= radius {
			return i
		}
	}
	return -1
}

// TranslateAll returns pts shifted by d.
func TranslateAll(pts []Point, d Point) []Point {
	out := make([]Point, len(pts))
	for i, v := range pts {
		out[i] = v.Add(d)
	}
	return out
}

// RotatedRectCorners returns the four corners of a w*h rectangle centred on
// c and rotated by deg degrees: top-left, top-right, bottom-right,
// bottom-left before rotation. The rotation is the standard matrix applied
// in y-down canvas space, so positive angles turn clockwise on screen.
func RotatedRectCorners(c Point, s Size, deg float64) [4]Point {
	hw, hh := s.W/2, s.H/2
	m := Translate(c.X, c.Y).Multiply(RotateDegrees(deg))
	local := [4]Point{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	var out [4]Point
	for i, q := range local {
		out[i] = m.Apply(q)
	}
	return out
}

// Centroid is the mean of pts, or the origin for an empty list.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sum Point
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(pts)))
}
