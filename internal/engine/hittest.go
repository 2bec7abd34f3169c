package engine

import (
	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
)

// Hit is the result of a hit test. Vertex is -1 for a body hit.
type Hit struct {
	Shape  document.Shape
	Vertex int
}

// HitTest finds what lies under p on the current layer. Priority:
// polygon/zone vertices, then polygon edges or zone interiors, then booth
// bodies, then text labels. Within each class the frontmost shape wins.
func (s *Session) HitTest(p geom.Point) (Hit, bool) {
	vshapes := s.vertexShapes()
	for i := len(vshapes) - 1; i >= 0; i-- {
		if v := geom.NearestVertex(p, vshapes[i].Vertices(), s.settings.VertexRadius); v >= 0 {
			return Hit{Shape: vshapes[i], Vertex: v}, true
		}
	}
	for i := len(vshapes) - 1; i >= 0; i-- {
		if s.bodyHit(vshapes[i], p) {
			return Hit{Shape: vshapes[i], Vertex: -1}, true
		}
	}
	if s.layer == LayerZones {
		return Hit{}, false
	}
	if r := s.rectAt(p); r != nil {
		return Hit{Shape: r, Vertex: -1}, true
	}
	for i := len(s.doc.Texts) - 1; i >= 0; i-- {
		if s.doc.Texts[i].Contains(p, s.measurer) {
			return Hit{Shape: s.doc.Texts[i], Vertex: -1}, true
		}
	}
	return Hit{}, false
}

func (s *Session) rectAt(p geom.Point) *document.Rect {
	for i := len(s.doc.Rects) - 1; i >= 0; i-- {
		if s.doc.Rects[i].Contains(p) {
			return s.doc.Rects[i]
		}
	}
	return nil
}

func (s *Session) vertexShapes() []document.VertexShape {
	if s.layer == LayerZones {
		out := make([]document.VertexShape, len(s.doc.Categories))
		for i, c := range s.doc.Categories {
			out[i] = c
		}
		return out
	}
	out := make([]document.VertexShape, len(s.doc.Polygons))
	for i, p := range s.doc.Polygons {
		out[i] = p
	}
	return out
}

func (s *Session) bodyHit(v document.VertexShape, p geom.Point) bool {
	switch shape := v.(type) {
	case *document.Category:
		return shape.Contains(p)
	case *document.Polygon:
		return shape.EdgeHit(p, s.settings.EdgeTolerance)
	}
	return false
}
