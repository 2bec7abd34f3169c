package engine

import (
	"slices"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
)

// Modifiers are the pointer-down modifier keys.
type Modifiers struct {
	// Multi toggles a booth in the multi-selection (Ctrl).
	Multi bool `json:"multi"`
	// Insert adds a vertex to the active polygon or zone (Shift).
	Insert bool `json:"insert"`
}

// PointerDown selects whatever lies under p and starts a drag on it.
// Callers must drop pointer positions that fall outside the canvas.
func (s *Session) PointerDown(p geom.Point, mods Modifiers) Selection {
	s.drag = dragState{}

	if mods.Insert {
		if vs := s.activeVertexShape(); vs != nil {
			s.insertVertexAt(vs, p)
			return s.Selection()
		}
	}

	if mods.Multi {
		if s.layer == LayerMap {
			if r := s.rectAt(p); r != nil {
				s.toggleMulti(r)
			}
		}
		return s.Selection()
	}

	hit, ok := s.HitTest(p)
	switch {
	case !ok:
		s.Deselect()
	case hit.Vertex >= 0:
		vs := hit.Shape.(document.VertexShape)
		s.selectVertex(vs, hit.Vertex)
		s.startDrag(vs.Vertices()[hit.Vertex], p)
	default:
		s.selectShape(hit.Shape)
		s.startDrag(hit.Shape.Anchor(), p)
	}
	return s.Selection()
}

func (s *Session) startDrag(ref, p geom.Point) {
	s.drag = dragState{active: true, offset: ref.Sub(p), last: p}
}

// Dragging reports whether a drag is in progress.
func (s *Session) Dragging() bool { return s.drag.active }

// PointerMove applies a drag to the selected vertex or shape. The new
// reference point is the pointer plus the grab offset, clamped to the
// canvas. It reports whether anything moved.
func (s *Session) PointerMove(p geom.Point) bool {
	if !s.drag.active || p == s.drag.last {
		return false
	}
	s.drag.last = p
	target := geom.ClampToCanvas(p.Add(s.drag.offset))

	switch s.state {
	case VertexSelected:
		vs := s.activeVertexShape()
		if vs.Vertices()[s.vertex] == target {
			return false
		}
		vs.MoveVertex(s.vertex, target)
	case ShapeSelected:
		d := target.Sub(s.target.Anchor())
		if d == (geom.Point{}) {
			return false
		}
		s.target.Translate(d)
	default:
		return false
	}
	s.touch()
	return true
}

// PointerUp ends a drag. The selection is kept.
func (s *Session) PointerUp() {
	s.drag = dragState{}
}

// toggleMulti adds or removes r from the multi-selection. Ctrl-clicking
// the singly active booth, or another booth while one is active, moves the
// active booth into the set rather than losing it.
func (s *Session) toggleMulti(r *document.Rect) {
	if s.state == MultiSelected {
		if i := slices.Index(s.multi, r); i >= 0 {
			s.multi = slices.Delete(s.multi, i, i+1)
			if len(s.multi) == 0 {
				s.clearSelection()
			}
			return
		}
		s.multi = append(s.multi, r)
		return
	}

	set := []*document.Rect{}
	if active := s.activeRect(); active != nil && active != r {
		set = append(set, active)
	}
	set = append(set, r)
	for _, x := range s.doc.Rects {
		x.NameEdit = false
	}
	s.clearSelection()
	s.state, s.multi = MultiSelected, set
}

// insertVertexAt adds p after the selected vertex, or at the end when no
// vertex is selected, and selects it.
func (s *Session) insertVertexAt(vs document.VertexShape, p geom.Point) {
	at := len(vs.Vertices())
	if s.state == VertexSelected {
		at = s.vertex + 1
	}
	vs.InsertVertex(at, geom.ClampToCanvas(p))
	s.selectVertex(vs, at)
	s.startDrag(vs.Vertices()[at], p)
	s.touch()
}
