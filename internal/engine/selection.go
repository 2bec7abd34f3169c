package engine

import (
	"slices"

	"github.com/boothmap/boothmap/internal/document"
)

// State is the selection state machine's current state.
type State int

const (
	Idle State = iota
	ShapeSelected
	VertexSelected
	MultiSelected
)

func (st State) String() string {
	switch st {
	case ShapeSelected:
		return "shape"
	case VertexSelected:
		return "vertex"
	case MultiSelected:
		return "multi"
	}
	return "idle"
}

func (st State) MarshalText() ([]byte, error) { return []byte(st.String()), nil }

// Ref addresses a shape by collection and index.
type Ref struct {
	Kind  document.Kind `json:"kind"`
	Index int           `json:"index"`
}

// Selection is a snapshot of what is selected. Ref is meaningful in the
// shape and vertex states, Vertex only in the vertex state, and Multi
// (rect indices in selection order) only in the multi state.
type Selection struct {
	State  State `json:"state"`
	Ref    Ref   `json:"ref"`
	Vertex int   `json:"vertex"`
	Multi  []int `json:"multi,omitempty"`
}

// The session tracks selected shapes by identity, not index, so that
// structural edits made through another session over the same document
// cannot make a selection point at a different shape.

// Selection returns a snapshot of the current selection.
func (s *Session) Selection() Selection {
	sel := Selection{State: s.state}
	switch s.state {
	case ShapeSelected, VertexSelected:
		sel.Ref = Ref{Kind: s.target.Kind(), Index: s.doc.IndexOf(s.target)}
		if s.state == VertexSelected {
			sel.Vertex = s.vertex
		}
	case MultiSelected:
		for _, r := range s.multi {
			sel.Multi = append(sel.Multi, s.doc.IndexOf(r))
		}
	}
	return sel
}

// Active returns the singly selected shape, or nil.
func (s *Session) Active() document.Shape {
	if s.state != ShapeSelected && s.state != VertexSelected {
		return nil
	}
	return s.target
}

func (s *Session) activeRect() *document.Rect {
	r, _ := s.Active().(*document.Rect)
	return r
}

func (s *Session) activeVertexShape() document.VertexShape {
	v, _ := s.Active().(document.VertexShape)
	return v
}

// SelectedRects returns the rectangles a rect command applies to: the
// multi-selection, or the single active rectangle.
func (s *Session) SelectedRects() []*document.Rect {
	if s.state == MultiSelected {
		return slices.Clone(s.multi)
	}
	if r := s.activeRect(); r != nil {
		return []*document.Rect{r}
	}
	return nil
}

// Select makes ref the single active shape.
func (s *Session) Select(ref Ref) error {
	shape := s.doc.Shape(ref.Kind, ref.Index)
	if shape == nil {
		return ErrNoSuchShape
	}
	s.selectShape(shape)
	return nil
}

func (s *Session) selectShape(shape document.Shape) {
	s.leaveRect(shape)
	s.state, s.target, s.vertex, s.multi = ShapeSelected, shape, 0, nil
}

func (s *Session) selectVertex(shape document.VertexShape, v int) {
	s.leaveRect(shape)
	s.state, s.target, s.vertex, s.multi = VertexSelected, shape, v, nil
}

// leaveRect drops label-edit mode on the active rect when the selection
// moves to a different shape.
func (s *Session) leaveRect(next document.Shape) {
	if r := s.activeRect(); r != nil && document.Shape(r) != next {
		r.NameEdit = false
	}
}

func (s *Session) clearSelection() {
	s.state, s.target, s.vertex, s.multi = Idle, nil, 0, nil
	s.drag = dragState{}
}

// Deselect returns to idle.
func (s *Session) Deselect() {
	for _, r := range s.SelectedRects() {
		r.NameEdit = false
	}
	s.clearSelection()
}

// Cancel steps back one level: vertex to shape, anything else to idle.
func (s *Session) Cancel() {
	if s.state == VertexSelected {
		s.state, s.vertex = ShapeSelected, 0
		s.drag = dragState{}
		return
	}
	s.Deselect()
}

// Revalidate re-checks the selection against the document after a
// structural change. A selected shape that is gone clears the selection,
// a vertex index past the end clamps to the last vertex, and multi
// entries that are gone are dropped.
func (s *Session) Revalidate() {
	switch s.state {
	case ShapeSelected, VertexSelected:
		if s.doc.IndexOf(s.target) < 0 {
			s.clearSelection()
			return
		}
		if s.state == VertexSelected {
			n := len(s.activeVertexShape().Vertices())
			if n == 0 {
				s.state, s.vertex = ShapeSelected, 0
				return
			}
			s.vertex = max(0, min(s.vertex, n-1))
		}
	case MultiSelected:
		kept := s.multi[:0]
		for _, r := range s.multi {
			if s.doc.IndexOf(r) >= 0 {
				kept = append(kept, r)
			}
		}
		s.multi = kept
		if len(kept) == 0 {
			s.clearSelection()
		}
	}
}
