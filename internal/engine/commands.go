package engine

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
	"github.com/boothmap/boothmap/internal/nudge"
)

// Delete removes the selection. A selected vertex is deleted subject to
// the vertex floor; a selected shape moves into the undo slot, replacing
// whatever was there; every booth of a multi-selection is removed and the
// last one removed is kept for undo. Locked labels refuse deletion.
func (s *Session) Delete() error {
	switch s.state {
	case VertexSelected:
		return s.DeleteVertex()
	case ShapeSelected:
		if t, ok := s.target.(*document.TextLabel); ok && t.Locked {
			s.logger.Info("delete refused", "reason", "locked", "text", t.Text)
			return ErrLocked
		}
		s.undo = s.doc.Remove(s.target.Kind(), s.doc.IndexOf(s.target))
	case MultiSelected:
		for _, r := range s.multi {
			s.undo = s.doc.Remove(document.KindRect, s.doc.IndexOf(r))
		}
	default:
		return ErrNothingSelected
	}
	s.clearSelection()
	s.touch()
	return nil
}

// DeleteVertex removes the selected vertex unless the shape is at its
// vertex floor, in which case nothing changes.
func (s *Session) DeleteVertex() error {
	if s.state != VertexSelected {
		return ErrNothingSelected
	}
	vs := s.activeVertexShape()
	if !vs.RemoveVertex(s.vertex) {
		s.logger.Info("vertex delete refused", "kind", vs.Kind(), "min", vs.MinVertices())
		return fmt.Errorf("%w: %s keeps at least %d", ErrVertexFloor, vs.Kind(), vs.MinVertices())
	}
	s.vertex = min(s.vertex, len(vs.Vertices())-1)
	s.touch()
	return nil
}

// Undo restores the last deleted shape at the end of its collection and
// selects it.
func (s *Session) Undo() error {
	if s.undo == nil {
		return ErrNothingToUndo
	}
	shape := s.undo
	s.undo = nil
	s.doc.Append(shape)
	if s.editable(shape.Kind()) {
		s.selectShape(shape)
	}
	s.touch()
	return nil
}

// Insert creates a shape of kind, or of the active shape's kind when kind
// is empty. With a shape of the same kind active, booths and labels are
// cloned next to it, zones are duplicated (or gain a vertex after the
// selected one) and polylines gain a vertex.
func (s *Session) Insert(kind document.Kind) error {
	if kind == "" {
		kind = document.KindRect
		if s.layer == LayerZones {
			kind = document.KindCategory
		}
		if a := s.Active(); a != nil {
			kind = a.Kind()
		}
	}
	if !s.editable(kind) {
		return fmt.Errorf("insert %s on %s layer: %w", kind, s.layer, ErrNoSuchShape)
	}

	active := s.Active()
	if active != nil && active.Kind() != kind {
		active = nil
	}
	center := geom.Pt(geom.CanvasWidth/2, geom.CanvasHeight/2)

	switch kind {
	case document.KindRect:
		n := len(s.doc.Rects) + 1
		r := document.NewRect(n)
		if src, ok := active.(*document.Rect); ok {
			r = document.CloneRect(src, n)
		}
		s.doc.Append(r)
		s.selectShape(r)
	case document.KindText:
		pos := center
		if src, ok := active.(*document.TextLabel); ok {
			pos = src.Position.Add(geom.Pt(20, 20))
		}
		t := document.NewTextLabel(len(s.doc.Texts)+1, pos)
		s.doc.Append(t)
		s.selectShape(t)
	case document.KindCategory:
		src, _ := active.(*document.Category)
		switch {
		case src != nil && s.state == VertexSelected:
			s.insertAfterSelected(src, geom.Pt(10, 10))
		case src != nil:
			c := document.DuplicateCategory(src, len(s.doc.Categories)+1)
			s.doc.Append(c)
			s.selectShape(c)
		default:
			c := document.NewCategory(len(s.doc.Categories) + 1)
			s.doc.Append(c)
			s.selectShape(c)
		}
	case document.KindPolygon:
		if src, ok := active.(*document.Polygon); ok {
			s.insertAfterSelected(src, geom.Pt(30, 0))
			break
		}
		p := document.NewPolygon(center)
		s.doc.Append(p)
		s.selectShape(p)
	default:
		return ErrNoSuchShape
	}
	s.touch()
	return nil
}

// insertAfterSelected inserts a copy of the selected vertex (vertex 0 when
// none is selected) shifted by d, right after it, and selects it.
func (s *Session) insertAfterSelected(vs document.VertexShape, d geom.Point) {
	vi := 0
	if s.state == VertexSelected {
		vi = s.vertex
	}
	pts := vs.Vertices()
	base := geom.Point{}
	if vi < len(pts) {
		base = pts[vi]
	}
	vs.InsertVertex(vi+1, base.Add(d))
	s.selectVertex(vs, min(vi+1, len(vs.Vertices())-1))
}

// Tab cycles the selection. A selected vertex cycles through its shape's
// vertices; an active booth or label cycles through its collection in
// left-to-right, top-to-bottom order; polylines and zones cycle in
// document order. With nothing selected the first booth (or zone) is
// selected.
func (s *Session) Tab(reverse bool) {
	step := 1
	if reverse {
		step = -1
	}
	switch s.state {
	case VertexSelected:
		n := len(s.activeVertexShape().Vertices())
		s.vertex = mod(s.vertex+step, n)
	case ShapeSelected:
		switch a := s.target.(type) {
		case *document.Rect:
			order := slices.Clone(s.doc.Rects)
			slices.SortStableFunc(order, func(x, y *document.Rect) int { return comparePoints(x.Center, y.Center) })
			i := slices.Index(order, a)
			s.selectShape(order[mod(i+step, len(order))])
		case *document.TextLabel:
			order := slices.Clone(s.doc.Texts)
			slices.SortStableFunc(order, func(x, y *document.TextLabel) int { return comparePoints(x.Position, y.Position) })
			i := slices.Index(order, a)
			s.selectShape(order[mod(i+step, len(order))])
		default:
			n := s.doc.Len(a.Kind())
			s.selectShape(s.doc.Shape(a.Kind(), mod(s.doc.IndexOf(a)+step, n)))
		}
	case Idle:
		if s.layer == LayerZones {
			if len(s.doc.Categories) > 0 {
				s.selectShape(s.doc.Categories[0])
			}
			return
		}
		if len(s.doc.Rects) > 0 {
			s.selectShape(s.doc.Rects[0])
		}
	}
}

func comparePoints(a, b geom.Point) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

func mod(a, n int) int {
	if n <= 0 {
		return 0
	}
	return ((a % n) + n) % n
}

// ToggleSpace flips label-edit mode on the active booth, or toggles vertex
// editing (starting at vertex 0) on the active polyline or zone.
func (s *Session) ToggleSpace() {
	switch s.state {
	case ShapeSelected:
		switch a := s.target.(type) {
		case *document.Rect:
			a.NameEdit = !a.NameEdit
		case document.VertexShape:
			if len(a.Vertices()) > 0 {
				s.selectVertex(a, 0)
			}
		}
	case VertexSelected:
		s.state, s.vertex = ShapeSelected, 0
	}
}

// Rotate turns the selection by delta degrees. In label-edit mode the
// booth's name block turns by -delta: with LabelRotation's opposite
// on-screen sense, a given key turns body and label the same way on
// screen.
func (s *Session) Rotate(delta float64) error {
	switch a := s.Active().(type) {
	case *document.TextLabel:
		a.Angle = geom.NormalizeAngle(a.Angle + delta)
	case *document.Rect:
		if a.NameEdit {
			a.NameAngle = geom.NormalizeAngle(a.NameAngle - delta)
		} else {
			a.Angle = geom.NormalizeAngle(a.Angle + delta)
		}
	default:
		rects := s.SelectedRects()
		if len(rects) == 0 {
			return ErrNothingSelected
		}
		for _, r := range rects {
			r.Angle = geom.NormalizeAngle(r.Angle + delta)
		}
	}
	s.touch()
	return nil
}

// Resize grows the selected booths by (dw, dh); each side stays at least 1.
func (s *Session) Resize(dw, dh float64) error {
	rects := s.SelectedRects()
	if len(rects) == 0 {
		return ErrNothingSelected
	}
	for _, r := range rects {
		r.Size.W = max(1, r.Size.W+dw)
		r.Size.H = max(1, r.Size.H+dh)
	}
	s.touch()
	return nil
}

// FontSize changes the label font size of the selected booths or text
// label; it never drops below 1.
func (s *Session) FontSize(delta int) error {
	if t, ok := s.Active().(*document.TextLabel); ok {
		t.FontSize = max(1, t.FontSize+delta)
		s.touch()
		return nil
	}
	rects := s.SelectedRects()
	if len(rects) == 0 {
		return ErrNothingSelected
	}
	for _, r := range rects {
		r.FontSize = max(1, r.FontSize+delta)
	}
	s.touch()
	return nil
}

// NudgeModifiers are the step modifier keys held during a nudge.
type NudgeModifiers struct {
	Coarse bool `json:"coarse"`
	Fine   bool `json:"fine"`
}

// Nudge feeds one frame of arrow-key state to the selection. now is a
// monotonic timestamp. The previous frame's keys are remembered by the
// session for edge detection. It reports whether anything moved.
func (s *Session) Nudge(now time.Duration, keys nudge.Keys, mods NudgeModifiers) bool {
	s.Tick(now)
	in := nudge.Input{
		Now:      now,
		LastMove: s.lastMove,
		Delay:    s.nudgeDelay(),
		Keys:     keys,
		Prev:     s.prevKeys,
		Coarse:   mods.Coarse,
		Fine:     mods.Fine,
		Steps:    s.settings.Steps,
		Bounds:   geom.CanvasSize,
	}
	s.prevKeys = keys
	if !keys.Any() {
		return false
	}

	moved := false
	switch s.state {
	case MultiSelected:
		base := s.multi[0].Center
		next, last := nudge.Apply(base, in)
		s.lastMove = last
		if d := next.Sub(base); d != (geom.Point{}) {
			for _, r := range s.multi {
				r.Translate(d)
			}
			moved = true
		}
	case VertexSelected:
		vs := s.activeVertexShape()
		cur := vs.Vertices()[s.vertex]
		next, last := nudge.Apply(cur, in)
		s.lastMove = last
		if next != cur {
			vs.MoveVertex(s.vertex, next)
			moved = true
		}
	case ShapeSelected:
		moved = s.nudgeShape(in)
	}
	if moved {
		s.touch()
	}
	return moved
}

func (s *Session) nudgeShape(in nudge.Input) bool {
	var cur, next geom.Point
	switch a := s.target.(type) {
	case *document.Rect:
		if a.NameEdit {
			in.AllowNegative = true
			cur = a.NamePos
			next, s.lastMove = nudge.Apply(cur, in)
			a.NamePos = next
			return next != cur
		}
		cur = a.Center
		next, s.lastMove = nudge.Apply(cur, in)
		a.Center = next
	case *document.TextLabel:
		cur = a.Position
		next, s.lastMove = nudge.Apply(cur, in)
		a.Position = next
	case document.VertexShape:
		pts := a.Vertices()
		if len(pts) == 0 {
			return false
		}
		cur = pts[0]
		var moved []geom.Point
		moved, s.lastMove = nudge.ApplyShape(pts, in)
		next = moved[0]
		if next != cur {
			a.Translate(next.Sub(cur))
		}
	}
	return next != cur
}

// Update overlays an edit-dialog patch (a JSON object of record fields) on
// the shape at ref. Fields absent from the patch keep their values. An
// unknown field, an invalid value or a vertex list below the floor rejects
// the patch without changing the shape.
func (s *Session) Update(ref Ref, patch json.RawMessage) error {
	shape := s.doc.Shape(ref.Kind, ref.Index)
	if shape == nil {
		return ErrNoSuchShape
	}
	if err := document.ApplyPatch(shape, patch); err != nil {
		if errors.Is(err, document.ErrTooFewVertices) {
			s.logger.Info("update refused", "reason", "vertex floor", "kind", ref.Kind, "index", ref.Index)
			return ErrVertexFloor
		}
		return fmt.Errorf("apply patch: %w", err)
	}
	s.Revalidate()
	s.touch()
	return nil
}
