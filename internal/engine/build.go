package engine

import (
	"slices"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
)

// Highlight colours shared by every renderer.
var (
	ActiveOutline      = document.Color{R: 255, G: 100, B: 100}
	ActiveBoothOutline = document.Color{R: 80, G: 80, B: 80}
	TentOutline        = document.Color{R: 255}
	ActiveVertex       = document.Color{R: 255}
	IdleVertex         = document.Blue
)

// BuildSceneGraph resolves the session's document into a display list.
// Shapes off the current layer are still listed so the client can draw them
// underneath; only the current layer gets selection styling.
func BuildSceneGraph(s *Session) *SceneGraph {
	sg := &SceneGraph{
		Version:       s.version,
		Layer:         s.layer.String(),
		ZonesHidden:   s.ZonesHidden(),
		TentHighlight: s.tentHighlight,
	}
	doc := s.doc

	if !sg.ZonesHidden {
		for i, c := range doc.Categories {
			sg.Nodes = append(sg.Nodes, s.buildZone(i, c))
		}
	}
	for i, p := range doc.Polygons {
		sg.Nodes = append(sg.Nodes, s.buildPolyline(i, p))
	}
	for i, r := range doc.Rects {
		sg.Nodes = append(sg.Nodes, s.buildBooth(i, r))
	}
	for i, t := range doc.Texts {
		sg.Nodes = append(sg.Nodes, s.buildText(i, t))
	}
	return sg
}

func (s *Session) isActive(shape document.Shape) bool {
	return s.Active() == shape
}

func (s *Session) activeHandle(shape document.Shape) int {
	if s.state == VertexSelected && s.target == shape {
		return s.vertex
	}
	return -1
}

func (s *Session) buildZone(i int, c *document.Category) *SceneNode {
	node := &SceneNode{
		Ref:          Ref{Kind: document.KindCategory, Index: i},
		Type:         "zone",
		Path:         pathOf(c.Points, true),
		Stroke:       c.Color.String(),
		StrokeWidth:  3,
		ActiveHandle: s.activeHandle(c),
		Lines:        []string{c.Name},
		Selected:     s.isActive(c),
		Bounds:       c.Bounds(nil),
	}
	if len(c.Points) > 0 {
		node.TextOrigin = geom.Centroid(c.Points)
	}
	if s.layer == LayerZones {
		node.Handles = slices.Clone(c.Points)
	}
	if node.Selected {
		node.Stroke = ActiveOutline.String()
	}
	return node
}

func (s *Session) buildPolyline(i int, p *document.Polygon) *SceneNode {
	node := &SceneNode{
		Ref:          Ref{Kind: document.KindPolygon, Index: i},
		Type:         "polyline",
		Path:         pathOf(p.Points, false),
		Stroke:       p.Color.String(),
		StrokeWidth:  float64(p.Width),
		ActiveHandle: s.activeHandle(p),
		Selected:     s.isActive(p),
		Bounds:       p.Bounds(nil),
	}
	if p.ShowVertices && node.Selected {
		node.Handles = slices.Clone(p.Points)
	}
	if node.Selected {
		node.Stroke = ActiveOutline.String()
	}
	return node
}

func (s *Session) buildBooth(i int, r *document.Rect) *SceneNode {
	corners := r.Corners()
	active := s.isActive(r) || slices.Contains(s.multi, r)
	fill, label := r.Color, r.NameColor
	if active && !r.NameEdit {
		fill = r.Color.Complement()
	}
	if active && r.NameEdit {
		label = document.Blue
	}
	stroke, width := document.Black, 1.0
	switch {
	case s.tentHighlight && r.Tent.Int() > 0:
		stroke, width = TentOutline, 3
	case active:
		stroke, width = ActiveBoothOutline, 2
	}
	return &SceneNode{
		Ref:          Ref{Kind: document.KindRect, Index: i},
		Type:         "booth",
		Path:         pathOf(corners[:], true),
		Fill:         fill.String(),
		Stroke:       stroke.String(),
		StrokeWidth:  width,
		ActiveHandle: -1,
		Number:       string(r.No),
		Lines:        r.NameLines(),
		TextOrigin:   r.LabelOrigin(),
		TextAngle:    r.NameAngle,
		FontSize:     r.FontSize,
		TextColor:    label.String(),
		Selected:     active,
		Bounds:       r.Bounds(nil),
	}
}

func (s *Session) buildText(i int, t *document.TextLabel) *SceneNode {
	b := t.Bounds(s.measurer)
	node := &SceneNode{
		Ref:          Ref{Kind: document.KindText, Index: i},
		Type:         "text",
		ActiveHandle: -1,
		Lines:        []string{t.Text},
		TextOrigin:   t.Position,
		TextAngle:    t.Angle,
		FontSize:     t.FontSize,
		TextColor:    t.Color.String(),
		Selected:     s.isActive(t),
		Bounds:       b,
	}
	if node.Selected {
		node.Path = pathOf([]geom.Point{
			{X: b.X, Y: b.Y}, {X: b.X + b.Width, Y: b.Y},
			{X: b.X + b.Width, Y: b.Y + b.Height}, {X: b.X, Y: b.Y + b.Height},
		}, true)
		node.Stroke = document.Blue.String()
		node.StrokeWidth = 1
		node.TextColor = document.Blue.String()
	}
	return node
}
