package document

import (
	"fmt"
	"strings"

	"github.com/boothmap/boothmap/internal/geom"
)

// Shape is the behaviour every editable kind shares.
type Shape interface {
	Kind() Kind
	// Anchor is the reference point a drag offset is measured against.
	Anchor() geom.Point
	Translate(d geom.Point)
	Bounds(m TextMeasurer) geom.Rect
}

// VertexShape is a shape edited vertex by vertex.
type VertexShape interface {
	Shape
	Vertices() []geom.Point
	MoveVertex(i int, p geom.Point)
	InsertVertex(at int, p geom.Point)
	// RemoveVertex deletes vertex i unless that would leave fewer than
	// MinVertices. It reports whether a vertex was removed.
	RemoveVertex(i int) bool
	MinVertices() int
}

// Vertex floors.
const (
	MinPolygonVertices  = 2
	MinCategoryVertices = 3
)

// Rect is a rotatable booth with a name block, a number, and power, tent
// and light counts.
type Rect struct {
	No             Tag        `json:"no"`
	Name           string     `json:"name"`
	NamePos        geom.Point `json:"name_pos"`
	NameColor      Color      `json:"name_color"`
	NameAngle      float64    `json:"name_angle"`
	FontSize       int        `json:"font_size"`
	Power          Quantity   `json:"power"`
	Center         geom.Point `json:"center"`
	Size           geom.Size  `json:"size"`
	Color          Color      `json:"color"`
	Angle          float64    `json:"angle"`
	Classification string     `json:"classification"`
	Tent           Quantity   `json:"tent"`
	Light          Quantity   `json:"light"`
	// NameEdit routes rotation and nudging to the name block.
	NameEdit bool `json:"name_pos_active,omitempty"`
}

func defaultRect() Rect {
	return Rect{
		No:             "0",
		Name:           "rect",
		NameColor:      Black,
		FontSize:       15,
		Power:          "0",
		Center:         geom.Pt(100, 100),
		Size:           geom.Size{W: 50, H: 50},
		Color:          Color{100, 200, 100},
		Classification: ClassBeer,
		Tent:           "0",
		Light:          "0",
	}
}

func (r *Rect) UnmarshalJSON(data []byte) error {
	*r = defaultRect()
	if err := decodeFields("rect", data, r.fields()); err != nil {
		return fmt.Errorf("rect: %w", err)
	}
	r.Normalize()
	return nil
}

func (r *Rect) fields() map[string]any {
	return map[string]any{
		"no":              &r.No,
		"name":            &r.Name,
		"name_pos":        &r.NamePos,
		"name_color":      &r.NameColor,
		"name_angle":      &r.NameAngle,
		"font_size":       &r.FontSize,
		"power":           &r.Power,
		"center":          &r.Center,
		"size":            &r.Size,
		"color":           &r.Color,
		"angle":           &r.Angle,
		"classification":  &r.Classification,
		"tent":            &r.Tent,
		"light":           &r.Light,
		"name_pos_active": &r.NameEdit,
	}
}

// Normalize clamps size components to at least 1 and angles into [0, 360).
func (r *Rect) Normalize() {
	r.Size.W = max(r.Size.W, 1)
	r.Size.H = max(r.Size.H, 1)
	r.Angle = geom.NormalizeAngle(r.Angle)
	r.NameAngle = geom.NormalizeAngle(r.NameAngle)
	if r.FontSize < 1 {
		r.FontSize = 1
	}
}

// NewRect returns a default 25x25 booth named Rect{n} at the canvas centre.
func NewRect(n int) *Rect {
	r := defaultRect()
	r.Name = fmt.Sprintf("Rect%d", n)
	r.Center = geom.Pt(geom.CanvasWidth/2, geom.CanvasHeight/2)
	r.Size = geom.Size{W: 25, H: 25}
	r.NamePos = geom.Pt(20, -10)
	return &r
}

// CloneRect returns booth n patterned on src and placed 20 units down and
// right of it.
func CloneRect(src *Rect, n int) *Rect {
	r := NewRect(n)
	r.Center = src.Center.Add(geom.Pt(20, 20))
	r.Size = src.Size
	r.NamePos = src.NamePos
	r.NameAngle = src.NameAngle
	r.Classification = src.Classification
	r.Color = src.Color
	r.FontSize = src.FontSize
	return r
}

func (r *Rect) Kind() Kind             { return KindRect }
func (r *Rect) Anchor() geom.Point     { return r.Center }
func (r *Rect) Translate(d geom.Point) { r.Center = r.Center.Add(d) }

// Corners returns the rotated body outline.
func (r *Rect) Corners() [4]geom.Point {
	return geom.RotatedRectCorners(r.Center, r.Size, r.Angle)
}

// Contains reports whether p lies on the rotated body.
func (r *Rect) Contains(p geom.Point) bool {
	c := r.Corners()
	return geom.PointInPolygon(p, c[:])
}

func (r *Rect) Bounds(TextMeasurer) geom.Rect {
	c := r.Corners()
	return geom.BoundsOf(c[:])
}

// LabelOrigin is the canvas position of the name block's top-left corner.
func (r *Rect) LabelOrigin() geom.Point { return r.Center.Add(r.NamePos) }

// NameLines splits the booth name into display lines. Names typed in
// dialogs carry either real newlines or a literal backslash-n.
func (r *Rect) NameLines() []string { return SplitLines(r.Name) }

// SplitLines splits s on CRLF, LF and the two-character escape \n.
func SplitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, `\n`, "\n")
	return strings.Split(s, "\n")
}

// CleanName removes every line break form from s.
func CleanName(s string) string {
	return strings.NewReplacer("\r\n", "", "\n", "", `\n`, "").Replace(s)
}

// TextLabel is a free text annotation anchored at the middle of its left
// edge.
type TextLabel struct {
	No             Tag        `json:"no"`
	Text           string     `json:"text"`
	Position       geom.Point `json:"position"`
	FontSize       int        `json:"font_size"`
	Color          Color      `json:"color"`
	Angle          float64    `json:"angle"`
	Classification string     `json:"classification"`
	Power          Quantity   `json:"power"`
	Locked         bool       `json:"locked"`
}

func defaultText() TextLabel {
	return TextLabel{
		No:             "No",
		Text:           "Label",
		Position:       geom.Pt(100, 100),
		FontSize:       20,
		Color:          Black,
		Classification: ClassText,
		Power:          "0",
	}
}

func (t *TextLabel) UnmarshalJSON(data []byte) error {
	*t = defaultText()
	if err := decodeFields("text", data, t.fields()); err != nil {
		return fmt.Errorf("text: %w", err)
	}
	t.Normalize()
	return nil
}

func (t *TextLabel) fields() map[string]any {
	return map[string]any{
		"no":             &t.No,
		"text":           &t.Text,
		"position":       &t.Position,
		"font_size":      &t.FontSize,
		"color":          &t.Color,
		"angle":          &t.Angle,
		"classification": &t.Classification,
		"power":          &t.Power,
		"locked":         &t.Locked,
	}
}

// Normalize keeps the angle in [0, 360) and the font size at least 1.
func (t *TextLabel) Normalize() {
	t.Angle = geom.NormalizeAngle(t.Angle)
	if t.FontSize < 1 {
		t.FontSize = 1
	}
}

// NewTextLabel returns label n at p.
func NewTextLabel(n int, p geom.Point) *TextLabel {
	t := defaultText()
	t.Text = fmt.Sprintf("Label%d", n)
	t.Position = p
	return &t
}

func (t *TextLabel) Kind() Kind             { return KindText }
func (t *TextLabel) Anchor() geom.Point     { return t.Position }
func (t *TextLabel) Translate(d geom.Point) { t.Position = t.Position.Add(d) }

// Bounds is the axis-aligned box of the rotated text, placed so the middle
// of its left edge sits on Position.
func (t *TextLabel) Bounds(m TextMeasurer) geom.Rect {
	if m == nil {
		m = ApproxMeasurer{}
	}
	sz := m.MeasureText(t.Text, t.FontSize)
	box := geom.BodyRotation(t.Angle).TransformRect(geom.Rect{Width: sz.W, Height: sz.H})
	return geom.Rect{X: t.Position.X, Y: t.Position.Y - box.Height/2, Width: box.Width, Height: box.Height}
}

func (t *TextLabel) Contains(p geom.Point, m TextMeasurer) bool {
	return t.Bounds(m).Contains(p)
}

// Polygon is a free-form polyline drawn over the map.
type Polygon struct {
	Points       []geom.Point `json:"points"`
	Color        Color        `json:"color"`
	Width        int          `json:"width"`
	ShowVertices bool         `json:"show_vertices"`
}

func defaultPolygonPoints(c geom.Point) []geom.Point {
	return []geom.Point{c, c.Add(geom.Pt(100, -100))}
}

func (p *Polygon) UnmarshalJSON(data []byte) error {
	*p = Polygon{Color: Color{150, 200, 250}, Width: 3, ShowVertices: true}
	if err := decodeFields("polygon", data, p.fields()); err != nil {
		return fmt.Errorf("polygon: %w", err)
	}
	if len(p.Points) < MinPolygonVertices {
		p.Points = defaultPolygonPoints(geom.Pt(100, 200))
	}
	return nil
}

func (p *Polygon) fields() map[string]any {
	return map[string]any{
		"points":        &p.Points,
		"color":         &p.Color,
		"width":         &p.Width,
		"show_vertices": &p.ShowVertices,
	}
}

// NewPolygon returns a two-point polyline starting at c.
func NewPolygon(c geom.Point) *Polygon {
	return &Polygon{Points: defaultPolygonPoints(c), Color: Color{150, 200, 250}, Width: 3, ShowVertices: true}
}

func (p *Polygon) Kind() Kind         { return KindPolygon }
func (p *Polygon) Anchor() geom.Point { return p.Points[0] }
func (p *Polygon) Translate(d geom.Point) {
	p.Points = geom.TranslateAll(p.Points, d)
}
func (p *Polygon) Bounds(TextMeasurer) geom.Rect { return geom.BoundsOf(p.Points).Pad(float64(p.Width)) }

// EdgeHit reports whether q is within tol of the outline, closing edge
// included.
func (p *Polygon) EdgeHit(q geom.Point, tol float64) bool {
	return geom.PolylineHit(q, p.Points, tol, true)
}

func (p *Polygon) Vertices() []geom.Point            { return p.Points }
func (p *Polygon) MoveVertex(i int, q geom.Point)    { p.Points[i] = q }
func (p *Polygon) InsertVertex(at int, q geom.Point) { p.Points = insertPoint(p.Points, at, q) }
func (p *Polygon) MinVertices() int                  { return MinPolygonVertices }
func (p *Polygon) RemoveVertex(i int) bool {
	if len(p.Points) <= MinPolygonVertices || i < 0 || i >= len(p.Points) {
		return false
	}
	p.Points = append(p.Points[:i], p.Points[i+1:]...)
	return true
}

// Category is a named zone. Booths whose centre lies inside it count
// toward its power total; alert zones only raise warnings.
type Category struct {
	Name       string       `json:"name"`
	Color      Color        `json:"color"`
	Points     []geom.Point `json:"points"`
	Alert      bool         `json:"alert"`
	PowerLimit Quantity     `json:"power_limit"`
}

func (c *Category) UnmarshalJSON(data []byte) error {
	*c = Category{Name: "category", Color: Color{150, 200, 250}, PowerLimit: "0"}
	if err := decodeFields("category", data, c.fields()); err != nil {
		return fmt.Errorf("category: %w", err)
	}
	if c.Points == nil {
		c.Points = []geom.Point{}
	}
	return nil
}

func (c *Category) fields() map[string]any {
	return map[string]any{
		"name":        &c.Name,
		"color":       &c.Color,
		"points":      &c.Points,
		"alert":       &c.Alert,
		"power_limit": &c.PowerLimit,
	}
}

// NewCategory returns an 80x80 square zone named cat_{n} at the canvas
// centre.
func NewCategory(n int) *Category {
	cx, cy := float64(geom.CanvasWidth/2), float64(geom.CanvasHeight/2)
	return &Category{
		Name:       fmt.Sprintf("cat_%d", n),
		Color:      Color{150, 200, 250},
		Points:     []geom.Point{geom.Pt(cx-40, cy-40), geom.Pt(cx+40, cy-40), geom.Pt(cx+40, cy+40), geom.Pt(cx-40, cy+40)},
		PowerLimit: "0",
	}
}

// DuplicateCategory copies src as zone cat_{n}, shifted 20 units down and
// right.
func DuplicateCategory(src *Category, n int) *Category {
	return &Category{
		Name:       fmt.Sprintf("cat_%d", n),
		Color:      src.Color,
		Points:     geom.TranslateAll(src.Points, geom.Pt(20, 20)),
		Alert:      src.Alert,
		PowerLimit: src.PowerLimit,
	}
}

func (c *Category) Kind() Kind { return KindCategory }
func (c *Category) Anchor() geom.Point {
	if len(c.Points) == 0 {
		return geom.Point{}
	}
	return c.Points[0]
}
func (c *Category) Translate(d geom.Point)        { c.Points = geom.TranslateAll(c.Points, d) }
func (c *Category) Bounds(TextMeasurer) geom.Rect { return geom.BoundsOf(c.Points).Pad(3) }
func (c *Category) Contains(p geom.Point) bool    { return geom.PointInPolygon(p, c.Points) }

func (c *Category) Vertices() []geom.Point            { return c.Points }
func (c *Category) MoveVertex(i int, q geom.Point)    { c.Points[i] = q }
func (c *Category) InsertVertex(at int, q geom.Point) { c.Points = insertPoint(c.Points, at, q) }
func (c *Category) MinVertices() int                  { return MinCategoryVertices }
func (c *Category) RemoveVertex(i int) bool {
	if len(c.Points) <= MinCategoryVertices || i < 0 || i >= len(c.Points) {
		return false
	}
	c.Points = append(c.Points[:i], c.Points[i+1:]...)
	return true
}

func insertPoint(pts []geom.Point, at int, q geom.Point) []geom.Point {
	at = max(0, min(at, len(pts)))
	pts = append(pts, geom.Point{})
	copy(pts[at+1:], pts[at:])
	pts[at] = q
	return pts
}
