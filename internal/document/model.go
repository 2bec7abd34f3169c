package document

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/boothmap/boothmap/internal/geom"
)

// Document is a whole booth map: booths, free labels, zones and polylines.
// Slice order is paint order; later entries are in front.
type Document struct {
	Rects      []*Rect      `json:"rects"`
	Texts      []*TextLabel `json:"texts"`
	Categories []*Category  `json:"categories"`
	Polygons   []*Polygon   `json:"polygons"`
}

// Kind tags a shape collection.
type Kind string

const (
	KindRect     Kind = "rect"
	KindText     Kind = "text"
	KindCategory Kind = "category"
	KindPolygon  Kind = "polygon"
)

// Classifications with special handling.
const (
	ClassBeer = "beer"
	ClassFood = "food"
	ClassText = "Text"
)

// Decode reads a document. Missing collections decode as empty and missing
// record fields take their defaults.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc.compact()
	return &doc, nil
}

// Unmarshal is Decode for a byte slice.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc.compact()
	return &doc, nil
}

// Encode writes the document as indented JSON without HTML escaping, so
// non-ASCII booth names stay readable.
func (d *Document) Encode(w io.Writer) error {
	d.compact()
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// compact drops null records and replaces nil collections with empty ones.
func (d *Document) compact() {
	d.Rects = dropNil(d.Rects)
	d.Texts = dropNil(d.Texts)
	d.Categories = dropNil(d.Categories)
	d.Polygons = dropNil(d.Polygons)
}

func dropNil[T any](in []*T) []*T {
	out := make([]*T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the size of the collection for kind.
func (d *Document) Len(kind Kind) int {
	switch kind {
	case KindRect:
		return len(d.Rects)
	case KindText:
		return len(d.Texts)
	case KindCategory:
		return len(d.Categories)
	case KindPolygon:
		return len(d.Polygons)
	}
	return 0
}

// Shape returns the shape at index i of kind's collection, or nil.
func (d *Document) Shape(kind Kind, i int) Shape {
	if i < 0 || i >= d.Len(kind) {
		return nil
	}
	switch kind {
	case KindRect:
		return d.Rects[i]
	case KindText:
		return d.Texts[i]
	case KindCategory:
		return d.Categories[i]
	case KindPolygon:
		return d.Polygons[i]
	}
	return nil
}

// Remove deletes and returns the shape at index i of kind's collection.
func (d *Document) Remove(kind Kind, i int) Shape {
	s := d.Shape(kind, i)
	if s == nil {
		return nil
	}
	switch kind {
	case KindRect:
		d.Rects = append(d.Rects[:i], d.Rects[i+1:]...)
	case KindText:
		d.Texts = append(d.Texts[:i], d.Texts[i+1:]...)
	case KindCategory:
		d.Categories = append(d.Categories[:i], d.Categories[i+1:]...)
	case KindPolygon:
		d.Polygons = append(d.Polygons[:i], d.Polygons[i+1:]...)
	}
	return s
}

// Append adds s to the end of its collection and returns its index.
func (d *Document) Append(s Shape) int {
	switch v := s.(type) {
	case *Rect:
		d.Rects = append(d.Rects, v)
		return len(d.Rects) - 1
	case *TextLabel:
		d.Texts = append(d.Texts, v)
		return len(d.Texts) - 1
	case *Category:
		d.Categories = append(d.Categories, v)
		return len(d.Categories) - 1
	case *Polygon:
		d.Polygons = append(d.Polygons, v)
		return len(d.Polygons) - 1
	}
	return -1
}

// IndexOf returns the position of s in its collection, or -1.
func (d *Document) IndexOf(s Shape) int {
	for i := 0; i < d.Len(s.Kind()); i++ {
		if d.Shape(s.Kind(), i) == s {
			return i
		}
	}
	return -1
}

// Color is an RGB triple. It serialises as [r, g, b].
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{0, 0, 0}
	White = Color{255, 255, 255}
	Blue  = Color{0, 0, 255}
)

// Complement returns the colour with every channel inverted.
func (c Color) Complement() Color {
	return Color{255 - c.R, 255 - c.G, 255 - c.B}
}

// Brightness is the mean of the three channels.
func (c Color) Brightness() float64 {
	return (float64(c.R) + float64(c.G) + float64(c.B)) / 3
}

// RGBA converts to an opaque image/color value.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func (c Color) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(c.R), int(c.G), int(c.B)})
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var rgb []float64
	if err := json.Unmarshal(data, &rgb); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	if len(rgb) < 3 {
		return fmt.Errorf("color: want 3 channels, got %d", len(rgb))
	}
	c.R, c.G, c.B = channel(rgb[0]), channel(rgb[1]), channel(rgb[2])
	return nil
}

func channel(v float64) uint8 {
	return uint8(geom.Clamp(math.Round(v), 0, 255))
}

// ParseColor reads "r,g,b", "(r, g, b)" or "r g b". ok is false when the
// text does not hold three integers.
func ParseColor(s string) (Color, bool) {
	s = strings.Trim(strings.TrimSpace(s), "()[]")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != 3 {
		return Black, false
	}
	var out [3]uint8
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Black, false
		}
		out[i] = channel(float64(n))
	}
	return Color{out[0], out[1], out[2]}, true
}

// Tag is a booth or label number. Files written by older editors store it
// either as a JSON number or a string; it is always written back as a
// string.
type Tag string

func (t *Tag) UnmarshalJSON(data []byte) error {
	s, err := scalarText(data)
	if err != nil {
		return fmt.Errorf("tag: %w", err)
	}
	*t = Tag(s)
	return nil
}

// Quantity is a count or wattage entered by hand. It keeps the text it was
// given and parses it on demand.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	s, err := scalarText(data)
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	*q = Quantity(s)
	return nil
}

// Int parses the quantity. Non-numeric text counts as 0 and decimals are
// truncated.
func (q Quantity) Int() int {
	s := strings.TrimSpace(string(q))
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}

// Q formats n as a Quantity.
func Q(n int) Quantity { return Quantity(strconv.Itoa(n)) }

// scalarText accepts a JSON string, number, bool or null and returns its text.
func scalarText(data []byte) (string, error) {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	return "", fmt.Errorf("unsupported value %s", data)
}

// TextMeasurer reports the pixel extent of a single line of text.
type TextMeasurer interface {
	MeasureText(text string, size int) geom.Size
}

// ApproxMeasurer estimates text extents from the font size alone. It is
// used where no font is loaded.
type ApproxMeasurer struct{}

func (ApproxMeasurer) MeasureText(text string, size int) geom.Size {
	n := len([]rune(text))
	return geom.Size{W: float64(n*size) * 0.6, H: float64(size)}
}
