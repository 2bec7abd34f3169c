package render

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
)

// bodyKey is everything the rotated body bitmap depends on.
type bodyKey struct {
	W, H  int
	Angle float64
	Fill  document.Color
}

// labelKey is everything the rotated name block depends on.
type labelKey struct {
	Text     string
	FontSize int
	Angle    float64
	Color    document.Color
	Editing  bool
	Spacing  int
}

// fingerprint is a booth's appearance, independent of where it sits.
type fingerprint struct {
	Body  bodyKey
	Label labelKey
}

// rectCache holds the bitmaps generated for one booth. Each half is
// regenerated only when its own key changes.
type rectCache struct {
	fp    fingerprint
	body  *image.RGBA
	label *image.RGBA
}

// appearance resolves the effective fill and label colours. An active booth
// shows its complement, unless its label is being edited, in which case the
// label turns blue and the fill stays.
func appearance(r *document.Rect, active bool, lineSpacing float64) fingerprint {
	fill, label := r.Color, r.NameColor
	if active && !r.NameEdit {
		fill = r.Color.Complement()
	}
	if active && r.NameEdit {
		label = document.Blue
	}
	return fingerprint{
		Body: bodyKey{
			W:     max(1, int(math.Round(r.Size.W))),
			H:     max(1, int(math.Round(r.Size.H))),
			Angle: r.Angle,
			Fill:  fill,
		},
		Label: labelKey{
			Text:     r.Name,
			FontSize: r.FontSize,
			Angle:    r.NameAngle,
			Color:    label,
			Editing:  r.NameEdit,
			Spacing:  int(float64(r.FontSize) * lineSpacing),
		},
	}
}

// update brings the cache in line with fp, regenerating only the halves
// whose keys changed.
func (c *rectCache) update(fp fingerprint, fonts *Fonts, stats *Stats) {
	if c.body == nil || c.fp.Body != fp.Body {
		c.body = renderBody(fp.Body)
		stats.BodyRenders++
	}
	if c.label == nil || c.fp.Label != fp.Label {
		c.label = renderLabel(fp.Label, fonts)
		stats.LabelRenders++
	}
	c.fp = fp
}

func renderBody(k bodyKey) *image.RGBA {
	base := image.NewRGBA(image.Rect(0, 0, k.W, k.H))
	draw.Draw(base, base.Bounds(), image.NewUniform(k.Fill.RGBA()), image.Point{}, draw.Src)
	return rotate(base, geom.BodyRotation(k.Angle))
}

// renderLabel stacks the name lines top to bottom, each line advancing by
// its height plus the (usually negative) spacing, then turns the block.
func renderLabel(k labelKey, fonts *Fonts) *image.RGBA {
	face := fonts.Face(k.FontSize)
	lines := document.SplitLines(k.Text)
	lh, asc := lineHeight(face), ascent(face)

	w := 1
	for _, l := range lines {
		w = max(w, fonts.MeasureTextWidth(l, k.FontSize))
	}
	h := max(1, len(lines)*lh+k.Spacing*(len(lines)-1))

	block := image.NewRGBA(image.Rect(0, 0, w, h))
	y := 0
	for _, l := range lines {
		drawString(block, face, l, 0, float64(y+asc), k.Color.RGBA())
		y += lh + k.Spacing
	}
	return rotate(block, geom.LabelRotation(k.Angle))
}

// bodyOrigin is where the body bitmap's top-left corner lands so that it
// is centred on the booth.
func bodyOrigin(r *document.Rect, body *image.RGBA) image.Point {
	sz := body.Bounds().Size()
	return image.Pt(
		int(math.Round(r.Center.X-float64(sz.X)/2)),
		int(math.Round(r.Center.Y-float64(sz.Y)/2)),
	)
}

func labelOrigin(r *document.Rect) image.Point {
	o := r.LabelOrigin()
	return image.Pt(int(math.Round(o.X)), int(math.Round(o.Y)))
}
