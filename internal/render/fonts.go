package render

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/boothmap/boothmap/internal/geom"
)

// Fonts hands out Go Regular faces by pixel size. Faces are created once
// per size and shared, so callers serialise drawing just as they do
// session access.
type Fonts struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[int]font.Face
}

// NewFonts parses the embedded Go Regular font.
func NewFonts() (*Fonts, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Fonts{font: f, faces: make(map[int]font.Face)}, nil
}

// Face returns the face for size pixels (at least 1).
func (f *Fonts) Face(size int) font.Face {
	size = max(1, size)
	f.mu.Lock()
	defer f.mu.Unlock()
	if face, ok := f.faces[size]; ok {
		return face
	}
	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	f.faces[size] = face
	return face
}

// MeasureText implements document.TextMeasurer with real glyph advances.
func (f *Fonts) MeasureText(text string, size int) geom.Size {
	face := f.Face(size)
	return geom.Size{
		W: float64(font.MeasureString(face, text).Ceil()),
		H: float64(lineHeight(face)),
	}
}

func lineHeight(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

func ascent(face font.Face) int {
	return face.Metrics().Ascent.Ceil()
}

func fixedPoint(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

// MeasureTextWidth is the advance width of text in whole pixels.
func (f *Fonts) MeasureTextWidth(text string, size int) int {
	return font.MeasureString(f.Face(size), text).Ceil()
}
