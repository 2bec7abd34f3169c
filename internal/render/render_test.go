package render

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/engine"
	"github.com/boothmap/boothmap/internal/geom"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	fonts, err := NewFonts()
	require.NoError(t, err)
	return NewRenderer(fonts, nil)
}

func idle() State { return State{ActiveVertex: -1} }

func covers(rs []image.Rectangle, p image.Point) bool {
	for _, r := range rs {
		if p.In(r) {
			return true
		}
	}
	return false
}

func TestCoalesce(t *testing.T) {
	got := Coalesce([]image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(5, 5, 20, 20),
		image.Rect(100, 100, 110, 110),
		image.Rect(18, 18, 30, 30),
		image.Rect(-50, -50, -40, -40),
	}, image.Rect(0, 0, 200, 200))
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 30, 30), image.Rect(100, 100, 110, 110)}, got)
}

func TestFirstFrameIsFull(t *testing.T) {
	r := newRenderer(t)
	dirty := r.Frame(document.NewSampleDocument(), idle())
	assert.Equal(t, []image.Rectangle{CanvasBounds}, dirty)

	st := r.Stats()
	assert.Equal(t, 2, st.BodyRenders)
	assert.Equal(t, 2, st.LabelRenders)
	assert.Equal(t, 1, st.ZoneRenders)
}

func TestUnchangedFrameIsClean(t *testing.T) {
	r := newRenderer(t)
	doc := document.NewSampleDocument()
	r.Frame(doc, idle())
	assert.Empty(t, r.Frame(doc, idle()))
}

func TestMoveReusesBitmaps(t *testing.T) {
	r := newRenderer(t)
	doc := document.NewSampleDocument()
	r.Frame(doc, idle())

	doc.Rects[0].Translate(geom.Pt(40, 0))
	dirty := r.Frame(doc, idle())

	assert.True(t, covers(dirty, image.Pt(400, 300)), "old position restored")
	assert.True(t, covers(dirty, image.Pt(440, 300)), "new position drawn")
	assert.False(t, covers(dirty, image.Pt(1500, 900)))
	assert.Equal(t, 2, r.Stats().BodyRenders)
	assert.Equal(t, 2, r.Stats().LabelRenders)
}

func TestSelectionRegeneratesOnlyTheBody(t *testing.T) {
	r := newRenderer(t)
	doc := document.NewSampleDocument()
	r.Frame(doc, idle())

	r.Frame(doc, State{Selected: []document.Shape{doc.Rects[0]}, ActiveVertex: -1})
	assert.Equal(t, 3, r.Stats().BodyRenders)
	assert.Equal(t, 2, r.Stats().LabelRenders)
}

func TestLabelEditRegeneratesOnlyTheLabel(t *testing.T) {
	r := newRenderer(t)
	doc := document.NewSampleDocument()
	r.Frame(doc, idle())

	doc.Rects[0].NameEdit = true
	r.Frame(doc, State{Selected: []document.Shape{doc.Rects[0]}, ActiveVertex: -1})
	assert.Equal(t, 2, r.Stats().BodyRenders, "label editing keeps the plain fill")
	assert.Equal(t, 3, r.Stats().LabelRenders)
}

func TestBodyCacheFollowsAppearanceOnly(t *testing.T) {
	r := newRenderer(t)
	doc := document.NewSampleDocument()
	r.Frame(doc, idle())

	doc.Rects[0].Classification = document.ClassFood
	r.Frame(doc, idle())
	assert.Equal(t, 2, r.Stats().BodyRenders, "classification is not drawn")

	doc.Rects[0].Angle = 30
	r.Frame(doc, idle())
	assert.Equal(t, 3, r.Stats().BodyRenders)
	assert.Equal(t, 2, r.Stats().LabelRenders, "the label keeps its own angle")
}

func TestViewTogglesRedraw(t *testing.T) {
	tests := []struct {
		name  string
		state State
		zones int
	}{
		{"hide zones", State{ActiveVertex: -1, HideZones: true}, 2},
		{"tent highlight", State{ActiveVertex: -1, TentHighlight: true}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRenderer(t)
			doc := document.NewSampleDocument()
			r.Frame(doc, idle())

			dirty := r.Frame(doc, tt.state)
			assert.True(t, covers(dirty, image.Pt(400, 300)), "booth with a tent")
			assert.Equal(t, tt.zones, r.Stats().ZoneRenders)
			assert.Equal(t, 2, r.Stats().BodyRenders)
		})
	}
}

func TestZoneChangeRedrawsEverything(t *testing.T) {
	r := newRenderer(t)
	doc := document.NewSampleDocument()
	r.Frame(doc, idle())

	doc.Categories[0].MoveVertex(0, geom.Pt(290, 190))
	dirty := r.Frame(doc, idle())
	assert.Equal(t, []image.Rectangle{CanvasBounds}, dirty)
	assert.Equal(t, 2, r.Stats().ZoneRenders)
}

func TestDeletedShapeIsErased(t *testing.T) {
	r := newRenderer(t)
	doc := document.NewEmptyDocument()
	box := document.NewRect(1)
	box.Center = geom.Pt(300, 300)
	box.Size = geom.Size{W: 100, H: 60}
	box.Color = document.Color{R: 10, G: 20, B: 30}
	doc.Rects = append(doc.Rects, box)

	r.Frame(doc, idle())
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, r.Canvas().RGBAAt(345, 325))
	assert.Equal(t, Blank, r.Canvas().RGBAAt(5, 5))

	doc.Remove(document.KindRect, 0)
	dirty := r.Frame(doc, idle())
	assert.True(t, covers(dirty, image.Pt(345, 325)))
	assert.Equal(t, Blank, r.Canvas().RGBAAt(345, 325))
}

func TestStateOfSession(t *testing.T) {
	s := engine.NewSession(document.NewSampleDocument())
	assert.Empty(t, StateOf(s).Selected)

	s.PointerDown(geom.Pt(750, 480), engine.Modifiers{})
	st := StateOf(s)
	require.Len(t, st.Selected, 1)
	assert.Equal(t, 2, st.ActiveVertex)

	s.PointerDown(geom.Pt(400, 300), engine.Modifiers{})
	s.PointerDown(geom.Pt(520, 300), engine.Modifiers{Multi: true})
	assert.Len(t, StateOf(s).Selected, 2)

	st = StateOf(s)
	assert.False(t, st.TentHighlight)
	assert.False(t, st.HideZones)

	s.ToggleTentHighlight()
	s.HideZones(time.Second)
	st = StateOf(s)
	assert.True(t, st.TentHighlight)
	assert.True(t, st.HideZones)
}

func TestSetBackgroundLetterboxes(t *testing.T) {
	r := newRenderer(t)
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for i := range src.Pix {
		if i%4 == 0 || i%4 == 3 {
			src.Pix[i] = 255
		}
	}
	r.SetBackground(src)
	r.Frame(document.NewEmptyDocument(), idle())

	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, r.Canvas().RGBAAt(100, 540), "side bar")
	mid := r.Canvas().RGBAAt(960, 540)
	assert.Greater(t, mid.R, uint8(250))
	assert.Less(t, mid.G, uint8(5))
}

func TestLoadBackgroundFallsBack(t *testing.T) {
	r := newRenderer(t)
	err := r.LoadBackground(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	r.Frame(document.NewEmptyDocument(), idle())
	assert.Equal(t, Blank, r.Canvas().RGBAAt(960, 540))
}

func TestPresentLetterboxes(t *testing.T) {
	r := newRenderer(t)
	r.Frame(document.NewEmptyDocument(), idle())

	win := r.Present(geom.NewViewport(1920, 1200))
	assert.Equal(t, image.Rect(0, 0, 1920, 1200), win.Bounds())
	assert.Equal(t, color.RGBA{A: 255}, win.RGBAAt(5, 5))
	assert.Equal(t, Blank, win.RGBAAt(960, 600))
}

func TestFontsMeasure(t *testing.T) {
	fonts, err := NewFonts()
	require.NoError(t, err)

	short := fonts.MeasureText("ab", 20)
	long := fonts.MeasureText("abcdef", 20)
	assert.Greater(t, long.W, short.W)
	assert.Greater(t, short.H, 0.0)
	assert.Greater(t, fonts.MeasureText("ab", 40).H, short.H)
}
