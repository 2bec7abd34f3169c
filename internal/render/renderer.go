// Package render draws booth maps onto a fixed 1920x1080 raster. It keeps
// a background layer, a cached zone layer and per-booth bitmaps, and on
// each frame repaints only the regions whose content changed.
package render

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"os"
	"strconv"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/engine"
	"github.com/boothmap/boothmap/internal/geom"
)

// DefaultLineSpacing is the name-block line spacing as a fraction of the
// font size.
const DefaultLineSpacing = -0.5

// Blank is the canvas colour when no background image is set.
var Blank = color.RGBA{R: 250, G: 250, B: 255, A: 255}

// CanvasBounds is the raster every frame is drawn into.
var CanvasBounds = image.Rect(0, 0, geom.CanvasWidth, geom.CanvasHeight)

// State is the per-frame highlight state.
type State struct {
	// Selected shapes are drawn highlighted.
	Selected []document.Shape
	// ActiveVertex is the selected vertex of Selected[0], or -1.
	ActiveVertex int
	// ZonesLayer draws zone names and vertex handles.
	ZonesLayer bool
	// HideZones leaves zones out of the frame.
	HideZones bool
	// TentHighlight outlines booths that have tents in red.
	TentHighlight bool
}

// StateOf derives the highlight state from a session.
func StateOf(s *engine.Session) State {
	st := State{
		ActiveVertex:  -1,
		ZonesLayer:    s.Layer() == engine.LayerZones,
		HideZones:     s.ZonesHidden(),
		TentHighlight: s.TentHighlight(),
	}
	sel := s.Selection()
	if a := s.Active(); a != nil {
		st.Selected = []document.Shape{a}
		if sel.State == engine.VertexSelected {
			st.ActiveVertex = sel.Vertex
		}
		return st
	}
	for _, r := range s.SelectedRects() {
		st.Selected = append(st.Selected, r)
	}
	return st
}

func (st State) selected(s document.Shape) bool {
	for _, x := range st.Selected {
		if x == s {
			return true
		}
	}
	return false
}

func (st State) vertexOf(s document.Shape) int {
	if len(st.Selected) > 0 && st.Selected[0] == s {
		return st.ActiveVertex
	}
	return -1
}

// Stats counts the expensive work done so far.
type Stats struct {
	Frames       int
	BodyRenders  int
	LabelRenders int
	TextRenders  int
	ZoneRenders  int
}

type placement struct {
	key    string
	region image.Rectangle
}

type item struct {
	id     any
	key    string
	region image.Rectangle
	draw   func(dst *image.RGBA)
}

type textCache struct {
	key string
	bmp *image.RGBA
}

// Renderer owns the canvas and every cache. It is not safe for concurrent
// use.
type Renderer struct {
	fonts       *Fonts
	logger      *slog.Logger
	lineSpacing float64

	canvas     *image.RGBA
	background *image.RGBA
	// base is the background with the zone layer composited on top; dirty
	// regions are restored from it.
	base      *image.RGBA
	zoneKey   string
	baseStale bool

	rects  map[*document.Rect]*rectCache
	texts  map[*document.TextLabel]*textCache
	placed map[any]placement
	stats  Stats
}

// NewRenderer returns a renderer with a blank background.
func NewRenderer(fonts *Fonts, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		fonts:       fonts,
		logger:      logger,
		lineSpacing: DefaultLineSpacing,
		background:  blank(),
		baseStale:   true,
		rects:       make(map[*document.Rect]*rectCache),
		texts:       make(map[*document.TextLabel]*textCache),
	}
}

// SetLineSpacing changes the name-block line spacing factor.
func (r *Renderer) SetLineSpacing(f float64) { r.lineSpacing = f }

// Fonts returns the renderer's font set, which doubles as a text measurer.
func (r *Renderer) Fonts() *Fonts { return r.fonts }

func (r *Renderer) Stats() Stats { return r.stats }

// Canvas is the most recent frame.
func (r *Renderer) Canvas() *image.RGBA { return r.canvas }

func blank() *image.RGBA {
	img := image.NewRGBA(CanvasBounds)
	draw.Draw(img, img.Bounds(), image.NewUniform(Blank), image.Point{}, draw.Src)
	return img
}

// SetBackground letterboxes img onto a white canvas-sized layer. A nil
// image restores the blank background.
func (r *Renderer) SetBackground(img image.Image) {
	r.baseStale = true
	if img == nil || img.Bounds().Empty() {
		r.background = blank()
		return
	}
	bg := image.NewRGBA(CanvasBounds)
	draw.Draw(bg, bg.Bounds(), image.White, image.Point{}, draw.Src)
	sb := img.Bounds()
	scale := math.Min(float64(geom.CanvasWidth)/float64(sb.Dx()), float64(geom.CanvasHeight)/float64(sb.Dy()))
	w, h := int(float64(sb.Dx())*scale), int(float64(sb.Dy())*scale)
	x, y := (geom.CanvasWidth-w)/2, (geom.CanvasHeight-h)/2
	draw.CatmullRom.Scale(bg, image.Rect(x, y, x+w, y+h), img, sb, draw.Over, nil)
	r.background = bg
}

// LoadBackground decodes the image at path as the background. On failure
// the blank background is used and the error is logged and returned.
func (r *Renderer) LoadBackground(path string) error {
	img, err := DecodeFile(path)
	if err != nil {
		r.logger.Warn("background image unavailable, using blank canvas", "path", path, "error", err)
		r.SetBackground(nil)
		return err
	}
	r.SetBackground(img)
	return nil
}

// DecodeFile decodes a PNG, JPEG, BMP, TIFF or WebP file.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// Frame draws doc and returns the canvas regions that changed since the
// previous frame, coalesced so that none overlap. The first frame, and
// any frame after the background or a zone changed, is a full redraw.
func (r *Renderer) Frame(doc *document.Document, st State) []image.Rectangle {
	r.stats.Frames++
	full := r.canvas == nil
	if full {
		r.canvas = image.NewRGBA(CanvasBounds)
	}
	if zk := r.zoneLayerKey(doc, st); r.baseStale || zk != r.zoneKey {
		r.rebuildBase(doc, st)
		r.zoneKey, r.baseStale = zk, false
		full = true
	}

	items := r.layout(doc, st)
	next := make(map[any]placement, len(items))
	var dirty []image.Rectangle
	for _, it := range items {
		next[it.id] = placement{key: it.key, region: it.region}
		prev, ok := r.placed[it.id]
		if ok && prev == next[it.id] {
			continue
		}
		if ok {
			dirty = append(dirty, prev.region)
		}
		dirty = append(dirty, it.region)
	}
	for id, prev := range r.placed {
		if _, ok := next[id]; !ok {
			dirty = append(dirty, prev.region)
		}
	}
	r.placed = next
	if full {
		dirty = []image.Rectangle{CanvasBounds}
	}
	dirty = Coalesce(dirty, CanvasBounds)

	for _, d := range dirty {
		draw.Draw(r.canvas, d, r.base, d.Min, draw.Src)
		dst := r.canvas.SubImage(d).(*image.RGBA)
		for _, it := range items {
			if it.region.Overlaps(d) {
				it.draw(dst)
			}
		}
	}
	r.prune(doc)
	return dirty
}

// Present scales the current frame into a window of vp's size, letterboxed
// with black bars.
func (r *Renderer) Present(vp geom.Viewport) *image.RGBA {
	win := image.NewRGBA(image.Rect(0, 0, int(vp.Window.W), int(vp.Window.H)))
	draw.Draw(win, win.Bounds(), image.Black, image.Point{}, draw.Src)
	if r.canvas != nil {
		draw.BiLinear.Scale(win, vp.Frame(), r.canvas, r.canvas.Bounds(), draw.Src, nil)
	}
	return win
}

func (r *Renderer) rebuildBase(doc *document.Document, st State) {
	r.stats.ZoneRenders++
	base := image.NewRGBA(CanvasBounds)
	draw.Draw(base, base.Bounds(), r.background, image.Point{}, draw.Src)
	if !st.HideZones {
		for _, c := range doc.Categories {
			r.drawZone(base, c, st)
		}
	}
	r.base = base
}

func (r *Renderer) zoneLayerKey(doc *document.Document, st State) string {
	if st.HideZones {
		return "hidden"
	}
	key := fmt.Sprintf("layer=%t", st.ZonesLayer)
	for _, c := range doc.Categories {
		key += fmt.Sprintf("|%s %v %v sel=%t v=%d", c.Name, c.Color, c.Points, st.selected(c), st.vertexOf(c))
	}
	return key
}

func (r *Renderer) drawZone(dst *image.RGBA, c *document.Category, st State) {
	if len(c.Points) == 0 {
		return
	}
	active := st.selected(c)
	col := c.Color
	if active {
		col = engine.ActiveOutline
	}
	strokePolyline(dst, c.Points, 3, true, col.RGBA())
	if !st.ZonesLayer {
		return
	}
	face := r.fonts.Face(20)
	av := st.vertexOf(c)
	for i, p := range c.Points {
		vc := engine.IdleVertex
		if active && i == av {
			vc = engine.ActiveVertex
		}
		fillCircle(dst, p, 6, vc.RGBA())
		if active {
			drawCentered(dst, face, strconv.Itoa(i), p.Add(geom.Pt(0, -12)), document.Black.RGBA())
		}
	}
	drawCentered(dst, face, c.Name, geom.Centroid(c.Points), document.Black.RGBA())
}

// layout prepares every shape drawn above the base layer, in paint order:
// booths, then polylines, then text labels.
func (r *Renderer) layout(doc *document.Document, st State) []item {
	items := make([]item, 0, len(doc.Rects)+len(doc.Polygons)+len(doc.Texts))
	for _, rect := range doc.Rects {
		items = append(items, r.layoutRect(rect, st))
	}
	for _, p := range doc.Polygons {
		items = append(items, r.layoutPolygon(p, st))
	}
	for _, t := range doc.Texts {
		items = append(items, r.layoutText(t, st))
	}
	return items
}

func (r *Renderer) layoutRect(rect *document.Rect, st State) item {
	active := st.selected(rect)
	fp := appearance(rect, active, r.lineSpacing)
	c := r.rects[rect]
	if c == nil {
		c = &rectCache{}
		r.rects[rect] = c
	}
	c.update(fp, r.fonts, &r.stats)

	outline, width := document.Black, 1.0
	switch {
	case st.TentHighlight && rect.Tent.Int() > 0:
		outline, width = engine.TentOutline, 3
	case active:
		outline, width = engine.ActiveBoothOutline, 2
	}
	numColor := document.White
	if rect.Color.Brightness() > 128 {
		numColor = document.Black
	}
	numFace := r.fonts.Face(int(rect.Size.H * 0.75))
	no := string(rect.No)

	body, label := c.body, c.label
	bodyAt, labelAt := bodyOrigin(rect, body), labelOrigin(rect)
	corners := rect.Corners()

	region := image.Rectangle{Min: bodyAt, Max: bodyAt.Add(body.Bounds().Size())}
	region = region.Union(image.Rectangle{Min: labelAt, Max: labelAt.Add(label.Bounds().Size())})
	region = region.Union(centeredBox(numFace, no, rect.Center))
	region = region.Union(geom.BoundsOf(corners[:]).Pad(width + 1).Image())

	return item{
		id:     rect,
		key:    fmt.Sprintf("%+v %v %v %s %v %v %v", fp, rect.Center, rect.NamePos, no, numColor, outline, width),
		region: region,
		draw: func(dst *image.RGBA) {
			blit(dst, body, bodyAt)
			drawCentered(dst, numFace, no, rect.Center, numColor.RGBA())
			blit(dst, label, labelAt)
			strokePolyline(dst, corners[:], width, true, outline.RGBA())
		},
	}
}

func (r *Renderer) layoutPolygon(p *document.Polygon, st State) item {
	active := st.selected(p)
	col := p.Color
	if active {
		col = engine.ActiveOutline
	}
	av := st.vertexOf(p)
	pts := append([]geom.Point(nil), p.Points...)
	width := float64(max(1, p.Width))
	return item{
		id:     p,
		key:    fmt.Sprintf("%v %v %v %t %t %d", pts, col, width, p.ShowVertices, active, av),
		region: geom.BoundsOf(pts).Pad(width/2 + 8).Image(),
		draw: func(dst *image.RGBA) {
			strokePolyline(dst, pts, width, false, col.RGBA())
			if !p.ShowVertices || !active {
				return
			}
			for i, v := range pts {
				vc := engine.IdleVertex
				if i == av {
					vc = engine.ActiveVertex
				}
				fillCircle(dst, v, 6, vc.RGBA())
			}
		},
	}
}

// layoutText places a label's rotated bitmap so the middle of its left
// edge sits on the label position.
func (r *Renderer) layoutText(t *document.TextLabel, st State) item {
	col := t.Color
	if st.selected(t) {
		col = document.Blue
	}
	key := fmt.Sprintf("%q %d %v %v", t.Text, t.FontSize, t.Angle, col)
	c := r.texts[t]
	if c == nil || c.key != key {
		face := r.fonts.Face(t.FontSize)
		w := max(1, r.fonts.MeasureTextWidth(t.Text, t.FontSize))
		src := image.NewRGBA(image.Rect(0, 0, w, max(1, lineHeight(face))))
		drawString(src, face, t.Text, 0, float64(ascent(face)), col.RGBA())
		c = &textCache{key: key, bmp: rotate(src, geom.BodyRotation(t.Angle))}
		r.texts[t] = c
		r.stats.TextRenders++
	}
	bmp := c.bmp
	sz := bmp.Bounds().Size()
	at := image.Pt(int(math.Round(t.Position.X)), int(math.Round(t.Position.Y-float64(sz.Y)/2)))
	return item{
		id:     t,
		key:    fmt.Sprintf("%s %v", key, at),
		region: image.Rectangle{Min: at, Max: at.Add(sz)},
		draw:   func(dst *image.RGBA) { blit(dst, bmp, at) },
	}
}

// prune drops caches of shapes no longer in doc.
func (r *Renderer) prune(doc *document.Document) {
	if len(r.rects) > len(doc.Rects) {
		live := make(map[*document.Rect]bool, len(doc.Rects))
		for _, x := range doc.Rects {
			live[x] = true
		}
		for x := range r.rects {
			if !live[x] {
				delete(r.rects, x)
			}
		}
	}
	if len(r.texts) > len(doc.Texts) {
		live := make(map[*document.TextLabel]bool, len(doc.Texts))
		for _, x := range doc.Texts {
			live[x] = true
		}
		for x := range r.texts {
			if !live[x] {
				delete(r.texts, x)
			}
		}
	}
}
