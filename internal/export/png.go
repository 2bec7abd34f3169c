package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
	"github.com/boothmap/boothmap/internal/render"
)

// PNGOptions control a still render.
type PNGOptions struct {
	// Background is drawn letterboxed under the map. Nil means blank.
	Background image.Image
	// Window, when non-zero, presents the canvas letterboxed into a window
	// of that size instead of writing the 1920x1080 canvas.
	Window      image.Point
	Fonts       *render.Fonts
	LineSpacing float64
	Logger      *slog.Logger

	// TentHighlight outlines booths with tents; HideZones leaves zones out.
	TentHighlight bool
	HideZones     bool
}

// Image renders doc with nothing selected. Fonts are parsed on the fly
// when opts carries none.
func Image(doc *document.Document, opts PNGOptions) (image.Image, error) {
	fonts := opts.Fonts
	if fonts == nil {
		var err error
		if fonts, err = render.NewFonts(); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := render.NewRenderer(fonts, logger)
	if opts.LineSpacing != 0 {
		r.SetLineSpacing(opts.LineSpacing)
	}
	r.SetBackground(opts.Background)
	r.Frame(doc, render.State{ActiveVertex: -1, TentHighlight: opts.TentHighlight, HideZones: opts.HideZones})

	if opts.Window.X > 0 && opts.Window.Y > 0 {
		return r.Present(geom.NewViewport(opts.Window.X, opts.Window.Y)), nil
	}
	return r.Canvas(), nil
}

// WritePNG renders doc and encodes it as PNG.
func WritePNG(w io.Writer, doc *document.Document, opts PNGOptions) error {
	img, err := Image(doc, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
