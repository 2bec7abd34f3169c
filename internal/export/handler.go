package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/layout"
	"github.com/boothmap/boothmap/internal/render"
	"github.com/boothmap/boothmap/internal/store"
)

// Source supplies saved layouts.
type Source interface {
	Get(ctx context.Context, layoutID string) (*store.Layout, error)
	LatestDocument(ctx context.Context, layoutID string) (*document.Document, error)
}

// Backgrounds resolves a layout's background name to an image.
type Backgrounds interface {
	Load(name string) (image.Image, error)
}

type Handler struct {
	source      Source
	backgrounds Backgrounds
	fonts       *render.Fonts
	lineSpacing float64
}

func NewHandler(source Source, backgrounds Backgrounds, fonts *render.Fonts, lineSpacing float64) *Handler {
	return &Handler{source: source, backgrounds: backgrounds, fonts: fonts, lineSpacing: lineSpacing}
}

// ExportCSV handles GET /api/layouts/{layoutId}/export.csv.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	l, doc, ok := h.load(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, doc); err != nil {
		slog.Error("write csv", "error", err, "layout", l.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename(l.Name)))
	w.Write(buf.Bytes())
}

// ExportPNG handles GET /api/layouts/{layoutId}/export.png. A missing
// background image renders blank rather than failing.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	l, doc, ok := h.load(w, r)
	if !ok {
		return
	}

	opts := PNGOptions{Fonts: h.fonts, LineSpacing: h.lineSpacing}
	if l.Background != "" && h.backgrounds != nil {
		img, err := h.backgrounds.Load(l.Background)
		if err != nil {
			slog.Warn("background image unavailable, using blank canvas", "layout", l.ID, "background", l.Background, "error", err)
		} else {
			opts.Background = img
		}
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, doc, opts); err != nil {
		slog.Error("write png", "error", err, "layout", l.ID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.png"`, filename(l.Name)))
	w.Write(buf.Bytes())
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*store.Layout, *document.Document, bool) {
	layoutID := mux.Vars(r)["layoutId"]

	l, err := h.source.Get(r.Context(), layoutID)
	if err == nil {
		var doc *document.Document
		doc, err = h.source.LatestDocument(r.Context(), layoutID)
		if err == nil {
			return l, doc, true
		}
	}

	if errors.Is(err, layout.ErrNotFound) {
		http.Error(w, "layout not found", http.StatusNotFound)
	} else {
		slog.Error("load layout for export", "error", err, "layout", layoutID)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
	return nil, nil, false
}

// filename keeps letters, digits, dashes and underscores.
func filename(name string) string {
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
	if name == "" {
		return "layout"
	}
	return name
}
