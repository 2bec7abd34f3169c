// Package engine is the editing core: it owns a document, the current
// selection and drag state, the single-slot undo, and the command and
// query surface a front end drives.
package engine

import (
	"errors"
	"log/slog"
	"time"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
	"github.com/boothmap/boothmap/internal/nudge"
)

var (
	ErrNothingSelected           = errors.New("nothing selected")
	ErrNothingToUndo             = errors.New("nothing to undo")
	ErrLocked                    = errors.New("shape is locked")
	ErrVertexFloor               = errors.New("vertex count at minimum")
	ErrNoSuchShape               = errors.New("no such shape")
	ErrUnsupportedClassification = errors.New("classification has no numbering scheme")
)

// Layer selects which collections are editable. Zones are edited on their
// own layer so booths inside a zone stay clickable on the map layer.
type Layer int

const (
	LayerMap Layer = iota
	LayerZones
)

func (l Layer) String() string {
	if l == LayerZones {
		return "zones"
	}
	return "map"
}

// ParseLayer maps "zones" to LayerZones and anything else to LayerMap.
func ParseLayer(s string) Layer {
	if s == "zones" {
		return LayerZones
	}
	return LayerMap
}

// Settings are the tunable interaction constants.
type Settings struct {
	VertexRadius  float64
	EdgeTolerance float64
	RotateStep    float64
	Steps         nudge.Steps
	MapDelay      time.Duration
	ZoneDelay     time.Duration
	// ZoneHide is how long HideZones keeps zones off screen.
	ZoneHide time.Duration
}

// DefaultSettings returns the stock interaction constants.
func DefaultSettings() Settings {
	return Settings{
		VertexRadius:  10,
		EdgeTolerance: 6,
		RotateStep:    5,
		Steps:         nudge.DefaultSteps,
		MapDelay:      500 * time.Millisecond,
		ZoneDelay:     150 * time.Millisecond,
		ZoneHide:      5 * time.Second,
	}
}

type dragState struct {
	active bool
	offset geom.Point
	last   geom.Point
}

// Session is one user's editing state over a document. It is not safe for
// concurrent use; callers serialise access.
type Session struct {
	doc      *document.Document
	layer    Layer
	state    State
	target   document.Shape
	vertex   int
	multi    []*document.Rect
	drag     dragState
	undo     document.Shape
	lastMove time.Duration
	prevKeys nudge.Keys
	settings Settings
	measurer document.TextMeasurer
	logger   *slog.Logger
	version  uint64

	// View toggles. They change what is drawn, never the document.
	tentHighlight bool
	now           time.Duration
	hideUntil     time.Duration
}

// NewSession returns a session over doc on the map layer.
func NewSession(doc *document.Document) *Session {
	if doc == nil {
		doc = document.NewEmptyDocument()
	}
	return &Session{
		doc:      doc,
		settings: DefaultSettings(),
		measurer: document.ApproxMeasurer{},
		logger:   slog.Default(),
	}
}

func (s *Session) SetSettings(st Settings)             { s.settings = st }
func (s *Session) SetMeasurer(m document.TextMeasurer) { s.measurer = m }
func (s *Session) SetLogger(l *slog.Logger)            { s.logger = l }
func (s *Session) Settings() Settings                  { return s.settings }
func (s *Session) Document() *document.Document        { return s.doc }
func (s *Session) Layer() Layer                        { return s.layer }

// Version increases on every document mutation.
func (s *Session) Version() uint64 { return s.version }

// SetLayer switches the editable layer and clears the selection.
func (s *Session) SetLayer(l Layer) {
	if s.layer == l {
		return
	}
	s.Deselect()
	s.layer = l
}

// LoadDocument replaces the document and resets all interaction state.
func (s *Session) LoadDocument(doc *document.Document) {
	s.doc = doc
	s.clearSelection()
	s.undo = nil
	s.touch()
}

// CanUndo reports whether a deleted shape is waiting in the undo slot.
func (s *Session) CanUndo() bool { return s.undo != nil }

func (s *Session) touch() { s.version++ }

func (s *Session) nudgeDelay() time.Duration {
	if s.layer == LayerZones {
		return s.settings.ZoneDelay
	}
	return s.settings.MapDelay
}

// editable reports whether kind belongs to the current layer.
func (s *Session) editable(kind document.Kind) bool {
	if s.layer == LayerZones {
		return kind == document.KindCategory
	}
	return kind != document.KindCategory
}
