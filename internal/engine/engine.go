package engine

import (
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
)

// Engine wraps a Session for front ends that talk in window coordinates
// and JSON strings, such as the WebAssembly bindings. It owns the
// viewport and a retained scene graph that is rebuilt only when the
// session changes.
type Engine struct {
	session  *Session
	viewport geom.Viewport

	// Retained scene graph and the session state it was built from.
	scene        *SceneGraph
	sceneVersion uint64
	sceneSel     Selection
	sceneView    viewState
}

type viewState struct {
	tentHighlight bool
	zonesHidden   bool
}

func (e *Engine) view() viewState {
	return viewState{tentHighlight: e.session.TentHighlight(), zonesHidden: e.session.ZonesHidden()}
}

// NewEngine returns an engine over an empty document with the window
// matching the canvas.
func NewEngine() *Engine {
	return &Engine{
		session:  NewSession(nil),
		viewport: geom.NewViewport(geom.CanvasWidth, geom.CanvasHeight),
	}
}

// Session exposes the underlying session.
func (e *Engine) Session() *Session { return e.session }

// SetLogger routes engine log output.
func (e *Engine) SetLogger(l *slog.Logger) { e.session.SetLogger(l) }

// --- Commands (frontend → engine) ---

// LoadDocument replaces the document with the JSON in data.
func (e *Engine) LoadDocument(data string) error {
	doc, err := document.Unmarshal([]byte(data))
	if err != nil {
		return err
	}
	e.session.LoadDocument(doc)
	e.scene = nil
	return nil
}

// LoadSampleDocument loads the built-in sample layout.
func (e *Engine) LoadSampleDocument() {
	e.session.LoadDocument(document.NewSampleDocument())
	e.scene = nil
}

// SetWindowSize updates the letterbox mapping after a window resize.
func (e *Engine) SetWindowSize(w, h int) {
	e.viewport = geom.NewViewport(w, h)
}

// PointerDown handles a press at window position (x, y). Presses in the
// letterbox bars are ignored.
func (e *Engine) PointerDown(x, y float64, mods Modifiers) {
	if p, ok := e.viewport.WindowToCanvas(geom.Pt(x, y)); ok {
		e.session.PointerDown(p, mods)
	}
}

// PointerMove drags the selection to window position (x, y).
func (e *Engine) PointerMove(x, y float64) {
	if p, ok := e.viewport.WindowToCanvas(geom.Pt(x, y)); ok {
		e.session.PointerMove(p)
	}
}

func (e *Engine) PointerUp() { e.session.PointerUp() }

// Apply runs a JSON-encoded Op. Pointer ops carry canvas coordinates.
func (e *Engine) Apply(data string) error {
	var op Op
	if err := json.Unmarshal([]byte(data), &op); err != nil {
		return err
	}
	return e.session.Apply(op)
}

// --- Queries (frontend ← engine) ---

// Render returns the scene graph as JSON, rebuilding it when the document,
// the selection or a view toggle changed since the last call.
func (e *Engine) Render() string {
	sel, view := e.session.Selection(), e.view()
	if e.scene == nil || e.sceneVersion != e.session.Version() || !sameSelection(sel, e.sceneSel) || view != e.sceneView {
		e.scene = BuildSceneGraph(e.session)
		e.sceneVersion = e.session.Version()
		e.sceneSel = sel
		e.sceneView = view
	}
	out, err := e.scene.ToJSON()
	if err != nil {
		return `{"nodes":[]}`
	}
	return out
}

func sameSelection(a, b Selection) bool {
	return a.State == b.State && a.Ref == b.Ref && a.Vertex == b.Vertex && slices.Equal(a.Multi, b.Multi)
}

// HitTest reports the shape under window position (x, y) as JSON, or an
// empty string.
func (e *Engine) HitTest(x, y float64) string {
	p, ok := e.viewport.WindowToCanvas(geom.Pt(x, y))
	if !ok {
		return ""
	}
	hit, ok := e.session.HitTest(p)
	if !ok {
		return ""
	}
	data, _ := json.Marshal(map[string]any{
		"ref":    Ref{Kind: hit.Shape.Kind(), Index: e.session.doc.IndexOf(hit.Shape)},
		"vertex": hit.Vertex,
	})
	return string(data)
}

// GetViewport returns the letterbox frame inside the window as JSON.
func (e *Engine) GetViewport() string {
	f := e.viewport.Frame()
	data, _ := json.Marshal(map[string]any{
		"x": f.Min.X, "y": f.Min.Y, "width": f.Dx(), "height": f.Dy(),
		"scale": e.viewport.Scale(),
	})
	return string(data)
}

// GetDocument returns the document as JSON.
func (e *Engine) GetDocument() string {
	data, _ := json.Marshal(e.session.Document())
	return string(data)
}

// GetSelection returns the selection snapshot as JSON.
func (e *Engine) GetSelection() string {
	data, _ := json.Marshal(e.session.Selection())
	return string(data)
}

// GetInfo returns the information panel for the selected booths as JSON,
// or "null".
func (e *Engine) GetInfo() string {
	info, ok := e.session.Describe()
	if !ok {
		return "null"
	}
	data, _ := json.Marshal(info)
	return string(data)
}

// GetReport returns the aggregation report as JSON.
func (e *Engine) GetReport() string {
	data, _ := json.Marshal(e.session.Report())
	return string(data)
}
