package engine

import (
	"encoding/json"

	"github.com/boothmap/boothmap/internal/geom"
)

// SceneGraph is the render-ready display list of a session: every shape of
// the document in paint order (zones, polylines, booths, labels) with its
// outline resolved to canvas coordinates and its selection styling applied.
// Browser front ends paint it with Canvas2D; the raster renderer draws the
// document directly.
type SceneGraph struct {
	Version uint64       `json:"version"`
	Layer   string       `json:"layer"`
	Nodes   []*SceneNode `json:"nodes"`

	// Zone nodes are left out while ZonesHidden is set.
	ZonesHidden   bool `json:"zonesHidden"`
	TentHighlight bool `json:"tentHighlight"`
}

// SceneNode is one resolved shape.
type SceneNode struct {
	Ref  Ref    `json:"ref"`
	Type string `json:"type"` // "zone", "polyline", "booth", "text"

	Path        []PathCommand `json:"path,omitempty"`
	Fill        string        `json:"fill,omitempty"`
	Stroke      string        `json:"stroke,omitempty"`
	StrokeWidth float64       `json:"strokeWidth,omitempty"`

	// Handles are drawn vertex markers.
	Handles []geom.Point `json:"handles,omitempty"`
	// ActiveHandle is the selected vertex, or -1.
	ActiveHandle int `json:"activeHandle"`

	// Text content, for booths (number and label lines) and text labels.
	Number     string     `json:"number,omitempty"`
	Lines      []string   `json:"lines,omitempty"`
	TextOrigin geom.Point `json:"textOrigin"`
	TextAngle  float64    `json:"textAngle"`
	FontSize   int        `json:"fontSize,omitempty"`
	TextColor  string     `json:"textColor,omitempty"`

	Selected bool `json:"selected"`
	// Bounds is the axis-aligned box in canvas space, for hit previews and
	// dirty-region tracking on the client.
	Bounds geom.Rect `json:"bounds"`
}

// PathCommand is a single path segment in Canvas2D form: ["M", x, y],
// ["L", x, y] or ["Z"].
type PathCommand []any

// ToJSON serialises the scene.
func (sg *SceneGraph) ToJSON() (string, error) {
	data, err := json.Marshal(sg)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func pathOf(pts []geom.Point, closed bool) []PathCommand {
	if len(pts) == 0 {
		return nil
	}
	out := make([]PathCommand, 0, len(pts)+1)
	out = append(out, PathCommand{"M", pts[0].X, pts[0].Y})
	for _, p := range pts[1:] {
		out = append(out, PathCommand{"L", p.X, p.Y})
	}
	if closed {
		out = append(out, PathCommand{"Z"})
	}
	return out
}
