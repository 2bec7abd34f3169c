package engine

import (
	"fmt"
	"strings"

	"github.com/boothmap/boothmap/internal/aggregate"
	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
)

// Info is the information-panel view of the selection.
type Info struct {
	No             string     `json:"no"`
	Name           string     `json:"name"`
	Zones          []string   `json:"zones"`
	Classification string     `json:"classification"`
	Power          string     `json:"power"`
	Size           geom.Size  `json:"size"`
	Angle          float64    `json:"angle"`
	FontSize       int        `json:"font_size"`
	NameAngle      float64    `json:"name_angle"`
	Center         geom.Point `json:"center"`
	LabelPosition  geom.Point `json:"label_position"`
	Count          int        `json:"count"`
}

// Describe summarises the selected booths. For a multi-selection the
// textual fields are comma-joined in selection order and the numeric fields
// come from the first booth. ok is false when no booth is selected.
func (s *Session) Describe() (Info, bool) {
	rects := s.SelectedRects()
	if len(rects) == 0 {
		return Info{}, false
	}
	zones := aggregate.CanonicalZones(s.doc.Categories)

	var nos, names, classes, powers []string
	seen := map[string]bool{}
	info := Info{Zones: []string{}, Count: len(rects)}
	for _, r := range rects {
		nos = append(nos, string(r.No))
		names = append(names, document.CleanName(r.Name))
		classes = append(classes, r.Classification)
		powers = append(powers, string(r.Power))
		for _, z := range aggregate.ZonesContaining(r.Center, zones) {
			if !seen[z] {
				seen[z] = true
				info.Zones = append(info.Zones, z)
			}
		}
	}
	first := rects[0]
	info.No = strings.Join(nos, ", ")
	info.Name = strings.Join(names, ", ")
	info.Classification = strings.Join(classes, ", ")
	info.Power = strings.Join(powers, ", ")
	info.Size = first.Size
	info.Angle = first.Angle
	info.FontSize = first.FontSize
	info.NameAngle = first.NameAngle
	info.Center = first.Center
	info.LabelPosition = first.LabelOrigin()
	return info, true
}

// String renders the panel as "key: value" lines.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no: %s\n", i.No)
	fmt.Fprintf(&b, "name: %s\n", i.Name)
	fmt.Fprintf(&b, "zone: %s\n", strings.Join(i.Zones, ", "))
	fmt.Fprintf(&b, "classification: %s\n", i.Classification)
	fmt.Fprintf(&b, "power: %s\n", i.Power)
	fmt.Fprintf(&b, "size: %.0f x %.0f\n", i.Size.W, i.Size.H)
	fmt.Fprintf(&b, "angle: %.0f\n", i.Angle)
	fmt.Fprintf(&b, "font size: %d\n", i.FontSize)
	fmt.Fprintf(&b, "label angle: %.0f\n", i.NameAngle)
	fmt.Fprintf(&b, "center: %.0f, %.0f\n", i.Center.X, i.Center.Y)
	fmt.Fprintf(&b, "label: %.0f, %.0f\n", i.LabelPosition.X, i.LabelPosition.Y)
	return b.String()
}

// Report aggregates the whole document.
func (s *Session) Report() aggregate.Report {
	return aggregate.Compute(s.doc.Rects, s.doc.Categories)
}
