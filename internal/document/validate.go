package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Problem is one finding from Validate.
type Problem struct {
	Kind  Kind   `json:"kind" yaml:"kind"`
	Index int    `json:"index" yaml:"index"`
	Msg   string `json:"message" yaml:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s[%d]: %s", p.Kind, p.Index, p.Msg)
}

// Validate reports shapes the editor would refuse to produce: vertex
// lists below their floor, non-positive booth sizes, booth numbers used
// twice and power values that are not numbers.
func Validate(d *Document) []Problem {
	var out []Problem
	seen := make(map[Tag]int)
	for i, r := range d.Rects {
		if r.Size.W < 1 || r.Size.H < 1 {
			out = append(out, Problem{KindRect, i, fmt.Sprintf("size %gx%g is below 1", r.Size.W, r.Size.H)})
		}
		if j, dup := seen[r.No]; dup && r.No != "" {
			out = append(out, Problem{KindRect, i, fmt.Sprintf("number %q already used by rect %d", r.No, j)})
		} else {
			seen[r.No] = i
		}
		if !numeric(string(r.Power)) {
			out = append(out, Problem{KindRect, i, fmt.Sprintf("power %q is not a number and counts as 0", r.Power)})
		}
	}
	for i, p := range d.Polygons {
		if len(p.Points) < MinPolygonVertices {
			out = append(out, Problem{KindPolygon, i, fmt.Sprintf("%d vertices, need at least %d", len(p.Points), MinPolygonVertices)})
		}
	}
	for i, c := range d.Categories {
		if len(c.Points) < MinCategoryVertices {
			out = append(out, Problem{KindCategory, i, fmt.Sprintf("zone %q has %d vertices, need at least %d", c.Name, len(c.Points), MinCategoryVertices)})
		}
		if !numeric(string(c.PowerLimit)) {
			out = append(out, Problem{KindCategory, i, fmt.Sprintf("zone %q power limit %q is not a number", c.Name, c.PowerLimit)})
		}
	}
	return out
}

func numeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
