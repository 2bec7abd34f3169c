// Package aggregate computes per-zone power totals, classification counts
// and alert-zone hits for a booth map.
package aggregate

import (
	"sort"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
)

// ZoneTotal is one row of the power table.
type ZoneTotal struct {
	Name  string `json:"name" msgpack:"name" yaml:"name"`
	Limit int    `json:"limit" msgpack:"limit" yaml:"limit"`
	Total int    `json:"total" msgpack:"total" yaml:"total"`
}

// OverLimit reports whether the zone has a positive limit and exceeds it.
func (z ZoneTotal) OverLimit() bool {
	return z.Limit > 0 && z.Total > z.Limit
}

// Report is the full aggregation of a document.
type Report struct {
	Zones           []ZoneTotal    `json:"zones" msgpack:"zones" yaml:"zones"`
	Uncategorized   int            `json:"uncategorized" msgpack:"uncategorized" yaml:"uncategorized"`
	Total           int            `json:"total" msgpack:"total" yaml:"total"`
	Classifications map[string]int `json:"classifications" msgpack:"classifications" yaml:"classifications"`
	Alerts          []string       `json:"alerts" msgpack:"alerts" yaml:"alerts"`
}

// OverLimit returns the zones that exceed their limit.
func (r Report) OverLimit() []ZoneTotal {
	var out []ZoneTotal
	for _, z := range r.Zones {
		if z.OverLimit() {
			out = append(out, z)
		}
	}
	return out
}

// CanonicalZones returns the non-alert zones deduplicated by (name, limit),
// keeping the first occurrence, stably sorted by name.
func CanonicalZones(cats []*document.Category) []*document.Category {
	type key struct {
		name  string
		limit int
	}
	seen := make(map[key]bool)
	out := make([]*document.Category, 0, len(cats))
	for _, c := range cats {
		if c.Alert {
			continue
		}
		k := key{c.Name, c.PowerLimit.Int()}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ZonesContaining returns the distinct names of zones whose polygon
// contains p, in zone order.
func ZonesContaining(p geom.Point, zones []*document.Category) []string {
	var names []string
	seen := make(map[string]bool)
	for _, z := range zones {
		if seen[z.Name] || !z.Contains(p) {
			continue
		}
		seen[z.Name] = true
		names = append(names, z.Name)
	}
	return names
}

// Compute aggregates booth power by zone. A booth inside several zones
// counts toward each of them; a booth in none counts as uncategorized.
func Compute(rects []*document.Rect, cats []*document.Category) Report {
	zones := CanonicalZones(cats)
	totals := make(map[string]int, len(zones))
	for _, z := range zones {
		totals[z.Name] = 0
	}

	var rep Report
	for _, r := range rects {
		power := r.Power.Int()
		rep.Total += power
		names := ZonesContaining(r.Center, zones)
		if len(names) == 0 {
			rep.Uncategorized += power
			continue
		}
		for _, n := range names {
			totals[n] += power
		}
	}

	rep.Zones = make([]ZoneTotal, len(zones))
	for i, z := range zones {
		rep.Zones[i] = ZoneTotal{Name: z.Name, Limit: z.PowerLimit.Int(), Total: totals[z.Name]}
	}
	rep.Classifications = ClassificationCounts(rects)
	rep.Alerts = AlertHits(rects, cats)
	return rep
}

// ClassificationCounts counts booths per non-empty classification tag.
func ClassificationCounts(rects []*document.Rect) map[string]int {
	counts := make(map[string]int)
	for _, r := range rects {
		if r.Classification == "" {
			continue
		}
		counts[r.Classification]++
	}
	return counts
}

// AlertHits returns the names of alert zones containing at least one booth
// centre, in document order.
func AlertHits(rects []*document.Rect, cats []*document.Category) []string {
	hits := []string{}
	seen := make(map[string]bool)
	for _, c := range cats {
		if !c.Alert || seen[c.Name] {
			continue
		}
		for _, r := range rects {
			if c.Contains(r.Center) {
				seen[c.Name] = true
				hits = append(hits, c.Name)
				break
			}
		}
	}
	return hits
}
