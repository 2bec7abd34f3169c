package engine

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/boothmap/boothmap/internal/document"
)

// AssignColor sets the fill of every booth with the given classification
// and returns how many changed.
func (s *Session) AssignColor(classification string, c document.Color) int {
	n := 0
	for _, r := range s.doc.Rects {
		if r.Classification == classification && r.Color != c {
			r.Color = c
			n++
		}
	}
	if n > 0 {
		s.touch()
	}
	return n
}

// AutoNumber renumbers the booths of a classification in left-to-right,
// top-to-bottom order of their centres: beer booths count 1, 2, 3 and food
// booths get spreadsheet letters A..Z, AA, AB.
func (s *Session) AutoNumber(classification string) (int, error) {
	var label func(int) string
	switch classification {
	case document.ClassBeer:
		label = func(i int) string { return strconv.Itoa(i + 1) }
	case document.ClassFood:
		label = AlphaLabel
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedClassification, classification)
	}

	var rects []*document.Rect
	for _, r := range s.doc.Rects {
		if r.Classification == classification {
			rects = append(rects, r)
		}
	}
	slices.SortStableFunc(rects, func(a, b *document.Rect) int { return comparePoints(a.Center, b.Center) })
	for i, r := range rects {
		r.No = document.Tag(label(i))
	}
	if len(rects) > 0 {
		s.touch()
	}
	return len(rects), nil
}

// AlphaLabel returns the zero-based spreadsheet column name of i:
// 0 → A, 25 → Z, 26 → AA.
func AlphaLabel(i int) string {
	var out []byte
	for i >= 0 {
		out = append(out, byte('A'+i%26))
		i = i/26 - 1
	}
	slices.Reverse(out)
	return string(out)
}
