package document

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boothmap/boothmap/internal/geom"
)

func TestValidateSampleIsClean(t *testing.T) {
	assert.Empty(t, Validate(NewSampleDocument()))
}

func TestValidateFindsProblems(t *testing.T) {
	doc := NewSampleDocument()
	doc.Rects[1].No = doc.Rects[0].No
	doc.Rects[0].Power = "lots"
	doc.Rects[0].Size = geom.Size{W: 0, H: 10}
	doc.Polygons[0].Points = doc.Polygons[0].Points[:1]
	doc.Categories[0].Points = doc.Categories[0].Points[:2]

	problems := Validate(doc)
	assert.Len(t, problems, 5)
	assert.Equal(t, Problem{KindRect, 1, `number "1" already used by rect 0`}, problems[2])
	assert.Equal(t, "polygon[0]: 1 vertices, need at least 2", problems[3].String())
}
