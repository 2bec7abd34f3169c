package document

import "github.com/boothmap/boothmap/internal/geom"

// NewEmptyDocument returns a document with every collection present and
// empty.
func NewEmptyDocument() *Document {
	return &Document{
		Rects:      []*Rect{},
		Texts:      []*TextLabel{},
		Categories: []*Category{},
		Polygons:   []*Polygon{},
	}
}

// NewSampleDocument returns a small festival layout: two booths inside a
// powered zone, an alert zone, a walkway polyline and a locked title.
func NewSampleDocument() *Document {
	doc := NewEmptyDocument()

	beer := NewRect(1)
	beer.No = "1"
	beer.Name = "testA"
	beer.Center = geom.Pt(400, 300)
	beer.Size = geom.Size{W: 60, H: 40}
	beer.Power = "500"
	beer.Tent = "1"

	food := NewRect(2)
	food.No = "A"
	food.Name = `test\nB`
	food.Center = geom.Pt(520, 300)
	food.Size = geom.Size{W: 60, H: 40}
	food.Angle = 15
	food.Classification = ClassFood
	food.Color = Color{250, 200, 120}
	food.Power = "1200"
	food.Light = "2"

	doc.Rects = append(doc.Rects, beer, food)

	doc.Categories = append(doc.Categories,
		&Category{
			Name:       "North",
			Color:      Color{150, 200, 250},
			Points:     []geom.Point{geom.Pt(300, 200), geom.Pt(700, 200), geom.Pt(700, 420), geom.Pt(300, 420)},
			PowerLimit: "1500",
		},
		&Category{
			Name:       "Fire lane",
			Color:      Color{255, 120, 120},
			Points:     []geom.Point{geom.Pt(480, 250), geom.Pt(560, 250), geom.Pt(560, 350), geom.Pt(480, 350)},
			Alert:      true,
			PowerLimit: "0",
		},
	)

	walkway := NewPolygon(geom.Pt(250, 480))
	walkway.Points = append(walkway.Points, geom.Pt(750, 480))
	doc.Polygons = append(doc.Polygons, walkway)

	title := NewTextLabel(1, geom.Pt(80, 60))
	title.Text = "Festival map"
	title.FontSize = 36
	title.Locked = true
	doc.Texts = append(doc.Texts, title)

	return doc
}
