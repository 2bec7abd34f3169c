package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
	"github.com/boothmap/boothmap/internal/nudge"
)

func sampleSession(t *testing.T) *Session {
	t.Helper()
	return NewSession(document.NewSampleDocument())
}

func rectsAt(pts ...geom.Point) *document.Document {
	doc := document.NewEmptyDocument()
	for i, p := range pts {
		r := document.NewRect(i + 1)
		r.Center = p
		doc.Rects = append(doc.Rects, r)
	}
	return doc
}

func TestPointerDownSelectsBooth(t *testing.T) {
	s := sampleSession(t)

	sel := s.PointerDown(geom.Pt(400, 300), Modifiers{})
	assert.Equal(t, ShapeSelected, sel.State)
	assert.Equal(t, Ref{Kind: document.KindRect, Index: 0}, sel.Ref)
	assert.True(t, s.Dragging())

	sel = s.PointerDown(geom.Pt(1800, 1000), Modifiers{})
	assert.Equal(t, Idle, sel.State)
}

func TestDragKeepsGrabOffset(t *testing.T) {
	s := sampleSession(t)
	r := s.Document().Rects[0]

	s.PointerDown(geom.Pt(390, 295), Modifiers{})
	v := s.Version()

	assert.False(t, s.PointerMove(geom.Pt(390, 295)), "zero-delta move")
	assert.Equal(t, geom.Pt(400, 300), r.Center)
	assert.Equal(t, v, s.Version())

	assert.True(t, s.PointerMove(geom.Pt(400, 300)))
	assert.Equal(t, geom.Pt(410, 305), r.Center)

	s.PointerMove(geom.Pt(-500, -500))
	assert.Equal(t, geom.Pt(0, 0), r.Center)

	s.PointerUp()
	assert.False(t, s.PointerMove(geom.Pt(600, 600)))
	assert.Equal(t, ShapeSelected, s.Selection().State)
}

func TestDragVertex(t *testing.T) {
	s := sampleSession(t)
	walk := s.Document().Polygons[0]

	sel := s.PointerDown(geom.Pt(752, 481), Modifiers{})
	require.Equal(t, VertexSelected, sel.State)
	assert.Equal(t, 2, sel.Vertex)

	s.PointerMove(geom.Pt(762, 491))
	assert.Equal(t, geom.Pt(760, 490), walk.Points[2])
	assert.Equal(t, geom.Pt(250, 480), walk.Points[0])
}

func TestVertexFloor(t *testing.T) {
	s := sampleSession(t)
	walk := s.Document().Polygons[0]

	s.PointerDown(geom.Pt(750, 480), Modifiers{})
	require.NoError(t, s.DeleteVertex())
	assert.Len(t, walk.Points, 2)
	assert.Equal(t, 1, s.Selection().Vertex)

	err := s.DeleteVertex()
	assert.ErrorIs(t, err, ErrVertexFloor)
	assert.Len(t, walk.Points, 2)

	s.SetLayer(LayerZones)
	zone := &document.Category{Name: "tri", Points: []geom.Point{geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(0, 100)}}
	s.Document().Categories = append(s.Document().Categories, zone)
	s.PointerDown(geom.Pt(100, 0), Modifiers{})
	require.Equal(t, VertexSelected, s.Selection().State)
	assert.ErrorIs(t, s.Delete(), ErrVertexFloor)
	assert.Len(t, zone.Points, 3)
}

func TestInsertVertexWithModifier(t *testing.T) {
	s := sampleSession(t)
	walk := s.Document().Polygons[0]

	s.PointerDown(geom.Pt(250, 480), Modifiers{})
	require.Equal(t, 0, s.Selection().Vertex)

	sel := s.PointerDown(geom.Pt(300, 500), Modifiers{Insert: true})
	assert.Equal(t, VertexSelected, sel.State)
	assert.Equal(t, 1, sel.Vertex)
	assert.Equal(t, []geom.Point{geom.Pt(250, 480), geom.Pt(300, 500), geom.Pt(350, 380), geom.Pt(750, 480)}, walk.Points)
}

func TestZonesLayerLeavesBoothsAlone(t *testing.T) {
	s := sampleSession(t)
	s.SetLayer(LayerZones)

	hit, ok := s.HitTest(geom.Pt(400, 300))
	require.True(t, ok)
	assert.Equal(t, document.KindCategory, hit.Shape.Kind())

	s.SetLayer(LayerMap)
	hit, ok = s.HitTest(geom.Pt(400, 300))
	require.True(t, ok)
	assert.Equal(t, document.KindRect, hit.Shape.Kind())
}

func TestMultiSelect(t *testing.T) {
	s := sampleSession(t)
	beer, food := geom.Pt(400, 300), geom.Pt(520, 300)

	s.PointerDown(beer, Modifiers{})
	sel := s.PointerDown(food, Modifiers{Multi: true})
	assert.Equal(t, MultiSelected, sel.State)
	assert.Equal(t, []int{0, 1}, sel.Multi)

	sel = s.PointerDown(food, Modifiers{Multi: true})
	assert.Equal(t, []int{0}, sel.Multi)

	sel = s.PointerDown(beer, Modifiers{Multi: true})
	assert.Equal(t, Idle, sel.State)

	// Ctrl-clicking the active booth promotes it.
	s.PointerDown(beer, Modifiers{})
	sel = s.PointerDown(beer, Modifiers{Multi: true})
	assert.Equal(t, MultiSelected, sel.State)
	assert.Equal(t, []int{0}, sel.Multi)
}

func TestMultiNudgeMovesTogether(t *testing.T) {
	s := sampleSession(t)
	s.PointerDown(geom.Pt(400, 300), Modifiers{})
	s.PointerDown(geom.Pt(520, 300), Modifiers{Multi: true})

	moved := s.Nudge(0, nudge.Keys{Right: true}, NudgeModifiers{})
	assert.True(t, moved)
	assert.Equal(t, geom.Pt(405, 300), s.Document().Rects[0].Center)
	assert.Equal(t, geom.Pt(525, 300), s.Document().Rects[1].Center)

	// Held, not yet due.
	assert.False(t, s.Nudge(100_000_000, nudge.Keys{Right: true}, NudgeModifiers{}))
	// Held past the map delay.
	assert.True(t, s.Nudge(600_000_000, nudge.Keys{Right: true}, NudgeModifiers{}))
	assert.Equal(t, geom.Pt(410, 300), s.Document().Rects[0].Center)
}

func TestNudgeLabelAllowsNegative(t *testing.T) {
	s := sampleSession(t)
	r := s.Document().Rects[0]
	s.PointerDown(geom.Pt(400, 300), Modifiers{})
	s.ToggleSpace()
	require.True(t, r.NameEdit)

	s.Nudge(0, nudge.Keys{Up: true}, NudgeModifiers{})
	assert.Equal(t, geom.Pt(20, -15), r.NamePos)
	assert.Equal(t, geom.Pt(400, 300), r.Center)

	s.Deselect()
	assert.False(t, r.NameEdit)
}

func TestDeleteAndUndo(t *testing.T) {
	s := sampleSession(t)
	assert.ErrorIs(t, s.Undo(), ErrNothingToUndo)
	assert.ErrorIs(t, s.Delete(), ErrNothingSelected)

	beer := s.Document().Rects[0]
	s.PointerDown(geom.Pt(400, 300), Modifiers{})
	require.NoError(t, s.Delete())
	assert.Len(t, s.Document().Rects, 1)
	assert.Equal(t, Idle, s.Selection().State)
	assert.True(t, s.CanUndo())

	require.NoError(t, s.Undo())
	assert.Len(t, s.Document().Rects, 2)
	assert.Same(t, beer, s.Document().Rects[1])
	assert.Equal(t, Ref{Kind: document.KindRect, Index: 1}, s.Selection().Ref)
	assert.False(t, s.CanUndo())
}

func TestUndoSlotHoldsOnlyLastDelete(t *testing.T) {
	s := NewSession(rectsAt(geom.Pt(100, 100), geom.Pt(300, 100)))
	first := s.Document().Rects[0]

	require.NoError(t, s.Select(Ref{Kind: document.KindRect, Index: 0}))
	require.NoError(t, s.Delete())
	require.NoError(t, s.Select(Ref{Kind: document.KindRect, Index: 0}))
	require.NoError(t, s.Delete())

	require.NoError(t, s.Undo())
	assert.NotSame(t, first, s.Document().Rects[0])
	assert.ErrorIs(t, s.Undo(), ErrNothingToUndo)
}

func TestLockedTextRefusesDelete(t *testing.T) {
	s := sampleSession(t)
	require.NoError(t, s.Select(Ref{Kind: document.KindText, Index: 0}))
	assert.ErrorIs(t, s.Delete(), ErrLocked)
	assert.Len(t, s.Document().Texts, 1)
}

func TestTabCyclesByPosition(t *testing.T) {
	s := NewSession(rectsAt(geom.Pt(300, 100), geom.Pt(100, 100), geom.Pt(200, 50)))

	s.Tab(false)
	assert.Equal(t, 0, s.Selection().Ref.Index)
	s.Tab(false)
	assert.Equal(t, 1, s.Selection().Ref.Index, "wraps to the leftmost booth")
	s.Tab(false)
	assert.Equal(t, 2, s.Selection().Ref.Index)
	s.Tab(true)
	assert.Equal(t, 1, s.Selection().Ref.Index)
}

func TestTabCyclesVertices(t *testing.T) {
	s := sampleSession(t)
	s.PointerDown(geom.Pt(750, 480), Modifiers{})
	s.Tab(false)
	assert.Equal(t, 0, s.Selection().Vertex)
	s.Tab(true)
	assert.Equal(t, 2, s.Selection().Vertex)
}

func TestInsert(t *testing.T) {
	s := sampleSession(t)

	require.NoError(t, s.Insert(document.KindRect))
	created := s.Document().Rects[2]
	assert.Equal(t, "Rect3", created.Name)
	assert.Equal(t, geom.Pt(960, 540), created.Center)

	require.NoError(t, s.Insert(""))
	clone := s.Document().Rects[3]
	assert.Equal(t, geom.Pt(980, 560), clone.Center)
	assert.Equal(t, created.Size, clone.Size)
	assert.Same(t, clone, s.Active())

	require.NoError(t, s.Insert(document.KindText))
	assert.Equal(t, "Label2", s.Document().Texts[1].Text)

	assert.Error(t, s.Insert(document.KindCategory), "zones belong to the zones layer")

	s.SetLayer(LayerZones)
	require.NoError(t, s.Insert(""))
	assert.Equal(t, "cat_3", s.Document().Categories[2].Name)
	require.NoError(t, s.Insert(""))
	dup := s.Document().Categories[3]
	assert.Equal(t, geom.Pt(940, 520), dup.Points[0])
}

func TestInsertPolylineVertexAfterSelected(t *testing.T) {
	s := sampleSession(t)
	s.PointerDown(geom.Pt(350, 380), Modifiers{})
	require.Equal(t, 1, s.Selection().Vertex)

	require.NoError(t, s.Insert(""))
	walk := s.Document().Polygons[0]
	assert.Len(t, walk.Points, 4)
	assert.Equal(t, geom.Pt(380, 380), walk.Points[2])
	assert.Equal(t, 2, s.Selection().Vertex)
}

func TestRotateLabelOpposesBody(t *testing.T) {
	s := sampleSession(t)
	r := s.Document().Rects[0]
	s.PointerDown(geom.Pt(400, 300), Modifiers{})

	require.NoError(t, s.Rotate(5))
	assert.Equal(t, 5.0, r.Angle)
	require.NoError(t, s.Rotate(-10))
	assert.Equal(t, 355.0, r.Angle)

	s.ToggleSpace()
	require.NoError(t, s.Rotate(5))
	assert.Equal(t, 355.0, r.NameAngle)
	assert.Equal(t, 355.0, r.Angle)
}

func TestResizeAndFontSizeFloors(t *testing.T) {
	s := sampleSession(t)
	r := s.Document().Rects[0]
	assert.ErrorIs(t, s.Resize(1, 1), ErrNothingSelected)

	s.PointerDown(geom.Pt(400, 300), Modifiers{})
	require.NoError(t, s.Resize(-1000, 10))
	assert.Equal(t, geom.Size{W: 1, H: 50}, r.Size)

	require.NoError(t, s.FontSize(-100))
	assert.Equal(t, 1, r.FontSize)
}

func TestAutoNumber(t *testing.T) {
	doc := rectsAt(geom.Pt(300, 100), geom.Pt(100, 200), geom.Pt(100, 100), geom.Pt(50, 50))
	doc.Rects[3].Classification = document.ClassFood
	s := NewSession(doc)

	n, err := s.AutoNumber(document.ClassBeer)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, document.Tag("3"), doc.Rects[0].No)
	assert.Equal(t, document.Tag("2"), doc.Rects[1].No)
	assert.Equal(t, document.Tag("1"), doc.Rects[2].No)

	_, err = s.AutoNumber(document.ClassFood)
	require.NoError(t, err)
	assert.Equal(t, document.Tag("A"), doc.Rects[3].No)

	_, err = s.AutoNumber("Text")
	assert.ErrorIs(t, err, ErrUnsupportedClassification)
}

func TestAlphaLabel(t *testing.T) {
	tests := map[int]string{0: "A", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for in, want := range tests {
		assert.Equal(t, want, AlphaLabel(in), "index %d", in)
	}
}

func TestAssignColor(t *testing.T) {
	s := sampleSession(t)
	red := document.Color{R: 255}
	assert.Equal(t, 1, s.AssignColor(document.ClassFood, red))
	assert.Equal(t, red, s.Document().Rects[1].Color)
	assert.NotEqual(t, red, s.Document().Rects[0].Color)
	assert.Equal(t, 0, s.AssignColor(document.ClassFood, red))
}

func TestUpdatePatch(t *testing.T) {
	s := sampleSession(t)
	ref := Ref{Kind: document.KindRect, Index: 0}
	r := s.Document().Rects[0]

	require.NoError(t, s.Update(ref, json.RawMessage(`{"name":"Bar","power":750}`)))
	assert.Equal(t, "Bar", r.Name)
	assert.Equal(t, 750, r.Power.Int())
	assert.Equal(t, geom.Pt(400, 300), r.Center)
	assert.Same(t, r, s.Document().Rects[0])

	err := s.Update(ref, json.RawMessage(`{"center":"nowhere"}`))
	assert.Error(t, err)
	assert.Equal(t, geom.Pt(400, 300), r.Center)

	assert.Error(t, s.Update(ref, json.RawMessage(`{"colour":[1,2,3]}`)), "unknown field")
	assert.Equal(t, "Bar", r.Name)

	assert.ErrorIs(t, s.Update(Ref{Kind: document.KindRect, Index: 9}, json.RawMessage(`{}`)), ErrNoSuchShape)
}

func TestUpdateKeepsVertexFloor(t *testing.T) {
	s := sampleSession(t)
	zone := Ref{Kind: document.KindCategory, Index: 0}
	before := len(s.Document().Categories[0].Points)
	require.GreaterOrEqual(t, before, document.MinCategoryVertices)

	tests := []struct {
		name  string
		ref   Ref
		patch string
	}{
		{"zone emptied", zone, `{"points":[]}`},
		{"zone down to two", zone, `{"points":[[0,0],[10,0]]}`},
		{"polyline down to one", Ref{Kind: document.KindPolygon, Index: 0}, `{"points":[[0,0]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v0 := s.Version()
			assert.ErrorIs(t, s.Update(tt.ref, json.RawMessage(tt.patch)), ErrVertexFloor)
			assert.Equal(t, v0, s.Version())
		})
	}
	assert.Len(t, s.Document().Categories[0].Points, before)

	require.NoError(t, s.Update(zone, json.RawMessage(`{"points":[[0,0],[10,0],[10,10]]}`)))
	assert.Len(t, s.Document().Categories[0].Points, 3)
}

func TestRevalidateAcrossSessions(t *testing.T) {
	doc := document.NewSampleDocument()
	a, b := NewSession(doc), NewSession(doc)

	require.NoError(t, a.Select(Ref{Kind: document.KindRect, Index: 1}))
	require.NoError(t, b.Select(Ref{Kind: document.KindRect, Index: 0}))
	require.NoError(t, b.Delete())

	a.Revalidate()
	assert.Equal(t, Ref{Kind: document.KindRect, Index: 0}, a.Selection().Ref, "selection follows the shape")

	require.NoError(t, b.Select(Ref{Kind: document.KindRect, Index: 0}))
	require.NoError(t, b.Delete())
	a.Revalidate()
	assert.Equal(t, Idle, a.Selection().State)
}

func TestDescribe(t *testing.T) {
	s := sampleSession(t)
	_, ok := s.Describe()
	assert.False(t, ok)

	s.PointerDown(geom.Pt(520, 300), Modifiers{})
	info, ok := s.Describe()
	require.True(t, ok)
	assert.Equal(t, "testB", info.Name)
	assert.Equal(t, []string{"North"}, info.Zones)
	assert.Equal(t, "1200", info.Power)
	assert.Equal(t, geom.Pt(540, 290), info.LabelPosition)

	s.PointerDown(geom.Pt(400, 300), Modifiers{Multi: true})
	info, _ = s.Describe()
	assert.Equal(t, "testB, testA", info.Name)
	assert.Equal(t, 2, info.Count)
}

func TestReport(t *testing.T) {
	rep := sampleSession(t).Report()
	assert.Equal(t, 1700, rep.Total)
	assert.Equal(t, []string{"Fire lane"}, rep.Alerts)
}

func TestApplyOps(t *testing.T) {
	s := sampleSession(t)
	require.NoError(t, s.Apply(Op{Type: OpPointerDown, Point: geom.Pt(400, 300)}))
	require.NoError(t, s.Apply(Op{Type: OpRotate}))
	assert.Equal(t, 5.0, s.Document().Rects[0].Angle)

	require.NoError(t, s.Apply(Op{Type: OpLayer, Layer: "zones"}))
	assert.Equal(t, LayerZones, s.Layer())
	assert.Equal(t, Idle, s.Selection().State)

	assert.Error(t, s.Apply(Op{Type: "cmd.explode"}))
	assert.False(t, Op{Type: OpTab}.Mutates())
	assert.True(t, Op{Type: OpDelete}.Mutates())
}

func TestBuildSceneGraph(t *testing.T) {
	s := sampleSession(t)
	s.PointerDown(geom.Pt(400, 300), Modifiers{})

	sg := BuildSceneGraph(s)
	require.Len(t, sg.Nodes, 6)

	var booth *SceneNode
	for _, n := range sg.Nodes {
		if n.Type == "booth" && n.Ref.Index == 0 {
			booth = n
		}
	}
	require.NotNil(t, booth)
	assert.True(t, booth.Selected)
	assert.Equal(t, "155,55,155", booth.Fill, "active booth shows the complement")
	assert.Equal(t, "80,80,80", booth.Stroke)
	assert.Len(t, booth.Path, 5)

	s.ToggleTentHighlight()
	booth = findNode(BuildSceneGraph(s), "booth", 0)
	require.NotNil(t, booth)
	assert.Equal(t, "255,0,0", booth.Stroke, "tent outline wins over the active outline")
}

func findNode(sg *SceneGraph, typ string, index int) *SceneNode {
	for _, n := range sg.Nodes {
		if n.Type == typ && n.Ref.Index == index {
			return n
		}
	}
	return nil
}

func countNodes(sg *SceneGraph, typ string) int {
	n := 0
	for _, node := range sg.Nodes {
		if node.Type == typ {
			n++
		}
	}
	return n
}

func TestTentHighlight(t *testing.T) {
	s := sampleSession(t)
	v := s.Version()

	require.NoError(t, s.Apply(Op{Type: OpTentHighlight}))
	assert.True(t, s.TentHighlight())

	sg := BuildSceneGraph(s)
	assert.True(t, sg.TentHighlight)
	assert.Equal(t, "255,0,0", findNode(sg, "booth", 0).Stroke, "booth with a tent")
	assert.Equal(t, "0,0,0", findNode(sg, "booth", 1).Stroke, "booth without a tent")

	require.NoError(t, s.Apply(Op{Type: OpTentHighlight}))
	assert.False(t, s.TentHighlight())
	assert.Equal(t, "0,0,0", findNode(BuildSceneGraph(s), "booth", 0).Stroke)
	assert.Equal(t, v, s.Version(), "view toggles leave the document alone")
}

func TestHideZones(t *testing.T) {
	s := sampleSession(t)
	v := s.Version()
	require.Equal(t, 2, countNodes(BuildSceneGraph(s), "zone"))

	require.NoError(t, s.Apply(Op{Type: OpHideZones, TimeMS: 1000}))
	assert.True(t, s.ZonesHidden())
	sg := BuildSceneGraph(s)
	assert.True(t, sg.ZonesHidden)
	assert.Zero(t, countNodes(sg, "zone"))
	assert.Equal(t, 2, countNodes(sg, "booth"))

	tests := []struct {
		name   string
		timeMS int64
		hidden bool
	}{
		{"clock behind", 500, true},
		{"just before expiry", 5999, true},
		{"expired", 6000, false},
		{"later", 9000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.Apply(Op{Type: OpTick, TimeMS: tt.timeMS}))
			assert.Equal(t, tt.hidden, s.ZonesHidden())
		})
	}
	assert.Equal(t, 2, countNodes(BuildSceneGraph(s), "zone"))
	assert.Equal(t, v, s.Version())

	for _, typ := range []string{OpTentHighlight, OpHideZones, OpTick} {
		assert.False(t, Op{Type: typ}.Mutates(), typ)
	}
}

func TestTickReportsVisibilityChange(t *testing.T) {
	s := sampleSession(t)
	assert.False(t, s.Tick(time.Second))

	s.HideZones(2 * time.Second)
	assert.False(t, s.Tick(3*time.Second))
	assert.True(t, s.Tick(7*time.Second))
	assert.False(t, s.Tick(8*time.Second))
}

func TestEngineRenderFollowsViewToggles(t *testing.T) {
	e := NewEngine()
	e.LoadSampleDocument()

	before := e.Render()
	assert.Contains(t, before, `"type":"zone"`)

	require.NoError(t, e.Apply(`{"type":"cmd.tent_highlight"}`))
	assert.Contains(t, e.Render(), `"tentHighlight":true`)

	require.NoError(t, e.Apply(`{"type":"cmd.hide_zones","time_ms":100}`))
	hidden := e.Render()
	assert.Contains(t, hidden, `"zonesHidden":true`)
	assert.NotContains(t, hidden, `"type":"zone"`)

	require.NoError(t, e.Apply(`{"type":"cmd.tick","time_ms":5100}`))
	assert.Contains(t, e.Render(), `"type":"zone"`)
}

func TestEngineWindowMapping(t *testing.T) {
	e := NewEngine()
	e.LoadSampleDocument()
	e.SetWindowSize(960, 540)

	e.PointerDown(200, 150, Modifiers{})
	assert.Contains(t, e.GetSelection(), `"state":"shape"`)
	assert.Contains(t, e.Render(), `"type":"booth"`)
	assert.Contains(t, e.GetInfo(), `"name":"testA"`)

	e.PointerMove(205, 150)
	assert.Equal(t, geom.Pt(410, 300), e.Session().Document().Rects[0].Center)
	assert.Equal(t, "", e.HitTest(10, 10000))
}
