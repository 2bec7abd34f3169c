package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/geom"
	"github.com/boothmap/boothmap/internal/nudge"
)

// Op types accepted by Apply.
const (
	OpPointerDown  = "pointer.down"
	OpPointerMove  = "pointer.move"
	OpPointerUp    = "pointer.up"
	OpKeyNudge     = "key.nudge"
	OpSelect       = "cmd.select"
	OpDeselect     = "cmd.deselect"
	OpCancel       = "cmd.cancel"
	OpInsert       = "cmd.insert"
	OpDelete       = "cmd.delete"
	OpDeleteVertex = "cmd.delete_vertex"
	OpUndo         = "cmd.undo"
	OpTab          = "cmd.tab"
	OpToggle       = "cmd.toggle"
	OpRotate       = "cmd.rotate"
	OpResize       = "cmd.resize"
	OpFontSize     = "cmd.font_size"
	OpLayer        = "cmd.layer"
	OpAssignColor  = "cmd.assign_color"
	OpAutoNumber   = "cmd.auto_number"
	OpShapeUpdate  = "shape.update"

	// View ops change only what this session draws.
	OpTentHighlight = "cmd.tent_highlight"
	OpHideZones     = "cmd.hide_zones"
	OpTick          = "cmd.tick"
)

// Op is one serialised user action. Only the fields its Type uses are read.
type Op struct {
	Type string `json:"type"`

	// Pointer position in canvas units.
	Point geom.Point `json:"point"`
	Mods  Modifiers  `json:"mods"`

	// TimeMS stamps nudge, hide and tick ops in milliseconds on a
	// monotonic clock.
	TimeMS    int64           `json:"time_ms"`
	Keys      nudge.Keys      `json:"keys"`
	NudgeMods NudgeModifiers  `json:"nudge_mods"`
	Reverse   bool            `json:"reverse"`
	Kind      document.Kind   `json:"kind"`
	Ref       Ref             `json:"ref"`
	Delta     float64         `json:"delta"`
	DW        float64         `json:"dw"`
	DH        float64         `json:"dh"`
	Layer     string          `json:"layer"`
	Class     string          `json:"classification"`
	Color     document.Color  `json:"color"`
	Patch     json.RawMessage `json:"patch,omitempty"`
}

// Time converts TimeMS to a duration on the session clock.
func (op Op) Time() time.Duration { return time.Duration(op.TimeMS) * time.Millisecond }

// Mutates reports whether an op of this type may change the document, as
// opposed to only the session's own selection.
func (op Op) Mutates() bool {
	switch op.Type {
	case OpSelect, OpDeselect, OpCancel, OpTab, OpToggle, OpLayer, OpPointerUp,
		OpTentHighlight, OpHideZones, OpTick:
		return false
	}
	return true
}

// Apply dispatches op to the matching session method.
func (s *Session) Apply(op Op) error {
	switch op.Type {
	case OpPointerDown:
		s.PointerDown(op.Point, op.Mods)
	case OpPointerMove:
		s.PointerMove(op.Point)
	case OpPointerUp:
		s.PointerUp()
	case OpKeyNudge:
		s.Nudge(op.Time(), op.Keys, op.NudgeMods)
	case OpSelect:
		return s.Select(op.Ref)
	case OpDeselect:
		s.Deselect()
	case OpCancel:
		s.Cancel()
	case OpInsert:
		return s.Insert(op.Kind)
	case OpDelete:
		return s.Delete()
	case OpDeleteVertex:
		return s.DeleteVertex()
	case OpUndo:
		return s.Undo()
	case OpTab:
		s.Tab(op.Reverse)
	case OpToggle:
		s.ToggleSpace()
	case OpRotate:
		delta := op.Delta
		if delta == 0 {
			delta = s.settings.RotateStep
		}
		return s.Rotate(delta)
	case OpResize:
		return s.Resize(op.DW, op.DH)
	case OpFontSize:
		return s.FontSize(int(op.Delta))
	case OpLayer:
		s.SetLayer(ParseLayer(op.Layer))
	case OpAssignColor:
		s.AssignColor(op.Class, op.Color)
	case OpAutoNumber:
		_, err := s.AutoNumber(op.Class)
		return err
	case OpShapeUpdate:
		return s.Update(op.Ref, op.Patch)
	case OpTentHighlight:
		s.ToggleTentHighlight()
	case OpHideZones:
		s.HideZones(op.Time())
	case OpTick:
		s.Tick(op.Time())
	default:
		return fmt.Errorf("unknown op type %q", op.Type)
	}
	return nil
}
