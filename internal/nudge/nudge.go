// Package nudge moves points with the arrow keys. Every move snaps the
// moved axis to a grid of the active step so repeated presses land on
// round coordinates.
package nudge

import (
	"math"
	"time"

	"github.com/boothmap/boothmap/internal/geom"
)

// Keys is the pressed state of the four arrow keys.
type Keys struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
	Up    bool `json:"up"`
	Down  bool `json:"down"`
}

// Any reports whether at least one arrow is held.
func (k Keys) Any() bool { return k.Left || k.Right || k.Up || k.Down }

// Steps holds the three step sizes. Coarse wins over Fine when both
// modifiers are held.
type Steps struct {
	Base   float64 `yaml:"base"`
	Fine   float64 `yaml:"fine"`
	Coarse float64 `yaml:"coarse"`
}

// DefaultSteps are the editor's out-of-the-box step sizes.
var DefaultSteps = Steps{Base: 5, Fine: 10, Coarse: 50}

// Input is one frame's worth of keyboard state.
type Input struct {
	Now      time.Duration
	LastMove time.Duration
	// Delay is the auto-repeat interval for held keys.
	Delay time.Duration
	Keys  Keys
	Prev  Keys
	// Coarse and Fine are the step modifiers (Ctrl and Shift).
	Coarse bool
	Fine   bool
	Steps  Steps
	Bounds geom.Size
	// AllowNegative disables clamping, for offsets relative to a shape.
	AllowNegative bool
}

// Step returns the step size selected by the modifiers.
func (in Input) Step() float64 {
	switch {
	case in.Coarse:
		return in.Steps.Coarse
	case in.Fine:
		return in.Steps.Fine
	}
	return in.Steps.Base
}

type direction struct {
	held, prev bool
	dx, dy     float64
}

// Apply moves pos according to in and returns the new position and the new
// last-move timestamp. A freshly pressed arrow always moves; a held arrow
// moves once Delay has elapsed since the previous move. Each arrow is
// judged against the incoming timestamp, so diagonal holds repeat on both
// axes. With nothing pressed pos and LastMove come back unchanged.
func Apply(pos geom.Point, in Input) (geom.Point, time.Duration) {
	step := in.Step()
	if step <= 0 {
		return pos, in.LastMove
	}
	due := in.Now-in.LastMove >= in.Delay
	dirs := [...]direction{
		{in.Keys.Left, in.Prev.Left, -1, 0},
		{in.Keys.Right, in.Prev.Right, 1, 0},
		{in.Keys.Up, in.Prev.Up, 0, -1},
		{in.Keys.Down, in.Prev.Down, 0, 1},
	}

	x, y := pos.X, pos.Y
	last := in.LastMove
	for _, d := range dirs {
		if !d.held || (d.prev && !due) {
			continue
		}
		if d.dx != 0 {
			x = snap(x+d.dx*step, step)
		} else {
			y = snap(y+d.dy*step, step)
		}
		if !in.AllowNegative {
			x = geom.Clamp(x, 0, in.Bounds.W)
			y = geom.Clamp(y, 0, in.Bounds.H)
		}
		last = in.Now
	}
	return geom.Point{X: x, Y: y}, last
}

// ApplyShape nudges a whole vertex list. The first vertex is moved with
// Apply and every vertex follows by the same delta.
func ApplyShape(pts []geom.Point, in Input) ([]geom.Point, time.Duration) {
	if len(pts) == 0 {
		return pts, in.LastMove
	}
	moved, last := Apply(pts[0], in)
	d := moved.Sub(pts[0])
	if d == (geom.Point{}) {
		return pts, last
	}
	return geom.TranslateAll(pts, d), last
}

func snap(v, step float64) float64 {
	return math.RoundToEven(v/step) * step
}
