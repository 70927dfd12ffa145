// Package hittest turns raw touch controller samples into taps on the
// panel's fixed buttons.
package hittest

import (
	"time"

	"tinygo.org/x/drivers/touch"
)

// TargetID names one of the static touch targets.
type TargetID uint8

const (
	TargetNone TargetID = iota
	TargetPrevious
	TargetAction
	TargetNext
)

func (id TargetID) String() string {
	switch id {
	case TargetPrevious:
		return "previous"
	case TargetAction:
		return "action"
	case TargetNext:
		return "next"
	default:
		return "none"
	}
}

// Rect is a screen-space rectangle.
type Rect struct {
	X, Y, W, H int16
}

// Contains reports whether (x, y) lies inside r. The right and bottom
// edges are exclusive.
func (r Rect) Contains(x, y int) bool {
	return x >= int(r.X) && x < int(r.X)+int(r.W) &&
		y >= int(r.Y) && y < int(r.Y)+int(r.H)
}

// Target is a button on the screen.
type Target struct {
	ID    TargetID
	Rect  Rect
	Label string
}

// Calibration maps raw controller coordinates onto the screen.
// Min may be larger than Max for an inverted axis.
type Calibration struct {
	MinX, MaxX int
	MinY, MaxY int
	Width      int
	Height     int
	// SwapXY exchanges the raw axes before mapping, for panels mounted
	// rotated relative to the touch controller.
	SwapXY bool
}

// Map converts a raw sample to screen coordinates. The result is not
// clamped: an off-screen point simply misses every target.
func (c Calibration) Map(p touch.Point) (x, y int) {
	rx, ry := p.X, p.Y
	if c.SwapXY {
		rx, ry = ry, rx
	}
	x = (rx - c.MinX) * c.Width / (c.MaxX - c.MinX)
	y = (ry - c.MinY) * c.Height / (c.MaxY - c.MinY)
	return x, y
}

// PressureRange is the inclusive range of Z values that count as a touch.
type PressureRange struct {
	Min, Max int
}

// Contains reports whether z is a real press.
func (r PressureRange) Contains(z int) bool { return z >= r.Min && z <= r.Max }

// Resolve returns the first target containing (x, y).
func Resolve(targets []Target, x, y int) (Target, bool) {
	for _, t := range targets {
		if t.Rect.Contains(x, y) {
			return t, true
		}
	}
	return Target{}, false
}

// Debouncer is a global throttle shared by all targets.
type Debouncer struct {
	Interval time.Duration
	last     time.Time
	accepted bool
}

// Allow reports whether a tap at now is accepted and, if so, records it.
func (d *Debouncer) Allow(now time.Time) bool {
	if d.accepted && now.Sub(d.last) < d.Interval {
		return false
	}
	d.last = now
	d.accepted = true
	return true
}

// Detector chains pressure filtering, calibration, target resolution and
// debounce.
type Detector struct {
	Calibration Calibration
	Pressure    PressureRange
	Targets     []Target
	Debounce    Debouncer
}

// Tap resolves p into an accepted tap. Samples outside the pressure range,
// samples that miss every target and taps inside the debounce interval are
// all ignored without error.
func (d *Detector) Tap(p touch.Point, now time.Time) (Target, bool) {
	if !d.Pressure.Contains(p.Z) {
		return Target{}, false
	}
	x, y := d.Calibration.Map(p)
	t, ok := Resolve(d.Targets, x, y)
	if !ok {
		return Target{}, false
	}
	if !d.Debounce.Allow(now) {
		return Target{}, false
	}
	return t, true
}

// ButtonRow lays out the previous, action and next targets as three equal
// buttons along the bottom edge of a width x height screen.
func ButtonRow(width, height, buttonHeight, margin int16) []Target {
	w := (width - 4*margin) / 3
	y := height - margin - buttonHeight
	return []Target{
		{ID: TargetPrevious, Rect: Rect{X: margin, Y: y, W: w, H: buttonHeight}, Label: "< prev"},
		{ID: TargetAction, Rect: Rect{X: 2*margin + w, Y: y, W: w, H: buttonHeight}, Label: "action"},
		{ID: TargetNext, Rect: Rect{X: 3*margin + 2*w, Y: y, W: w, H: buttonHeight}, Label: "next >"},
	}
}
