package hittest

import (
	"testing"
	"time"

	"tinygo.org/x/drivers/touch"
)

var testCal = Calibration{MinX: 100, MaxX: 900, MinY: 100, MaxY: 900, Width: 320, Height: 240}

func testDetector() *Detector {
	return &Detector{
		Calibration: testCal,
		Pressure:    PressureRange{Min: 10, Max: 1000},
		Targets:     ButtonRow(320, 240, 40, 6),
		Debounce:    Debouncer{Interval: 300 * time.Millisecond},
	}
}

// rawFor inverts testCal so tests can aim at screen coordinates.
func rawFor(x, y, z int) touch.Point {
	return touch.Point{X: 100 + x*800/320, Y: 100 + y*800/240, Z: z}
}

func TestCalibration_Map(t *testing.T) {
	tests := []struct {
		raw    touch.Point
		wx, wy int
	}{
		{touch.Point{X: 100, Y: 100}, 0, 0},
		{touch.Point{X: 900, Y: 900}, 320, 240},
		{touch.Point{X: 500, Y: 500}, 160, 120},
		{touch.Point{X: 50, Y: 950}, -20, 255},
	}
	for _, tt := range tests {
		x, y := testCal.Map(tt.raw)
		if x != tt.wx || y != tt.wy {
			t.Errorf("Map(%d,%d) = (%d,%d), want (%d,%d)", tt.raw.X, tt.raw.Y, x, y, tt.wx, tt.wy)
		}
	}
}

func TestCalibration_InvertedAndSwapped(t *testing.T) {
	c := Calibration{MinX: 900, MaxX: 100, MinY: 100, MaxY: 900, Width: 320, Height: 240, SwapXY: true}
	// Raw Y drives screen X (inverted), raw X drives screen Y.
	x, y := c.Map(touch.Point{X: 100, Y: 900})
	if x != 0 || y != 0 {
		t.Errorf("expected (0,0), got (%d,%d)", x, y)
	}
}

func TestButtonRow_NoOverlap(t *testing.T) {
	targets := ButtonRow(320, 240, 40, 6)
	if len(targets) != 3 {
		t.Fatalf("expected 3 targets, got %d", len(targets))
	}
	for x := 0; x < 320; x++ {
		for y := 0; y < 240; y++ {
			hits := 0
			for _, tg := range targets {
				if tg.Rect.Contains(x, y) {
					hits++
				}
			}
			if hits > 1 {
				t.Fatalf("point (%d,%d) hits %d targets", x, y, hits)
			}
		}
	}
	for _, tg := range targets {
		if int(tg.Rect.X+tg.Rect.W) > 320 || int(tg.Rect.Y+tg.Rect.H) > 240 {
			t.Errorf("target %s extends off screen: %+v", tg.ID, tg.Rect)
		}
	}
}

func TestDetector_ResolvesTargets(t *testing.T) {
	d := testDetector()
	now := time.Unix(0, 0)
	for i, tg := range d.Targets {
		cx := int(tg.Rect.X + tg.Rect.W/2)
		cy := int(tg.Rect.Y + tg.Rect.H/2)
		got, ok := d.Tap(rawFor(cx, cy, 500), now.Add(time.Duration(i)*time.Second))
		if !ok {
			t.Fatalf("expected tap on %s", tg.ID)
		}
		if got.ID != tg.ID {
			t.Errorf("expected %s, got %s", tg.ID, got.ID)
		}
	}
}

func TestDetector_IgnoresPressureOutsideRange(t *testing.T) {
	d := testDetector()
	p := rawFor(160, 214, 0)
	if _, ok := d.Tap(p, time.Unix(0, 0)); ok {
		t.Error("expected zero-pressure sample to be ignored")
	}
	p.Z = 5000
	if _, ok := d.Tap(p, time.Unix(1, 0)); ok {
		t.Error("expected excessive pressure sample to be ignored")
	}
}

func TestDetector_MissIsSilent(t *testing.T) {
	d := testDetector()
	if _, ok := d.Tap(rawFor(160, 50, 500), time.Unix(0, 0)); ok {
		t.Error("expected miss above the button row")
	}
	// A miss does not start the debounce window.
	if _, ok := d.Tap(rawFor(160, 214, 500), time.Unix(0, int64(time.Millisecond))); !ok {
		t.Error("expected tap right after a miss to be accepted")
	}
}

func TestDetector_Debounce(t *testing.T) {
	d := testDetector()
	start := time.Unix(100, 0)
	prev := rawFor(50, 214, 500)
	next := rawFor(260, 214, 500)

	accepted := 0
	if _, ok := d.Tap(prev, start); ok {
		accepted++
	}
	// Different target, still inside the shared window.
	if _, ok := d.Tap(next, start.Add(299*time.Millisecond)); ok {
		accepted++
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted tap, got %d", accepted)
	}
	if _, ok := d.Tap(next, start.Add(300*time.Millisecond)); !ok {
		t.Error("expected tap at the interval boundary to be accepted")
	}
}

func TestTargetID_String(t *testing.T) {
	if TargetNext.String() != "next" || TargetNone.String() != "none" {
		t.Error("unexpected target names")
	}
}
