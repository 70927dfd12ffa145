package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/harveysanders/gairidisplay/facepanel/hittest"
	"tinygo.org/x/drivers/touch"
)

func TestDefault_Valid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.FrameCapacity != 1024 || c.Debounce != 300*time.Millisecond || c.Yield != 10*time.Millisecond {
		t.Errorf("unexpected defaults %+v", c)
	}
	if c.WiFi.Enabled() {
		t.Error("wifi should be disabled without linker flags")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"zero baud", func(c *Config) { c.BaudRate = 0 }},
		{"small frame", func(c *Config) { c.FrameCapacity = 100 }},
		{"huge frame", func(c *Config) { c.FrameCapacity = 1 << 20 }},
		{"zero yield", func(c *Config) { c.Yield = 0 }},
		{"tall buttons", func(c *Config) { c.ButtonHeight = 240 }},
		{"flat calibration", func(c *Config) { c.Calibration.MaxX = c.Calibration.MinX }},
		{"calibration size", func(c *Config) { c.Calibration.Width = 480 }},
		{"pressure", func(c *Config) { c.Pressure = hittest.PressureRange{Min: 10, Max: 5} }},
		{"negative debounce", func(c *Config) { c.Debounce = -time.Second }},
		{"backlight", func(c *Config) { c.Backlight = 150 }},
		{"broker without wifi", func(c *Config) { c.MQTT.Broker = "10.0.0.9:1883" }},
		{"empty topic", func(c *Config) {
			c.WiFi.SSID = "home"
			c.MQTT.Broker = "10.0.0.9:1883"
			c.MQTT.TxTopic = ""
		}},
		{"zero depth", func(c *Config) {
			c.WiFi.SSID = "home"
			c.MQTT.Broker = "10.0.0.9:1883"
			c.MQTT.Depth = 0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	c := Default()
	c.WiFi.SSID = "home"
	c.MQTT.Broker = "broker.local:1883"
	if err := c.Validate(); err != nil {
		t.Errorf("expected mirror config to validate, got %v", err)
	}
}

func TestDetector_DefaultCalibrationHitsButtons(t *testing.T) {
	c := Default()
	targets := c.Targets()
	d := c.Detector(targets)

	// Invert the calibration to find the raw sample for a screen point.
	raw := func(x, y int) touch.Point {
		cal := c.Calibration
		rx := cal.MinX + x*(cal.MaxX-cal.MinX)/cal.Width
		ry := cal.MinY + y*(cal.MaxY-cal.MinY)/cal.Height
		// Map swaps axes, so the raw sample carries them swapped.
		return touch.Point{X: ry + 1, Y: rx + 1, Z: 20000}
	}

	now := time.Now()
	for i, want := range targets {
		r := want.Rect
		got, ok := d.Tap(raw(int(r.X+r.W/2), int(r.Y+r.H/2)), now.Add(time.Duration(i)*time.Second))
		if !ok || got.ID != want.ID {
			t.Errorf("expected %s, got %s (ok=%v)", want.ID, got.ID, ok)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
