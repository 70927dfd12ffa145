// Package config holds the face panel's build-time settings.
//
// Secrets and site-specific values are injected with linker flags, the same
// way the WiFi credentials are:
//
//	tinygo flash -target=pico-w -ldflags="-X 'github.com/harveysanders/gairidisplay/facepanel/config.ssid=home' -X '...config.broker=10.0.0.9:1883'" ./facepanel
//
// Everything else has a default suited to a 320x240 ILI9341 panel with an
// XPT2046 touch controller.
package config

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/harveysanders/gairidisplay/facepanel/hittest"
	"github.com/harveysanders/gairidisplay/facepanel/protocol"
	"tinygo.org/x/drivers"
)

// Set via -ldflags "-X".
var (
	ssid     string
	pass     string
	broker   string
	mqttUser string
	mqttPass string
	logLevel string
)

type WiFi struct {
	SSID     string
	Password string
	Hostname string
}

// Enabled reports whether an SSID was provided at build time.
func (w WiFi) Enabled() bool { return w.SSID != "" }

// MQTT configures the optional event mirror.
type MQTT struct {
	// Broker is host:port. Empty disables the mirror.
	Broker   string
	ClientID string
	Username string
	Password string
	// RxTopic receives every frame from the host, TxTopic every frame the
	// panel sends.
	RxTopic           string
	TxTopic           string
	Timeout           time.Duration
	TCPBufSize        int
	HeartbeatInterval time.Duration
	// Depth is how many frames the mirror queues before dropping.
	Depth int
}

type Config struct {
	Width    int16
	Height   int16
	Rotation drivers.Rotation

	BaudRate      uint32
	FrameCapacity int
	Yield         time.Duration

	ButtonHeight int16
	ButtonMargin int16
	Calibration  hittest.Calibration
	Pressure     hittest.PressureRange
	Debounce     time.Duration

	// Backlight is the display backlight duty cycle in percent.
	Backlight uint8
	// BacklightKnob lets a potentiometer on ADC0 override Backlight.
	BacklightKnob bool
	// Monitor enables the 16x2 I2C link monitor LCD.
	Monitor bool

	LogLevel slog.Level
	WiFi     WiFi
	MQTT     MQTT
}

// Default returns the configuration used by the firmware, with linker flag
// values applied.
func Default() Config {
	c := Config{
		Width:         320,
		Height:        240,
		Rotation:      drivers.Rotation90,
		BaudRate:      115200,
		FrameCapacity: protocol.DefaultCapacity,
		Yield:         10 * time.Millisecond,
		ButtonHeight:  40,
		ButtonMargin:  6,
		// XPT2046 samples are scaled to 16 bits; the panel is mounted
		// landscape so the controller's axes are swapped.
		Calibration: hittest.Calibration{
			MinX: 3800, MaxX: 61000,
			MinY: 5200, MaxY: 60500,
			Width: 320, Height: 240,
			SwapXY: true,
		},
		// The XPT2046 reports Z as 0 when untouched and very large values
		// for glancing contact.
		Pressure:  hittest.PressureRange{Min: 200, Max: 65535},
		Debounce:  300 * time.Millisecond,
		Backlight: 80,
		Monitor:   true,
		LogLevel:  slog.LevelInfo,
		WiFi: WiFi{
			SSID:     ssid,
			Password: pass,
			Hostname: "gairi-panel",
		},
		MQTT: MQTT{
			Broker:            broker,
			ClientID:          "gairi-panel",
			Username:          mqttUser,
			Password:          mqttPass,
			RxTopic:           "gairi/display/rx",
			TxTopic:           "gairi/display/tx",
			Timeout:           5 * time.Second,
			TCPBufSize:        2030, // MTU - ethhdr - iphdr - tcphdr
			HeartbeatInterval: 30 * time.Second,
			Depth:             8,
		},
	}
	if logLevel != "" {
		if l, err := ParseLevel(logLevel); err == nil {
			c.LogLevel = l
		}
	}
	return c
}

// Validate reports the first setting the firmware cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return errors.New("config: screen size must be positive")
	case c.BaudRate == 0:
		return errors.New("config: zero baud rate")
	case c.FrameCapacity < protocol.MinCapacity || c.FrameCapacity > protocol.MaxCapacity:
		return errors.New("config: frame capacity out of range: " + strconv.Itoa(c.FrameCapacity))
	case c.Yield <= 0:
		return errors.New("config: yield must be positive")
	case c.ButtonHeight <= 0 || c.ButtonMargin < 0 || 2*c.ButtonMargin+c.ButtonHeight > c.Height:
		return errors.New("config: buttons do not fit on screen")
	case c.Calibration.MinX == c.Calibration.MaxX || c.Calibration.MinY == c.Calibration.MaxY:
		return errors.New("config: degenerate touch calibration")
	case c.Calibration.Width != int(c.Width) || c.Calibration.Height != int(c.Height):
		return errors.New("config: touch calibration does not match screen size")
	case c.Pressure.Min > c.Pressure.Max:
		return errors.New("config: empty pressure range")
	case c.Debounce < 0:
		return errors.New("config: negative debounce")
	case c.Backlight > 100:
		return errors.New("config: backlight above 100%")
	case c.MQTT.Broker != "" && !c.WiFi.Enabled():
		return errors.New("config: mqtt broker set without wifi credentials")
	case c.MQTT.Broker != "" && (c.MQTT.RxTopic == "" || c.MQTT.TxTopic == ""):
		return errors.New("config: empty mqtt topic")
	case c.MQTT.Broker != "" && c.MQTT.Depth <= 0:
		return errors.New("config: mqtt mirror depth must be positive")
	}
	return nil
}

// Targets returns the touch buttons laid out for this screen.
func (c Config) Targets() []hittest.Target {
	return hittest.ButtonRow(c.Width, c.Height, c.ButtonHeight, c.ButtonMargin)
}

// Detector returns a tap detector for targets.
func (c Config) Detector(targets []hittest.Target) *hittest.Detector {
	return &hittest.Detector{
		Calibration: c.Calibration,
		Pressure:    c.Pressure,
		Targets:     targets,
		Debounce:    hittest.Debouncer{Interval: c.Debounce},
	}
}

// ParseLevel parses a slog level name such as "debug" or "WARN+2".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, errors.New("config: log level: " + err.Error())
	}
	return l, nil
}
