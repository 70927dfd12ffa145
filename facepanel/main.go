//go:build tinygo

// Command facepanel is the firmware for GairiHead's touch face panel: a
// Pico W driving a 320x240 ILI9341 display with an XPT2046 touch
// controller, talking to the host over USB serial.
//
// Wiring:
//
//	ILI9341  SCK GP18, SDO GP19, SDI GP16, CS GP17, DC GP20, RST GP21, LED GP22
//	XPT2046  CLK GP10, DIN GP11, DOUT GP12, CS GP13, IRQ GP14
//	HD44780  I2C0 SDA GP4, SCL GP5 (optional link monitor)
//	LED      GP15 (serial activity)
//	Knob     ADC0 / GP26 (optional backlight potentiometer)
//	Logs     UART1 TX GP8, RX GP9
package main

import (
	"context"
	"errors"
	"log/slog"
	"machine"
	"time"

	"github.com/harveysanders/gairidisplay/facepanel/config"
	"github.com/harveysanders/gairidisplay/facepanel/cyw43439"
	"github.com/harveysanders/gairidisplay/facepanel/dispatch"
	"github.com/harveysanders/gairidisplay/facepanel/lcd"
	"github.com/harveysanders/gairidisplay/facepanel/mqtt"
	"github.com/harveysanders/gairidisplay/facepanel/panel"
	"github.com/harveysanders/gairidisplay/facepanel/protocol"
	"github.com/harveysanders/gairidisplay/facepanel/view"
	"tinygo.org/x/drivers/hd44780i2c"
	"tinygo.org/x/drivers/ili9341"
	"tinygo.org/x/drivers/xpt2046"
)

func main() {
	cfg := config.Default()

	// The USB serial port belongs to the host protocol, so logs go to UART1.
	machine.UART1.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART1_TX_PIN,
		RX:       machine.UART1_RX_PIN,
	})
	logger := slog.New(slog.NewTextHandler(machine.UART1, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	if err := cfg.Validate(); err != nil {
		printErrForever(logger, "invalid config", slog.Any("reason", err))
	}

	err := machine.Serial.Configure(machine.UARTConfig{BaudRate: cfg.BaudRate})
	if err != nil {
		printErrForever(logger, "configure serial", slog.Any("reason", err))
	}

	display, err := configureDisplay(cfg)
	if err != nil {
		printErrForever(logger, "configure display", slog.Any("reason", err))
	}
	setBacklight, err := configureBacklight(machine.GP22)
	if err != nil {
		// The panel is still readable at full brightness.
		logger.Error("configure backlight", slog.Any("reason", err))
	} else {
		setBacklight(cfg.Backlight)
		if cfg.BacklightKnob {
			go followKnob(setBacklight)
		}
	}

	ts := xpt2046.New(machine.GP10, machine.GP13, machine.GP11, machine.GP12, machine.GP14)
	ts.Configure(&xpt2046.Config{Precision: 10})

	targets := cfg.Targets()
	loop := &dispatch.Loop{
		Port:      serialPort{machine.Serial},
		View:      view.New(panel.NewCanvas(display), targets, cfg.Width, cfg.Height),
		Framer:    protocol.NewFramer(cfg.FrameCapacity),
		Touch:     &ts,
		Detector:  cfg.Detector(targets),
		Logger:    logger,
		Yield:     cfg.Yield,
		Observers: []dispatch.Observer{newActivityLED(machine.GP15)},
	}

	var lcdMessages chan lcd.Message
	if cfg.Monitor {
		dev, err := configureLCD(machine.I2C0)
		if err != nil {
			logger.Error("link monitor disabled", slog.Any("reason", err))
		} else {
			lcdMessages = make(chan lcd.Message, 4)
			go lcd.NewHandler(dev, lcdMessages, logger).Run()
			lcd.Send(lcdMessages, "GairiHead panel", "waiting...")
			loop.Observers = append(loop.Observers, lcd.NewMonitor(lcdMessages))
		}
	}

	if cfg.WiFi.Enabled() && cfg.MQTT.Broker != "" {
		mirror := mqtt.NewMirror(cfg.MQTT.Depth)
		loop.Observers = append(loop.Observers, mirror)
		go runMirror(cfg, logger, mirror, lcdMessages)
	}

	logger.Info("facepanel:start",
		slog.Int("frameCap", loop.Framer.Cap()),
		slog.Int("observers", len(loop.Observers)),
	)
	err = loop.Run(context.Background())
	printErrForever(logger, "dispatch loop exited", slog.Any("reason", err))
}

func configureDisplay(cfg config.Config) (*ili9341.Device, error) {
	err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 40_000_000,
		SCK:       machine.GP18,
		SDO:       machine.GP19,
		SDI:       machine.GP16,
	})
	if err != nil {
		return nil, errors.New("spi:" + err.Error())
	}
	display := ili9341.NewSPI(machine.SPI0, machine.GP20, machine.GP17, machine.GP21)
	display.Configure(ili9341.Config{Rotation: cfg.Rotation})
	if w, h := display.Size(); w != cfg.Width || h != cfg.Height {
		return nil, errors.New("display size does not match config")
	}
	return display, nil
}

// configureBacklight drives the display LED with PWM and returns a setter
// taking a duty cycle in percent. GP22 is driven by PWM slice 3.
func configureBacklight(pin machine.Pin) (func(percent uint8), error) {
	pwm := machine.PWM3
	err := pwm.Configure(machine.PWMConfig{
		Period: uint64(time.Millisecond), // 1kHz, no visible flicker
	})
	if err != nil {
		return nil, errors.New("pwm:" + err.Error())
	}
	ch, err := pwm.Channel(pin)
	if err != nil {
		return nil, errors.New("pwm channel:" + err.Error())
	}
	return func(percent uint8) {
		pwm.Set(ch, pwm.Top()*uint32(min(percent, 100))/100)
	}, nil
}

// followKnob sets the backlight from a potentiometer on ADC0 forever.
// The panel never goes fully dark so the buttons stay findable.
func followKnob(set func(percent uint8)) {
	const floor = 10
	machine.InitADC()
	knob := machine.ADC{Pin: machine.ADC0}
	knob.Configure(machine.ADCConfig{})

	last := uint8(255)
	for {
		// The Pico's ADC reading is scaled to 16 bits.
		percent := floor + uint8(uint32(knob.Get())*(100-floor)/65535)
		if percent != last {
			set(percent)
			last = percent
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// configureLCD takes a preconfigured I2C peripheral and initialises the
// HD44780 on the first common address (0x27, 0x3F) that accepts it.
func configureLCD(i2c *machine.I2C) (*hd44780i2c.Device, error) {
	err := i2c.Configure(machine.I2CConfig{
		SDA: machine.GP4,
		SCL: machine.GP5,
	})
	if err != nil {
		return nil, errors.New("i2c:" + err.Error())
	}
	for _, addr := range []uint8{0x27, 0x3F} {
		dev := hd44780i2c.New(i2c, addr)
		err = dev.Configure(hd44780i2c.Config{
			Width:  lcd.Columns,
			Height: lcd.Rows,
		})
		if err == nil {
			return &dev, nil
		}
	}
	return nil, errors.New("LCD not found on addresses: 0x27, 0x3f")
}

// runMirror joins WiFi and publishes mirrored frames forever.
func runMirror(cfg config.Config, logger *slog.Logger, mirror *mqtt.Mirror, status chan<- lcd.Message) {
	stack, err := cyw43439.Join(cfg.WiFi, logger, status)
	if err != nil {
		printErrForever(logger, "wifi", slog.Any("reason", err))
	}
	go stack.Run()

	if _, err := stack.DHCP(); err != nil {
		printErrForever(logger, "dhcp", slog.Any("reason", err))
	}

	c := mqtt.Client{
		ID:                cfg.MQTT.ClientID,
		Timeout:           cfg.MQTT.Timeout,
		TCPBufSize:        cfg.MQTT.TCPBufSize,
		Logger:            logger,
		HeartbeatInterval: cfg.MQTT.HeartbeatInterval,
		Username:          cfg.MQTT.Username,
		Password:          cfg.MQTT.Password,
		RxTopic:           cfg.MQTT.RxTopic,
		TxTopic:           cfg.MQTT.TxTopic,
	}
	err = c.ConnectAndMirror(stack.LnetoStack(), cfg.MQTT.Broker, mirror.Frames(), status)
	printErrForever(logger, "connect to MQTT broker", slog.Any("reason", err))
}

// serialPort adapts machine.Serial, which only reads a byte at a time, to
// dispatch.Port. Read never waits for more bytes than are buffered.
type serialPort struct {
	machine.Serialer
}

func (p serialPort) Read(b []byte) (int, error) {
	n := 0
	for n < len(b) && p.Buffered() > 0 {
		c, err := p.ReadByte()
		if err != nil {
			return n, err
		}
		b[n] = c
		n++
	}
	return n, nil
}

// activityLED toggles an LED for every frame on the serial link.
type activityLED struct {
	pin machine.Pin
	on  bool
}

func newActivityLED(pin machine.Pin) *activityLED {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return &activityLED{pin: pin}
}

func (a *activityLED) Observe(dispatch.Direction, []byte) {
	a.on = !a.on
	a.pin.Set(a.on)
}

// printErrForever prints a message to the log @ 1hz. It
// blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
