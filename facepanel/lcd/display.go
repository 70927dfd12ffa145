// Package lcd drives the optional 16x2 HD44780 link monitor through a
// channel, so the dispatch loop never waits on the I2C bus.
//
// Example usage:
//
//	messages := make(chan lcd.Message, 4)
//	handler := lcd.NewHandler(&device, messages, logger)
//	go handler.Run()
//
//	lcd.Send(messages, "WiFi", "joining...")
package lcd

import (
	"io"
	"log/slog"
)

const (
	Columns = 16
	Rows    = 2
)

// Device is the subset of *hd44780i2c.Device the handler uses.
type Device interface {
	ClearDisplay()
	SetCursor(x, y uint8)
	Print(data []byte)
}

// Message represents a two-line LCD message.
type Message struct {
	Line1 []byte
	Line2 []byte
}

// Send queues a message built from two strings. It never blocks; when the
// channel is full the message is dropped and Send reports false.
func Send(messages chan<- Message, line1, line2 string) bool {
	select {
	case messages <- Message{Line1: []byte(line1), Line2: []byte(line2)}:
		return true
	default:
		return false
	}
}

// Handler processes LCD messages from a channel.
type Handler struct {
	device   Device
	messages <-chan Message
	logger   *slog.Logger
	columns  int
	shown    int
}

// NewHandler creates a new 16x2 LCD message handler.
func NewHandler(device Device, messages <-chan Message, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127),
		}))
	}
	return &Handler{
		device:   device,
		messages: messages,
		logger:   logger,
		columns:  Columns,
	}
}

// Run processes messages until the channel is closed.
// Run should be called in a separate goroutine.
func (h *Handler) Run() {
	for msg := range h.messages {
		h.display(msg)
	}
	h.logger.Debug("lcd:stopped", slog.Int("shown", h.shown))
}

// display prints msg to the LCD.
func (h *Handler) display(msg Message) {
	h.device.ClearDisplay()
	h.device.SetCursor(0, 0)
	h.device.Print(h.truncate(msg.Line1))
	h.device.SetCursor(0, 1)
	h.device.Print(h.truncate(msg.Line2))
	h.shown++
}

// truncate reslices in place, no allocation.
func (h *Handler) truncate(line []byte) []byte {
	if len(line) > h.columns {
		return line[:h.columns]
	}
	return line
}
