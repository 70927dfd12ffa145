// Package dispatch ties the serial protocol, the view state machine and the
// touch panel together on a single cooperative loop.
//
// Every iteration drains the bytes already waiting on the port, applies each
// decoded record to the view (answering with an ack or an error), samples the
// touch panel once and then yields. All state is owned by the Loop; nothing
// here is safe for concurrent use.
package dispatch

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/harveysanders/gairidisplay/facepanel/hittest"
	"github.com/harveysanders/gairidisplay/facepanel/protocol"
	"github.com/harveysanders/gairidisplay/facepanel/view"
	"tinygo.org/x/drivers/touch"
)

// DefaultYield is the pause between loop iterations.
const DefaultYield = 10 * time.Millisecond

// Port is the serial link to the host. Buffered reports how many bytes can be
// read without blocking; machine.Serial satisfies it.
type Port interface {
	io.Reader
	io.Writer
	Buffered() int
}

// Direction tells observers which way a frame travelled.
type Direction uint8

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	if d == Outbound {
		return "tx"
	}
	return "rx"
}

// Observer is notified of every frame crossing the port, without its
// terminating newline. frame is only valid during the call; Observe must copy
// what it keeps and must not block.
type Observer interface {
	Observe(dir Direction, frame []byte)
}

// Stats counts what the loop has handled since Start.
type Stats struct {
	Received     int // frames decoded and applied
	Rejected     int // frames that failed to decode
	Overflows    int
	Sent         int
	Taps         int
	RenderErrors int
}

// Loop is the application state of the face panel.
type Loop struct {
	Port     Port
	View     *view.Machine
	Framer   *protocol.Framer
	Touch    touch.Pointer     // optional
	Detector *hittest.Detector // optional, required when Touch is set
	Logger   *slog.Logger

	// Yield is the sleep between iterations in Run. Zero means DefaultYield.
	Yield time.Duration
	// Now and Sleep default to time.Now and time.Sleep.
	Now   func() time.Time
	Sleep func(time.Duration)

	Observers []Observer

	rx    [64]byte
	tx    []byte
	stats Stats
}

func (l *Loop) init() {
	if l.Logger == nil {
		l.Logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127), // Make temporary logger that does no logging.
		}))
	}
	if l.Framer == nil {
		l.Framer = protocol.NewFramer(protocol.DefaultCapacity)
	}
	if l.Now == nil {
		l.Now = time.Now
	}
	if l.Sleep == nil {
		l.Sleep = time.Sleep
	}
	if l.Yield <= 0 {
		l.Yield = DefaultYield
	}
	if l.tx == nil {
		l.tx = make([]byte, 0, 64)
	}
}

// Stats returns the loop counters.
func (l *Loop) Stats() Stats { return l.stats }

// Start shows the splash screen, then the conversation view, and tells the
// host the panel is ready.
func (l *Loop) Start() {
	l.init()
	l.View.Splash()
	l.View.Select(view.Conversation)
	l.emit(protocol.Ready())
	l.checkRender()
	l.Logger.Info("dispatch:ready", slog.String("view", l.View.Active().String()))
}

// Step runs one iteration without yielding.
func (l *Loop) Step() {
	l.init()
	l.drain()
	l.poll()
	l.checkRender()
}

// checkRender logs drawing failures. The loop keeps going; the next full
// render repaints the screen.
func (l *Loop) checkRender() {
	if err := l.View.Err(); err != nil {
		l.stats.RenderErrors++
		l.Logger.Error("view:render", slog.String("err", err.Error()))
	}
}

// Run calls Start and then steps forever, sleeping Yield between steps. It
// only returns once ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.Start()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Step()
		l.Sleep(l.Yield)
	}
}

func (l *Loop) drain() {
	for l.Port.Buffered() > 0 {
		n, err := l.Port.Read(l.rx[:])
		l.feed(l.rx[:n])
		if err != nil {
			l.Logger.Error("rx:read", slog.String("err", err.Error()))
			return
		}
		if n == 0 {
			return
		}
	}
}

func (l *Loop) feed(p []byte) {
	for len(p) > 0 {
		n, frame, err := l.Framer.Next(p)
		p = p[n:]
		switch {
		case err != nil:
			l.stats.Overflows++
			l.Logger.Warn("rx:overflow", slog.Int("cap", l.Framer.Cap()))
			l.emit(protocol.Error(protocol.HostMessage(err)))
		case frame != nil:
			l.handle(frame)
		}
	}
}

func (l *Loop) handle(frame []byte) {
	l.observe(Inbound, frame)
	rec, err := protocol.Decode(frame)
	if err != nil {
		l.stats.Rejected++
		l.Logger.Warn("rx:decode", slog.String("err", err.Error()))
		l.emit(protocol.Error(protocol.HostMessage(err)))
		return
	}
	l.stats.Received++
	rendered := l.View.Apply(rec)
	l.Logger.Debug("rx:applied", slog.String("kind", rec.Kind().String()), slog.Bool("rendered", rendered))
	l.emit(protocol.Ack(rec.Kind()))
}

func (l *Loop) poll() {
	if l.Touch == nil || l.Detector == nil {
		return
	}
	t, ok := l.Detector.Tap(l.Touch.ReadTouchPoint(), l.Now())
	if !ok {
		return
	}
	l.stats.Taps++
	l.Logger.Debug("touch:tap", slog.String("target", t.ID.String()))
	switch t.ID {
	case hittest.TargetPrevious:
		l.View.Previous()
	case hittest.TargetNext:
		l.View.Next()
	case hittest.TargetAction:
		l.emit(view.ActionFor(l.View.Active()))
	}
}

// emit writes o to the port. Write errors are logged and otherwise ignored;
// the host resends on its own schedule.
func (l *Loop) emit(o protocol.Outbound) {
	l.tx = o.AppendFrame(l.tx[:0])
	if _, err := l.Port.Write(l.tx); err != nil {
		l.Logger.Error("tx:write", slog.String("err", err.Error()))
	}
	l.stats.Sent++
	l.observe(Outbound, l.tx[:len(l.tx)-1])
}

func (l *Loop) observe(dir Direction, frame []byte) {
	for _, o := range l.Observers {
		o.Observe(dir, frame)
	}
}
