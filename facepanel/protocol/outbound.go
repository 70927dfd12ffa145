package protocol

import (
	"encoding/json"
	"time"
)

type outKind uint8

const (
	outStatus outKind = iota + 1
	outError
	outAction
)

const (
	ActionDemoMode  = "demo_mode"
	ActionGuestMode = "guest_mode"

	// GuestModeDuration is how long guest mode lasts when requested from the panel.
	GuestModeDuration = time.Hour
)

// Outbound is a record sent to the host. The zero value is not valid; use
// the constructors below.
type Outbound struct {
	kind     outKind
	text     string
	duration uint32 // seconds, omitted when zero
}

// Ready is sent once after the startup render.
func Ready() Outbound { return Outbound{kind: outStatus, text: "ready"} }

// Ack confirms that a record of kind k was applied.
func Ack(k Kind) Outbound { return Outbound{kind: outStatus, text: k.String() + "_updated"} }

// Error reports a discarded frame.
func Error(msg string) Outbound {
	if msg == "" {
		msg = "unknown error"
	}
	return Outbound{kind: outError, text: msg}
}

// Action reports a touch action. A zero duration is omitted from the frame;
// durations are truncated to whole seconds.
func Action(tag string, d time.Duration) Outbound {
	secs := uint32(0)
	if d > 0 {
		secs = uint32(d / time.Second)
	}
	return Outbound{kind: outAction, text: tag, duration: secs}
}

// DemoMode asks the host to run its expression demo.
func DemoMode() Outbound { return Action(ActionDemoMode, 0) }

// GuestMode asks the host to grant guest access for GuestModeDuration.
func GuestMode() Outbound { return Action(ActionGuestMode, GuestModeDuration) }

// IsError reports whether o is an Error record.
func (o Outbound) IsError() bool { return o.kind == outError }

// Text returns the status, error message or action tag carried by o.
func (o Outbound) Text() string { return o.text }

type wireOutbound struct {
	Status   string `json:"status,omitempty"`
	Error    string `json:"error,omitempty"`
	Action   string `json:"action,omitempty"`
	Duration uint32 `json:"duration,omitempty"`
}

// AppendFrame appends o as a single newline-terminated JSON frame to dst.
func (o Outbound) AppendFrame(dst []byte) []byte {
	var w wireOutbound
	switch o.kind {
	case outStatus:
		w.Status = o.text
	case outError:
		w.Error = o.text
	case outAction:
		w.Action = o.text
		w.Duration = o.duration
	default:
		w.Error = "unknown error"
	}
	// Marshal cannot fail for string and integer fields.
	b, _ := json.Marshal(w)
	dst = append(dst, b...)
	return append(dst, '\n')
}

// String returns the frame without its terminator.
func (o Outbound) String() string {
	b := o.AppendFrame(nil)
	return string(b[:len(b)-1])
}
