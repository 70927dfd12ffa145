// Package protocol implements the newline-delimited JSON protocol spoken
// between the robot host and the face panel.
//
// Inbound frames carry one of three update records (conversation, status,
// debug). Outbound frames are acknowledgements, errors and touch actions.
package protocol

import (
	"bytes"
	"encoding/json"
)

// Kind identifies an inbound record type.
type Kind uint8

const (
	KindConversation Kind = iota + 1
	KindStatus
	KindDebug
)

// String returns the wire name of the record kind.
func (k Kind) String() string {
	switch k {
	case KindConversation:
		return "conversation"
	case KindStatus:
		return "status"
	case KindDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// AuthLevel is the host's trust level for the recognised user.
type AuthLevel uint8

const (
	LevelOwner    AuthLevel = 1
	LevelGuest    AuthLevel = 2
	LevelStranger AuthLevel = 3
)

// ResolveAuthLevel maps any number to a valid level. Everything other than
// exactly 1, 2 or 3 fails closed to LevelStranger.
func ResolveAuthLevel(v float64) AuthLevel {
	switch v {
	case 1:
		return LevelOwner
	case 2:
		return LevelGuest
	default:
		return LevelStranger
	}
}

// Valid reports whether l is one of the three defined levels.
func (l AuthLevel) Valid() bool { return l >= LevelOwner && l <= LevelStranger }

const (
	DefaultTier       = "local"
	DefaultExpression = "idle"
	DefaultUser       = "unknown"
	DefaultState      = "idle"
)

// Conversation is the last exchange between the user and the companion.
type Conversation struct {
	UserText      string
	CompanionText string
	Expression    string
	Tier          string
	ResponseTime  float64 // seconds, never negative
}

// Status is the robot's view of who it is talking to and what it is doing.
type Status struct {
	User       string
	Level      AuthLevel
	State      string
	Confidence float64 // face recognition confidence in [0,1]
	Expression string
}

// Debug holds diagnostics about the last response.
type Debug struct {
	Tier           string
	Tool           string
	TrainingLogged bool
	ResponseTime   float64
}

// Inbound is a decoded host record. It is implemented only by
// ConversationUpdate, StatusUpdate and DebugUpdate.
type Inbound interface {
	Kind() Kind
	inbound()
}

type ConversationUpdate struct{ Data Conversation }

type StatusUpdate struct{ Data Status }

type DebugUpdate struct{ Data Debug }

func (ConversationUpdate) Kind() Kind { return KindConversation }
func (StatusUpdate) Kind() Kind       { return KindStatus }
func (DebugUpdate) Kind() Kind        { return KindDebug }

func (ConversationUpdate) inbound() {}
func (StatusUpdate) inbound()       {}
func (DebugUpdate) inbound()        {}

// Decode parses a single frame (without its terminator) into a record.
// The returned error is a *DecodeError wrapping ErrMalformedFrame or
// ErrUnknownRecordKind.
func Decode(frame []byte) (Inbound, error) {
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 || frame[0] != '{' {
		return nil, malformed("Invalid JSON")
	}
	var f fields
	if err := json.Unmarshal(frame, &f); err != nil {
		return nil, malformed("Invalid JSON")
	}

	typ, err := f.str("type", "")
	if err != nil {
		return nil, err
	}
	switch typ {
	case "":
		return nil, malformed("Missing message type")
	case "conversation":
		return decodeConversation(f)
	case "status":
		return decodeStatus(f)
	case "debug":
		return decodeDebug(f)
	default:
		return nil, &DecodeError{Err: ErrUnknownRecordKind, Message: "Unknown message type"}
	}
}

func decodeConversation(f fields) (Inbound, error) {
	var c Conversation
	var err error
	if c.UserText, err = f.str("user_text", ""); err != nil {
		return nil, err
	}
	if c.CompanionText, err = f.str("gairi_text", ""); err != nil {
		return nil, err
	}
	if c.Expression, err = f.str("expression", DefaultExpression); err != nil {
		return nil, err
	}
	if c.Tier, err = f.str("tier", DefaultTier); err != nil {
		return nil, err
	}
	if c.ResponseTime, err = f.num("response_time", 0); err != nil {
		return nil, err
	}
	c.ResponseTime = nonNegative(c.ResponseTime)
	return ConversationUpdate{Data: c}, nil
}

func decodeStatus(f fields) (Inbound, error) {
	var s Status
	var err error
	if s.User, err = f.str("user", DefaultUser); err != nil {
		return nil, err
	}
	s.Level = f.level("level")
	if s.State, err = f.str("state", DefaultState); err != nil {
		return nil, err
	}
	if s.Confidence, err = f.num("confidence", 0); err != nil {
		return nil, err
	}
	s.Confidence = min(max(s.Confidence, 0), 1)
	if s.Expression, err = f.str("expression", DefaultExpression); err != nil {
		return nil, err
	}
	return StatusUpdate{Data: s}, nil
}

func decodeDebug(f fields) (Inbound, error) {
	var d Debug
	var err error
	if d.Tier, err = f.str("tier", DefaultTier); err != nil {
		return nil, err
	}
	if d.Tool, err = f.str("tool", ""); err != nil {
		return nil, err
	}
	if d.TrainingLogged, err = f.flag("training_logged", false); err != nil {
		return nil, err
	}
	if d.ResponseTime, err = f.num("response_time", 0); err != nil {
		return nil, err
	}
	d.ResponseTime = nonNegative(d.ResponseTime)
	return DebugUpdate{Data: d}, nil
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// fields holds the raw members of a frame object. Absent and null members
// take their documented defaults; members of the wrong JSON type are
// malformed.
type fields map[string]json.RawMessage

func (f fields) raw(name string) (json.RawMessage, bool) {
	v, ok := f[name]
	if !ok || bytes.Equal(v, []byte("null")) {
		return nil, false
	}
	return v, true
}

func (f fields) str(name, def string) (string, error) {
	v, ok := f.raw(name)
	if !ok {
		return def, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", malformed("Invalid field: " + name)
	}
	return s, nil
}

func (f fields) num(name string, def float64) (float64, error) {
	v, ok := f.raw(name)
	if !ok {
		return def, nil
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, malformed("Invalid field: " + name)
	}
	return n, nil
}

func (f fields) flag(name string, def bool) (bool, error) {
	v, ok := f.raw(name)
	if !ok {
		return def, nil
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false, malformed("Invalid field: " + name)
	}
	return b, nil
}

// level never fails: anything that is not a number in {1,2,3} is a stranger.
func (f fields) level(name string) AuthLevel {
	v, ok := f.raw(name)
	if !ok {
		return LevelStranger
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		return LevelStranger
	}
	return ResolveAuthLevel(n)
}
