package view

import (
	"github.com/harveysanders/gairidisplay/facepanel/hittest"
	"github.com/harveysanders/gairidisplay/facepanel/layout"
	"github.com/harveysanders/gairidisplay/facepanel/panel"
	"github.com/harveysanders/gairidisplay/facepanel/protocol"
)

// Machine is the view state machine. It stores the latest data for every
// screen and renders the active one in full whenever it changes.
//
// A Machine is not safe for concurrent use; the dispatch loop owns it.
type Machine struct {
	surface panel.Surface
	buttons []hittest.Target
	width   int16
	height  int16

	active       Kind
	conversation protocol.Conversation
	status       protocol.Status
	debug        protocol.Debug
	convGlyph    string
	statusGlyph  string

	renders    int
	placements []layout.Placement
	scratch    []byte
}

// New returns a machine drawing onto s, a width x height screen with the
// given touch buttons. Nothing is drawn until Splash, Select or Render.
func New(s panel.Surface, buttons []hittest.Target, width, height int16) *Machine {
	m := &Machine{
		surface: s,
		buttons: buttons,
		width:   width,
		height:  height,
		active:  Conversation,
		conversation: protocol.Conversation{
			Expression: protocol.DefaultExpression,
			Tier:       protocol.DefaultTier,
		},
		status: protocol.Status{
			User:       protocol.DefaultUser,
			Level:      protocol.LevelStranger,
			State:      protocol.DefaultState,
			Expression: protocol.DefaultExpression,
		},
		debug:      protocol.Debug{Tier: protocol.DefaultTier},
		placements: make([]layout.Placement, 0, 64),
		scratch:    make([]byte, 0, 32),
	}
	m.convGlyph = Glyph(m.conversation.Expression)
	m.statusGlyph = Glyph(m.status.Expression)
	return m
}

// Active returns the screen currently shown.
func (m *Machine) Active() Kind { return m.active }

// Renders returns how many full screen renders have happened, splash included.
func (m *Machine) Renders() int { return m.renders }

func (m *Machine) Conversation() protocol.Conversation { return m.conversation }
func (m *Machine) Status() protocol.Status             { return m.status }
func (m *Machine) Debug() protocol.Debug               { return m.debug }

// Next moves to the following screen and renders it.
func (m *Machine) Next() { m.Select(m.active.Next()) }

// Previous moves to the preceding screen and renders it.
func (m *Machine) Previous() { m.Select(m.active.Previous()) }

// Select jumps to screen k and renders it, even if k is already active.
func (m *Machine) Select(k Kind) {
	if k >= numKinds {
		k = Conversation
	}
	m.active = k
	m.Render()
}

// Apply stores the payload of rec in its slot. The screen is re-rendered
// only when the slot belongs to the active screen; it reports whether that
// happened.
func (m *Machine) Apply(rec protocol.Inbound) bool {
	switch r := rec.(type) {
	case protocol.ConversationUpdate:
		m.conversation = r.Data
		m.convGlyph = Glyph(r.Data.Expression)
	case protocol.StatusUpdate:
		m.status = r.Data
		if !m.status.Level.Valid() {
			m.status.Level = protocol.LevelStranger
		}
		m.statusGlyph = Glyph(r.Data.Expression)
	case protocol.DebugUpdate:
		m.debug = r.Data
	default:
		return false
	}
	if Owner(rec.Kind()) != m.active {
		return false
	}
	m.Render()
	return true
}

// Render redraws the active screen from its slot.
func (m *Machine) Render() {
	s := m.surface
	s.Clear(colorBackground)
	switch m.active {
	case Status:
		m.titleBar("Status", m.statusGlyph)
		m.renderStatus()
	case Debug:
		m.titleBar("Debug", "")
		m.renderDebug()
	default:
		m.titleBar("Conversation", m.convGlyph)
		m.renderConversation()
	}
	m.footer()
	m.renderButtons()
	m.done()
}

// Splash draws the startup screen.
func (m *Machine) Splash() {
	s := m.surface
	s.Clear(colorBackground)
	m.centered("GairiHead", m.height/2-40, colorTitle, 3)
	m.centered("face panel", m.height/2, colorText, 1)
	m.centered("waiting for host...", m.height/2+24, colorMuted, 1)
	m.done()
}

type flusher interface{ Flush() }

type errRecorder interface {
	Err() error
	ClearErr()
}

// Err returns and clears the first drawing error since the last call. It is
// always nil for surfaces that do not record errors.
func (m *Machine) Err() error {
	r, ok := m.surface.(errRecorder)
	if !ok {
		return nil
	}
	err := r.Err()
	r.ClearErr()
	return err
}

func (m *Machine) done() {
	m.renders++
	if f, ok := m.surface.(flusher); ok {
		f.Flush()
	}
}
