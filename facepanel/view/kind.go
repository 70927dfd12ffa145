// Package view holds the panel's three screens and the state machine that
// moves between them.
package view

import "github.com/harveysanders/gairidisplay/facepanel/protocol"

// Kind is one of the three screens.
type Kind uint8

const (
	Conversation Kind = iota
	Status
	Debug

	numKinds = 3
)

// Next returns the screen after k, wrapping from Debug to Conversation.
func (k Kind) Next() Kind { return (k + 1) % numKinds }

// Previous returns the screen before k. It is the inverse of Next.
func (k Kind) Previous() Kind { return (k + numKinds - 1) % numKinds }

func (k Kind) String() string {
	switch k {
	case Conversation:
		return "conversation"
	case Status:
		return "status"
	case Debug:
		return "debug"
	default:
		return "invalid"
	}
}

// Owner returns the screen that displays records of kind rk.
func Owner(rk protocol.Kind) Kind {
	switch rk {
	case protocol.KindStatus:
		return Status
	case protocol.KindDebug:
		return Debug
	default:
		return Conversation
	}
}

// ActionLabel is the caption of the action button on screen k.
func ActionLabel(k Kind) string {
	if k == Status {
		return "guest"
	}
	return "demo"
}

// ActionFor returns the record sent when the action button is tapped on k.
func ActionFor(k Kind) protocol.Outbound {
	if k == Status {
		return protocol.GuestMode()
	}
	return protocol.DemoMode()
}
