// Package mqtt mirrors the panel's serial traffic to an MQTT broker so the
// host link can be watched from the network.
package mqtt

import (
	"github.com/harveysanders/gairidisplay/facepanel/dispatch"
)

// Frame is a copy of one serial frame, without its newline.
type Frame struct {
	Dir  dispatch.Direction
	Data []byte
}

// Mirror is a dispatch.Observer that copies frames onto a bounded queue
// for the publisher goroutine. Frames are dropped when the queue is full.
type Mirror struct {
	frames  chan Frame
	dropped int
}

// NewMirror returns a mirror queueing up to depth frames.
func NewMirror(depth int) *Mirror {
	return &Mirror{frames: make(chan Frame, max(depth, 1))}
}

func (m *Mirror) Observe(dir dispatch.Direction, frame []byte) {
	f := Frame{Dir: dir, Data: append([]byte(nil), frame...)}
	select {
	case m.frames <- f:
	default:
		m.dropped++
	}
}

// Frames is the queue consumed by Client.ConnectAndMirror.
func (m *Mirror) Frames() <-chan Frame { return m.frames }

// Dropped returns how many frames were lost to a full queue. It is only
// meaningful on the goroutine running the dispatch loop.
func (m *Mirror) Dropped() int { return m.dropped }
