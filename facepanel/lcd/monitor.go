package lcd

import (
	"bytes"
	"strconv"

	"github.com/harveysanders/gairidisplay/facepanel/dispatch"
)

var errorPrefix = []byte(`{"error"`)

// Monitor is a dispatch.Observer that summarises serial traffic on the LCD:
//
//	rx:12 tx:13 e:1
//	<{"status":"stat
//
// The first line counts frames in each direction and errors sent to the
// host, the second shows the most recent frame with an arrow for its
// direction.
type Monitor struct {
	messages chan<- Message
	rx       int
	tx       int
	errs     int
	dropped  int
}

func NewMonitor(messages chan<- Message) *Monitor {
	return &Monitor{messages: messages}
}

func (m *Monitor) Observe(dir dispatch.Direction, frame []byte) {
	arrow := byte('>')
	if dir == dispatch.Outbound {
		m.tx++
		arrow = '<'
		if bytes.HasPrefix(frame, errorPrefix) {
			m.errs++
		}
	} else {
		m.rx++
	}

	line1 := make([]byte, 0, Columns)
	line1 = append(line1, "rx:"...)
	line1 = strconv.AppendInt(line1, int64(m.rx), 10)
	line1 = append(line1, " tx:"...)
	line1 = strconv.AppendInt(line1, int64(m.tx), 10)
	line1 = append(line1, " e:"...)
	line1 = strconv.AppendInt(line1, int64(m.errs), 10)

	line2 := make([]byte, 0, Columns)
	line2 = append(line2, arrow)
	line2 = append(line2, frame[:min(len(frame), Columns-1)]...)

	select {
	case m.messages <- Message{Line1: line1, Line2: line2}:
	default:
		m.dropped++
	}
}

// Dropped returns how many updates were skipped because the LCD was busy.
func (m *Monitor) Dropped() int { return m.dropped }
