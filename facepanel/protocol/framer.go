package protocol

import "bytes"

const (
	// DefaultCapacity is the frame buffer size used by the firmware.
	DefaultCapacity = 1024
	MinCapacity     = 512
	MaxCapacity     = 4096
)

// Framer splits a byte stream into newline-terminated frames using a fixed
// buffer. It never grows: a line longer than the buffer is reported as
// ErrBufferOverflow and dropped.
type Framer struct {
	buf []byte
	n   int
}

// NewFramer returns a framer whose buffer holds capacity bytes. capacity is
// clamped to [MinCapacity, MaxCapacity].
func NewFramer(capacity int) *Framer {
	capacity = min(max(capacity, MinCapacity), MaxCapacity)
	return &Framer{buf: make([]byte, capacity)}
}

// Next consumes bytes from p until a frame is complete, the buffer
// overflows, or p is exhausted, and returns how many bytes of p it consumed.
//
// A non-nil frame aliases the internal buffer and is only valid until the
// next call. Blank lines are skipped. On overflow the buffered bytes are
// discarded and the byte that did not fit is left unconsumed, so framing
// resumes with it on the next call.
func (f *Framer) Next(p []byte) (consumed int, frame []byte, err error) {
	for i, b := range p {
		if b == '\n' {
			line := bytes.TrimSpace(f.buf[:f.n])
			f.n = 0
			if len(line) == 0 {
				continue
			}
			return i + 1, line, nil
		}
		if f.n == len(f.buf) {
			f.n = 0
			return i, nil, ErrBufferOverflow
		}
		f.buf[f.n] = b
		f.n++
	}
	return len(p), nil, nil
}

// Buffered returns the number of bytes waiting for a terminator.
func (f *Framer) Buffered() int { return f.n }

// Cap returns the buffer capacity.
func (f *Framer) Cap() int { return len(f.buf) }

// Reset drops any partial frame.
func (f *Framer) Reset() { f.n = 0 }
