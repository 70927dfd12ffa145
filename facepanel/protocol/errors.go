package protocol

import "errors"

// Frame errors. All of them are recovered by discarding the offending frame
// and reporting an Error record to the host.
var (
	ErrMalformedFrame    = errors.New("malformed frame")
	ErrUnknownRecordKind = errors.New("unknown record kind")
	ErrBufferOverflow    = errors.New("buffer overflow")
)

// DecodeError describes why a frame could not be decoded. Err is one of the
// package sentinels; Message is the text reported to the host.
type DecodeError struct {
	Err     error
	Message string
}

func (e *DecodeError) Error() string { return e.Err.Error() + ": " + e.Message }

func (e *DecodeError) Unwrap() error { return e.Err }

func malformed(msg string) error {
	return &DecodeError{Err: ErrMalformedFrame, Message: msg}
}

// HostMessage returns the message sent to the host in an Error record for err.
func HostMessage(err error) string {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Message
	}
	if errors.Is(err, ErrBufferOverflow) {
		return "buffer overflow"
	}
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
