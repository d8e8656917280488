package resp

import (
	"errors"
	"fmt"
)

// ErrIncomplete reports that the buffer holds only a prefix of a frame.
// It is not a protocol error: the caller should read more and retry.
var ErrIncomplete = errors.New("resp: incomplete frame")

// Protocol errors. Any of these leaves the stream in an unknown state.
var (
	ErrWrongPrefix     = errors.New("wrong prefix")
	ErrBadLength       = errors.New("bad length")
	ErrBadTerminator   = errors.New("bad terminator")
	ErrBadUTF8         = errors.New("invalid utf-8")
	ErrIntegerOverflow = errors.New("integer overflow")
	ErrUnexpectedNull  = errors.New("unexpected null")
	ErrBadPayload      = errors.New("bad payload")
	ErrLimitExceeded   = errors.New("limit exceeded")
)

// ProtocolError describes malformed input found by the decoder.
type ProtocolError struct {
	// Kind is the frame kind being decoded when the error was found.
	Kind Kind
	// Offset is the byte offset of the offending frame in the decoded buffer.
	Offset int
	Err    error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("resp: %s at offset %d (%s)", e.Err, e.Offset, e.Kind)
}

// Unwrap returns the protocol sentinel error.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Reason returns a short stable name for the error class, suitable as a metric label.
func (e *ProtocolError) Reason() string {
	switch {
	case errors.Is(e.Err, ErrWrongPrefix):
		return "wrong_prefix"
	case errors.Is(e.Err, ErrBadLength):
		return "bad_length"
	case errors.Is(e.Err, ErrBadTerminator):
		return "bad_terminator"
	case errors.Is(e.Err, ErrBadUTF8):
		return "bad_utf8"
	case errors.Is(e.Err, ErrIntegerOverflow):
		return "integer_overflow"
	case errors.Is(e.Err, ErrUnexpectedNull):
		return "unexpected_null"
	case errors.Is(e.Err, ErrLimitExceeded):
		return "limit_exceeded"
	default:
		return "bad_payload"
	}
}

// IsProtocolError reports whether err is a decoder protocol error.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

func protoErr(kind Kind, offset int, err error) error {
	return &ProtocolError{Kind: kind, Offset: offset, Err: err}
}
