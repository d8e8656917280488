package command

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yndnr/meshkv/pkg/resp"
)

// ErrorKind classifies command errors.
type ErrorKind string

const (
	KindUnknownCommand ErrorKind = "unknown_command"
	KindWrongArity     ErrorKind = "wrong_arity"
	KindWrongType      ErrorKind = "wrong_type"
	KindInvalidName    ErrorKind = "invalid_name"
	KindInvalidValue   ErrorKind = "invalid_value"
)

// Error is a request that could not be turned into a command. It never
// ends the connection.
type Error struct {
	Kind    ErrorKind
	Message string // Redis-style message, without the "ERR " prefix
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "ERR " + e.Message
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Frame renders the error as a SimpleError reply.
func (e *Error) Frame() resp.Frame {
	return resp.SimpleError(printable(e.Error(), 0))
}

// Sentinels for errors.Is.
var (
	ErrUnknownCommand = &Error{Kind: KindUnknownCommand, Message: "unknown command"}
	ErrWrongArity     = &Error{Kind: KindWrongArity, Message: "wrong number of arguments"}
	ErrWrongType      = &Error{Kind: KindWrongType, Message: "wrong argument type"}
	ErrInvalidName    = &Error{Kind: KindInvalidName, Message: "invalid command name"}
	ErrInvalidValue   = &Error{Kind: KindInvalidValue, Message: "invalid argument"}
)

// maxEchoedName bounds how much of an unknown command name is echoed back.
const maxEchoedName = 128

func unknownCommand(name string) *Error {
	return &Error{
		Kind:    KindUnknownCommand,
		Message: fmt.Sprintf("unknown command '%s'", printable(name, maxEchoedName)),
	}
}

// printable makes client text safe inside a SimpleError: control bytes
// become spaces, invalid UTF-8 becomes U+FFFD, and the result is cut to
// at most limit bytes on a rune boundary. limit <= 0 means no limit.
func printable(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			r = ' '
		}
		if limit > 0 && b.Len()+utf8.RuneLen(r) > limit {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

func wrongArity(name string) *Error {
	return &Error{
		Kind:    KindWrongArity,
		Message: fmt.Sprintf("wrong number of arguments for '%s' command", name),
	}
}

func wrongType(format string, args ...any) *Error {
	return &Error{Kind: KindWrongType, Message: fmt.Sprintf(format, args...)}
}

func invalidValue(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidValue, Message: fmt.Sprintf(format, args...)}
}

// ErrorFrame renders err as a SimpleError reply.
func ErrorFrame(err error) resp.Frame {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Frame()
	}
	return resp.SimpleError(printable("ERR "+err.Error(), 0))
}

// KindOf returns the kind of a command error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
