package redisserver

import (
	"bytes"
	"errors"

	"github.com/yndnr/meshkv/pkg/resp"
)

// MaxInlineLen limits inline command line length (64KB).
const MaxInlineLen = 64 << 10

var errInlineTooLong = errors.New("inline command too long")

// isInline reports whether a request starting with b is an inline
// command. No RESP type prefix is a letter.
func isInline(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// readInline consumes one space-separated command line from buf and
// returns it as an array of bulk strings.
func readInline(buf *resp.Buffer) (resp.Frame, error) {
	data := buf.Bytes()
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		if len(data) > MaxInlineLen {
			return resp.Frame{}, errInlineTooLong
		}
		return resp.Frame{}, resp.ErrIncomplete
	}
	if i > MaxInlineLen {
		return resp.Frame{}, errInlineTooLong
	}

	fields := bytes.Fields(bytes.TrimSuffix(data[:i], []byte{'\r'}))
	elems := make([]resp.Frame, len(fields))
	for j, f := range fields {
		elems[j] = resp.BulkString(bytes.Clone(f))
	}
	buf.Advance(i + 1)
	return resp.Array(elems...), nil
}
