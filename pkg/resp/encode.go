package resp

import (
	"io"
	"math"
	"strconv"
)

var crlf = []byte("\r\n")

// Encode returns the canonical wire encoding of f.
func Encode(f Frame) []byte {
	return AppendFrame(make([]byte, 0, EncodedLen(f)), f)
}

// AppendFrame appends the encoding of f to dst and returns the extended slice.
func AppendFrame(dst []byte, f Frame) []byte {
	switch f.Kind {
	case KindSimpleString, KindSimpleError, KindBigNumber:
		dst = append(dst, byte(f.Kind))
		dst = append(dst, f.Str...)
		return append(dst, crlf...)

	case KindInteger:
		dst = append(dst, byte(KindInteger))
		dst = strconv.AppendInt(dst, f.Int, 10)
		return append(dst, crlf...)

	case KindNull:
		return append(dst, '_', '\r', '\n')

	case KindBoolean:
		if f.Bool {
			return append(dst, '#', 't', '\r', '\n')
		}
		return append(dst, '#', 'f', '\r', '\n')

	case KindDouble:
		dst = append(dst, byte(KindDouble))
		dst = append(dst, formatDouble(f.Float)...)
		return append(dst, crlf...)

	case KindBulkString:
		if f.IsNull {
			return append(dst, '$', '-', '1', '\r', '\n')
		}
		dst = appendHeader(dst, KindBulkString, len(f.Bulk))
		dst = append(dst, f.Bulk...)
		return append(dst, crlf...)

	case KindBulkError:
		dst = appendHeader(dst, KindBulkError, len(f.Str))
		dst = append(dst, f.Str...)
		return append(dst, crlf...)

	case KindVerbatim:
		dst = appendHeader(dst, KindVerbatim, len(f.Format)+1+len(f.Str))
		dst = append(dst, f.Format...)
		dst = append(dst, ':')
		dst = append(dst, f.Str...)
		return append(dst, crlf...)

	case KindArray, KindSet:
		if f.IsNull {
			return append(dst, byte(f.Kind), '-', '1', '\r', '\n')
		}
		dst = appendHeader(dst, f.Kind, len(f.Elems))
		for _, e := range f.Elems {
			dst = AppendFrame(dst, e)
		}
		return dst

	case KindMap:
		if f.IsNull {
			return append(dst, '%', '-', '1', '\r', '\n')
		}
		dst = appendHeader(dst, KindMap, len(f.Pairs))
		for _, p := range f.Pairs {
			dst = AppendFrame(dst, p.Key)
			dst = AppendFrame(dst, p.Value)
		}
		return dst
	}

	// The zero Frame encodes as the RESP3 null so Encode stays total.
	return append(dst, '_', '\r', '\n')
}

// EncodedLen returns len(Encode(f)) without encoding.
func EncodedLen(f Frame) int {
	switch f.Kind {
	case KindSimpleString, KindSimpleError, KindBigNumber:
		return 3 + len(f.Str)
	case KindInteger:
		return 3 + digits(f.Int)
	case KindBoolean:
		return 4
	case KindDouble:
		return 3 + len(formatDouble(f.Float))
	case KindBulkString:
		if f.IsNull {
			return 5
		}
		return headerLen(len(f.Bulk)) + len(f.Bulk) + 2
	case KindBulkError:
		return headerLen(len(f.Str)) + len(f.Str) + 2
	case KindVerbatim:
		n := len(f.Format) + 1 + len(f.Str)
		return headerLen(n) + n + 2
	case KindArray, KindSet:
		if f.IsNull {
			return 5
		}
		n := headerLen(len(f.Elems))
		for _, e := range f.Elems {
			n += EncodedLen(e)
		}
		return n
	case KindMap:
		if f.IsNull {
			return 5
		}
		n := headerLen(len(f.Pairs))
		for _, p := range f.Pairs {
			n += EncodedLen(p.Key) + EncodedLen(p.Value)
		}
		return n
	}
	return 3
}

func appendHeader(dst []byte, kind Kind, n int) []byte {
	dst = append(dst, byte(kind))
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, crlf...)
}

func headerLen(n int) int {
	return 3 + digits(int64(n))
}

func digits(n int64) int {
	if n == math.MinInt64 {
		return 20
	}
	d := 1
	if n < 0 {
		d++
		n = -n
	}
	for n >= 10 {
		n /= 10
		d++
	}
	return d
}

// formatDouble renders v with the shortest representation that parses
// back to the same value.
func formatDouble(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Writer encodes frames onto an io.Writer. It reuses one scratch buffer
// across calls and is not safe for concurrent use.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter returns a Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame encodes f and writes it in a single Write call.
func (fw *Writer) WriteFrame(f Frame) error {
	fw.buf = AppendFrame(fw.buf[:0], f)
	_, err := fw.w.Write(fw.buf)
	return err
}

// WriteCommand writes args as an array of bulk strings, the form clients
// use to send commands.
func (fw *Writer) WriteCommand(args ...string) error {
	fw.buf = appendHeader(fw.buf[:0], KindArray, len(args))
	for _, a := range args {
		fw.buf = appendHeader(fw.buf, KindBulkString, len(a))
		fw.buf = append(fw.buf, a...)
		fw.buf = append(fw.buf, crlf...)
	}
	_, err := fw.w.Write(fw.buf)
	return err
}
