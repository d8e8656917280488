package resp

import (
	"errors"
	"math"
	"strconv"
	"unicode/utf8"
)

// Decoder limits applied when a Limits field is zero.
const (
	DefaultMaxBulkLen      = 512 << 20
	DefaultMaxAggregateLen = 1 << 20
	DefaultMaxDepth        = 64

	// maxHeaderLen bounds length, count and integer lines. The longest
	// valid one is "-9223372036854775808".
	maxHeaderLen = 32
)

// Limits bounds what a Decoder accepts. Frames beyond a limit are rejected
// with ErrLimitExceeded instead of being buffered.
type Limits struct {
	// MaxBulkLen caps bulk payloads and simple text lines.
	MaxBulkLen int
	// MaxAggregateLen caps the declared element count of arrays, sets and maps.
	MaxAggregateLen int
	// MaxDepth caps aggregate nesting.
	MaxDepth int
}

func (l Limits) withDefaults() Limits {
	if l.MaxBulkLen <= 0 {
		l.MaxBulkLen = DefaultMaxBulkLen
	}
	if l.MaxAggregateLen <= 0 {
		l.MaxAggregateLen = DefaultMaxAggregateLen
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	return l
}

// Decoder decodes frames from byte slices. It holds no per-stream state
// and is safe for concurrent use.
type Decoder struct {
	limits Limits
}

// NewDecoder returns a Decoder enforcing l. Zero fields take defaults.
func NewDecoder(l Limits) *Decoder {
	return &Decoder{limits: l.withDefaults()}
}

var defaultDecoder = NewDecoder(Limits{})

// Decode decodes the frame at the start of buf using default limits.
//
// On success it returns the frame and the number of bytes it occupied.
// If buf holds only part of a frame it returns ErrIncomplete. Malformed
// input yields a *ProtocolError. buf is never modified.
func Decode(buf []byte) (Frame, int, error) {
	return defaultDecoder.Decode(buf)
}

// ExpectLength returns the encoded size of the frame at the start of buf
// using default limits, without allocating it.
func ExpectLength(buf []byte) (int, error) {
	return defaultDecoder.ExpectLength(buf)
}

// Decode decodes the frame at the start of buf. See the package-level Decode.
func (d *Decoder) Decode(buf []byte) (Frame, int, error) {
	n, err := d.ExpectLength(buf)
	if err != nil {
		return Frame{}, 0, err
	}
	f, end, err := d.build(buf[:n], 0)
	if err != nil {
		return Frame{}, 0, err
	}
	return f, end, nil
}

// Next decodes one frame from b and consumes its bytes on success.
// On ErrIncomplete or a protocol error b is left unchanged.
func (d *Decoder) Next(b *Buffer) (Frame, error) {
	f, n, err := d.Decode(b.Bytes())
	if err != nil {
		return Frame{}, err
	}
	b.Advance(n)
	return f, nil
}

// ExpectLength validates the frame at the start of buf and returns its
// encoded size.
func (d *Decoder) ExpectLength(buf []byte) (int, error) {
	return d.expect(buf, 0, 0)
}

// expect returns the offset one past the end of the frame starting at off.
func (d *Decoder) expect(buf []byte, off, depth int) (int, error) {
	if off >= len(buf) {
		return 0, ErrIncomplete
	}
	kind := Kind(buf[off])

	switch kind {
	case KindSimpleString, KindSimpleError:
		cr, err := d.textLine(buf, off, kind)
		if err != nil {
			return 0, err
		}
		if cr == off+1 {
			return 0, protoErr(kind, off, ErrBadPayload)
		}
		if !utf8.Valid(buf[off+1 : cr]) {
			return 0, protoErr(kind, off, ErrBadUTF8)
		}
		return cr + 2, nil

	case KindInteger:
		cr, err := findCRLF(buf, off+1, maxHeaderLen)
		if err != nil {
			return 0, lineErr(kind, off, err, ErrBadPayload)
		}
		if _, err := parseInteger(buf[off+1 : cr]); err != nil {
			return 0, protoErr(kind, off, err)
		}
		return cr + 2, nil

	case KindNull:
		cr, err := findCRLF(buf, off+1, maxHeaderLen)
		if err != nil {
			return 0, lineErr(kind, off, err, ErrBadPayload)
		}
		if cr != off+1 {
			return 0, protoErr(kind, off, ErrBadPayload)
		}
		return cr + 2, nil

	case KindBoolean:
		cr, err := findCRLF(buf, off+1, maxHeaderLen)
		if err != nil {
			return 0, lineErr(kind, off, err, ErrBadPayload)
		}
		if _, err := parseBoolean(buf[off+1 : cr]); err != nil {
			return 0, protoErr(kind, off, err)
		}
		return cr + 2, nil

	case KindDouble:
		cr, err := d.textLine(buf, off, kind)
		if err != nil {
			return 0, err
		}
		if _, err := parseDouble(buf[off+1 : cr]); err != nil {
			return 0, protoErr(kind, off, err)
		}
		return cr + 2, nil

	case KindBigNumber:
		cr, err := d.textLine(buf, off, kind)
		if err != nil {
			return 0, err
		}
		if !isBigNumber(string(buf[off+1 : cr])) {
			return 0, protoErr(kind, off, ErrBadPayload)
		}
		return cr + 2, nil

	case KindBulkString, KindBulkError, KindVerbatim:
		n, body, err := d.header(buf, off, kind)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return body, nil
		}
		if n > d.limits.MaxBulkLen {
			return 0, protoErr(kind, off, ErrLimitExceeded)
		}
		end := body + n + 2
		if len(buf) < end {
			return 0, ErrIncomplete
		}
		if buf[end-2] != '\r' || buf[end-1] != '\n' {
			return 0, protoErr(kind, off, ErrBadTerminator)
		}
		if kind == KindVerbatim {
			if n < 4 || buf[body+3] != ':' {
				return 0, protoErr(kind, off, ErrBadPayload)
			}
			if !utf8.Valid(buf[body : body+3]) {
				return 0, protoErr(kind, off, ErrBadUTF8)
			}
		}
		return end, nil

	case KindArray, KindSet, KindMap:
		if depth >= d.limits.MaxDepth {
			return 0, protoErr(kind, off, ErrLimitExceeded)
		}
		n, pos, err := d.header(buf, off, kind)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return pos, nil
		}
		if n > d.limits.MaxAggregateLen {
			return 0, protoErr(kind, off, ErrLimitExceeded)
		}
		children := n
		if kind == KindMap {
			children *= 2
		}
		for i := 0; i < children; i++ {
			pos, err = d.expect(buf, pos, depth+1)
			if err != nil {
				return 0, err
			}
		}
		return pos, nil
	}

	return 0, protoErr(kind, off, ErrWrongPrefix)
}

// build decodes a frame already validated by expect.
func (d *Decoder) build(buf []byte, off int) (Frame, int, error) {
	kind := Kind(buf[off])

	switch kind {
	case KindSimpleString, KindSimpleError, KindBigNumber:
		cr, err := d.textLine(buf, off, kind)
		if err != nil {
			return Frame{}, 0, err
		}
		return Frame{Kind: kind, Str: string(buf[off+1 : cr])}, cr + 2, nil

	case KindInteger:
		cr, err := findCRLF(buf, off+1, maxHeaderLen)
		if err != nil {
			return Frame{}, 0, lineErr(kind, off, err, ErrBadPayload)
		}
		n, err := parseInteger(buf[off+1 : cr])
		if err != nil {
			return Frame{}, 0, protoErr(kind, off, err)
		}
		return Integer(n), cr + 2, nil

	case KindNull:
		return Null(), off + 3, nil

	case KindBoolean:
		cr, err := findCRLF(buf, off+1, maxHeaderLen)
		if err != nil {
			return Frame{}, 0, lineErr(kind, off, err, ErrBadPayload)
		}
		b, err := parseBoolean(buf[off+1 : cr])
		if err != nil {
			return Frame{}, 0, protoErr(kind, off, err)
		}
		return Boolean(b), cr + 2, nil

	case KindDouble:
		cr, err := d.textLine(buf, off, kind)
		if err != nil {
			return Frame{}, 0, err
		}
		v, err := parseDouble(buf[off+1 : cr])
		if err != nil {
			return Frame{}, 0, protoErr(kind, off, err)
		}
		return Double(v), cr + 2, nil

	case KindBulkString, KindBulkError, KindVerbatim:
		n, body, err := d.header(buf, off, kind)
		if err != nil {
			return Frame{}, 0, err
		}
		if n < 0 {
			return NullBulk(), body, nil
		}
		payload := buf[body : body+n]
		end := body + n + 2
		switch kind {
		case KindBulkError:
			return BulkError(string(payload)), end, nil
		case KindVerbatim:
			return Verbatim(string(payload[:3]), string(payload[4:])), end, nil
		}
		cp := make([]byte, n)
		copy(cp, payload)
		return Frame{Kind: KindBulkString, Bulk: cp}, end, nil

	case KindArray, KindSet:
		n, pos, err := d.header(buf, off, kind)
		if err != nil {
			return Frame{}, 0, err
		}
		if n < 0 {
			return Frame{Kind: kind, IsNull: true}, pos, nil
		}
		elems := make([]Frame, n)
		for i := range elems {
			elems[i], pos, err = d.build(buf, pos)
			if err != nil {
				return Frame{}, 0, err
			}
		}
		return Frame{Kind: kind, Elems: elems}, pos, nil

	case KindMap:
		n, pos, err := d.header(buf, off, kind)
		if err != nil {
			return Frame{}, 0, err
		}
		if n < 0 {
			return NullMap(), pos, nil
		}
		pairs := make([]Pair, n)
		for i := range pairs {
			pairs[i].Key, pos, err = d.build(buf, pos)
			if err != nil {
				return Frame{}, 0, err
			}
			pairs[i].Value, pos, err = d.build(buf, pos)
			if err != nil {
				return Frame{}, 0, err
			}
		}
		return Map(pairs...), pos, nil
	}

	return Frame{}, 0, protoErr(kind, off, ErrWrongPrefix)
}

// textLine locates the CRLF ending a free-text line such as a simple string.
func (d *Decoder) textLine(buf []byte, off int, kind Kind) (int, error) {
	cr, err := findCRLF(buf, off+1, d.limits.MaxBulkLen)
	if err != nil {
		return 0, lineErr(kind, off, err, ErrBadPayload)
	}
	return cr, nil
}

// header parses "<prefix><len>\r\n" and returns the length (-1 for null)
// together with the offset of the first body byte.
func (d *Decoder) header(buf []byte, off int, kind Kind) (int, int, error) {
	cr, err := findCRLF(buf, off+1, maxHeaderLen)
	if err != nil {
		return 0, 0, lineErr(kind, off, err, ErrBadLength)
	}
	n, err := parseLength(buf[off+1 : cr])
	if err != nil {
		return 0, 0, protoErr(kind, off, err)
	}
	if n == -1 && !kind.nullable() {
		return 0, 0, protoErr(kind, off, ErrUnexpectedNull)
	}
	return n, cr + 2, nil
}

var errLineTooLong = errors.New("line too long")

// findCRLF returns the index of the '\r' of the first CRLF at or after
// start. A lone CR or LF is an error; running out of input is
// ErrIncomplete unless more than max bytes were scanned.
func findCRLF(buf []byte, start, max int) (int, error) {
	for i := start; i < len(buf); i++ {
		if i-start > max {
			return 0, errLineTooLong
		}
		switch buf[i] {
		case '\r':
			if i+1 == len(buf) {
				return 0, ErrIncomplete
			}
			if buf[i+1] != '\n' {
				return 0, ErrBadTerminator
			}
			return i, nil
		case '\n':
			return 0, ErrBadTerminator
		}
	}
	if len(buf)-start > max {
		return 0, errLineTooLong
	}
	return 0, ErrIncomplete
}

// lineErr maps a findCRLF failure onto the error reported to callers.
// Over-long lines become tooLong, stray CR/LF inside simple text become
// ErrBadPayload.
func lineErr(kind Kind, off int, err error, tooLong error) error {
	switch {
	case errors.Is(err, ErrIncomplete):
		return ErrIncomplete
	case errors.Is(err, errLineTooLong):
		if tooLong == ErrBadPayload {
			return protoErr(kind, off, ErrLimitExceeded)
		}
		return protoErr(kind, off, tooLong)
	case kind == KindSimpleString || kind == KindSimpleError:
		return protoErr(kind, off, ErrBadPayload)
	}
	return protoErr(kind, off, err)
}

// parseLength parses a decimal length or count; "-1" is the only negative
// value accepted.
func parseLength(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, ErrBadLength
	}
	neg := false
	if b[0] == '-' {
		neg = true
		b = b[1:]
		if len(b) == 0 {
			return 0, ErrBadLength
		}
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, ErrBadLength
		}
		if n > (math.MaxInt32-9)/10 {
			return 0, ErrLimitExceeded
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		if n != 1 {
			return 0, ErrBadLength
		}
		return -1, nil
	}
	return n, nil
}

func parseInteger(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return 0, ErrIntegerOverflow
		}
		return 0, ErrBadPayload
	}
	return n, nil
}

func parseBoolean(b []byte) (bool, error) {
	if len(b) == 1 {
		switch b[0] {
		case 't':
			return true, nil
		case 'f':
			return false, nil
		}
	}
	return false, ErrBadPayload
}

func parseDouble(b []byte) (float64, error) {
	switch string(b) {
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan":
		return math.NaN(), nil
	}
	if !isDecimalFloat(b) {
		return 0, ErrBadPayload
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return v, nil
		}
		return 0, ErrBadPayload
	}
	return v, nil
}

// isDecimalFloat matches [+-]digits[.digits][(e|E)[+-]digits], the
// finite double grammar. strconv.ParseFloat alone also takes hex floats,
// underscores and spelled-out infinities.
func isDecimalFloat(b []byte) bool {
	i := 0
	digits := func() int {
		start := i
		for i < len(b) && b[i] >= '0' && b[i] <= '9' {
			i++
		}
		return i - start
	}
	sign := func() {
		if i < len(b) && (b[i] == '+' || b[i] == '-') {
			i++
		}
	}

	sign()
	if digits() == 0 {
		return false
	}
	if i < len(b) && b[i] == '.' {
		i++
		if digits() == 0 {
			return false
		}
	}
	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		i++
		sign()
		if digits() == 0 {
			return false
		}
	}
	return i == len(b)
}
