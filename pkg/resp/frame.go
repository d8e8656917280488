package resp

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Kind identifies the shape of a Frame. The values are the wire prefix bytes.
type Kind byte

const (
	// KindInvalid is the zero Kind; no valid frame carries it.
	KindInvalid Kind = 0

	KindSimpleString Kind = '+'
	KindSimpleError  Kind = '-'
	KindInteger      Kind = ':'
	KindBulkString   Kind = '$'
	KindArray        Kind = '*'
	KindNull         Kind = '_'
	KindBoolean      Kind = '#'
	KindDouble       Kind = ','
	KindBigNumber    Kind = '('
	KindBulkError    Kind = '!'
	KindVerbatim     Kind = '='
	KindMap          Kind = '%'
	KindSet          Kind = '~'
)

var kindNames = map[Kind]string{
	KindSimpleString: "simple-string",
	KindSimpleError:  "simple-error",
	KindInteger:      "integer",
	KindBulkString:   "bulk-string",
	KindArray:        "array",
	KindNull:         "null",
	KindBoolean:      "boolean",
	KindDouble:       "double",
	KindBigNumber:    "big-number",
	KindBulkError:    "bulk-error",
	KindVerbatim:     "verbatim-string",
	KindMap:          "map",
	KindSet:          "set",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%q)", byte(k))
}

// Valid reports whether k is one of the thirteen RESP3 kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// IsAggregate reports whether frames of this kind carry child frames.
func (k Kind) IsAggregate() bool {
	return k == KindArray || k == KindMap || k == KindSet
}

// nullable reports whether the -1 length sentinel is allowed for k.
func (k Kind) nullable() bool {
	return k == KindBulkString || k == KindArray || k == KindMap || k == KindSet
}

// Pair is one key/value entry of a Map frame.
type Pair struct {
	Key   Frame
	Value Frame
}

// Frame is a single RESP3 value, possibly nested.
//
// Only the fields relevant to Kind are meaningful:
//
//	SimpleString, SimpleError, BigNumber, BulkError  Str
//	Verbatim                                         Format, Str
//	Integer                                          Int
//	Boolean                                          Bool
//	Double                                           Float
//	BulkString                                       Bulk, IsNull
//	Array, Set                                       Elems, IsNull
//	Map                                              Pairs, IsNull
//
// Use the constructor functions rather than building Frames by hand.
type Frame struct {
	Kind   Kind
	Str    string
	Format string
	Int    int64
	Bool   bool
	Float  float64
	Bulk   []byte
	Elems  []Frame
	Pairs  []Pair
	IsNull bool
}

// SimpleString returns a '+' frame.
func SimpleString(s string) Frame { return Frame{Kind: KindSimpleString, Str: s} }

// SimpleError returns a '-' frame.
func SimpleError(s string) Frame { return Frame{Kind: KindSimpleError, Str: s} }

// Integer returns a ':' frame.
func Integer(n int64) Frame { return Frame{Kind: KindInteger, Int: n} }

// BulkString returns a non-null '$' frame. A nil slice yields an empty bulk.
func BulkString(b []byte) Frame {
	if b == nil {
		b = []byte{}
	}
	return Frame{Kind: KindBulkString, Bulk: b}
}

// BulkText is BulkString for text payloads.
func BulkText(s string) Frame { return Frame{Kind: KindBulkString, Bulk: []byte(s)} }

// NullBulk returns the null bulk string ("$-1\r\n").
func NullBulk() Frame { return Frame{Kind: KindBulkString, IsNull: true} }

// Array returns a non-null '*' frame holding elems in order.
func Array(elems ...Frame) Frame {
	if elems == nil {
		elems = []Frame{}
	}
	return Frame{Kind: KindArray, Elems: elems}
}

// NullArray returns the null array ("*-1\r\n").
func NullArray() Frame { return Frame{Kind: KindArray, IsNull: true} }

// Null returns the RESP3 null ("_\r\n").
func Null() Frame { return Frame{Kind: KindNull} }

// Boolean returns a '#' frame.
func Boolean(b bool) Frame { return Frame{Kind: KindBoolean, Bool: b} }

// Double returns a ',' frame.
func Double(f float64) Frame { return Frame{Kind: KindDouble, Float: f} }

// BigNumber returns a '(' frame. s must be an optionally signed decimal integer.
func BigNumber(s string) Frame { return Frame{Kind: KindBigNumber, Str: s} }

// BulkError returns a '!' frame.
func BulkError(s string) Frame { return Frame{Kind: KindBulkError, Str: s} }

// Verbatim returns a '=' frame. format must be exactly three bytes, e.g. "txt".
func Verbatim(format, text string) Frame {
	return Frame{Kind: KindVerbatim, Format: format, Str: text}
}

// Map returns a non-null '%' frame holding pairs in order.
func Map(pairs ...Pair) Frame {
	if pairs == nil {
		pairs = []Pair{}
	}
	return Frame{Kind: KindMap, Pairs: pairs}
}

// NullMap returns the null map ("%-1\r\n").
func NullMap() Frame { return Frame{Kind: KindMap, IsNull: true} }

// Set returns a non-null '~' frame holding elems in order.
func Set(elems ...Frame) Frame {
	if elems == nil {
		elems = []Frame{}
	}
	return Frame{Kind: KindSet, Elems: elems}
}

// NullSet returns the null set ("~-1\r\n").
func NullSet() Frame { return Frame{Kind: KindSet, IsNull: true} }

// OK is the "+OK" reply.
func OK() Frame { return SimpleString("OK") }

// IsError reports whether f is a simple or bulk error.
func (f Frame) IsError() bool {
	return f.Kind == KindSimpleError || f.Kind == KindBulkError
}

// Text returns the textual payload of string-like frames.
// The second result is false for kinds without a text payload and for nulls.
func (f Frame) Text() (string, bool) {
	switch f.Kind {
	case KindSimpleString, KindSimpleError, KindBigNumber, KindBulkError, KindVerbatim:
		return f.Str, true
	case KindBulkString:
		if f.IsNull {
			return "", false
		}
		return string(f.Bulk), true
	}
	return "", false
}

// Len returns the number of child frames of an aggregate (pairs for maps).
func (f Frame) Len() int {
	switch f.Kind {
	case KindArray, KindSet:
		return len(f.Elems)
	case KindMap:
		return len(f.Pairs)
	case KindBulkString:
		return len(f.Bulk)
	}
	return 0
}

// Clone returns a deep copy of f sharing no memory with it.
func (f Frame) Clone() Frame {
	out := f
	if f.Bulk != nil {
		out.Bulk = bytes.Clone(f.Bulk)
	}
	if f.Elems != nil {
		out.Elems = make([]Frame, len(f.Elems))
		for i, e := range f.Elems {
			out.Elems[i] = e.Clone()
		}
	}
	if f.Pairs != nil {
		out.Pairs = make([]Pair, len(f.Pairs))
		for i, p := range f.Pairs {
			out.Pairs[i] = Pair{Key: p.Key.Clone(), Value: p.Value.Clone()}
		}
	}
	return out
}

// Equal reports whether f and g are the same frame.
// Doubles compare bitwise-equal for NaN so that decoded NaNs equal their source.
func (f Frame) Equal(g Frame) bool {
	if f.Kind != g.Kind {
		return false
	}
	switch f.Kind {
	case KindSimpleString, KindSimpleError, KindBigNumber, KindBulkError:
		return f.Str == g.Str
	case KindVerbatim:
		return f.Format == g.Format && f.Str == g.Str
	case KindInteger:
		return f.Int == g.Int
	case KindBoolean:
		return f.Bool == g.Bool
	case KindDouble:
		if math.IsNaN(f.Float) || math.IsNaN(g.Float) {
			return math.IsNaN(f.Float) && math.IsNaN(g.Float)
		}
		return f.Float == g.Float
	case KindNull:
		return true
	case KindBulkString:
		if f.IsNull || g.IsNull {
			return f.IsNull == g.IsNull
		}
		return bytes.Equal(f.Bulk, g.Bulk)
	case KindArray, KindSet:
		if f.IsNull || g.IsNull {
			return f.IsNull == g.IsNull
		}
		if len(f.Elems) != len(g.Elems) {
			return false
		}
		for i := range f.Elems {
			if !f.Elems[i].Equal(g.Elems[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if f.IsNull || g.IsNull {
			return f.IsNull == g.IsNull
		}
		if len(f.Pairs) != len(g.Pairs) {
			return false
		}
		for i := range f.Pairs {
			if !f.Pairs[i].Key.Equal(g.Pairs[i].Key) || !f.Pairs[i].Value.Equal(g.Pairs[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Validate reports whether f can be encoded so that decoding yields f again.
func (f Frame) Validate() error {
	switch f.Kind {
	case KindSimpleString, KindSimpleError:
		if f.Str == "" {
			return fmt.Errorf("%w: empty %s", ErrBadPayload, f.Kind)
		}
		if strings.ContainsAny(f.Str, "\r\n") {
			return fmt.Errorf("%w: %s contains CR or LF", ErrBadPayload, f.Kind)
		}
		if !utf8.ValidString(f.Str) {
			return fmt.Errorf("%w: %s", ErrBadUTF8, f.Kind)
		}
	case KindBigNumber:
		if !isBigNumber(f.Str) {
			return fmt.Errorf("%w: big number %q", ErrBadPayload, f.Str)
		}
	case KindVerbatim:
		if len(f.Format) != 3 || strings.ContainsAny(f.Format, ":\r\n") {
			return fmt.Errorf("%w: verbatim format %q", ErrBadPayload, f.Format)
		}
		if !utf8.ValidString(f.Format) {
			return fmt.Errorf("%w: verbatim format", ErrBadUTF8)
		}
	case KindArray, KindSet:
		for _, e := range f.Elems {
			if err := e.Validate(); err != nil {
				return err
			}
		}
	case KindMap:
		for _, p := range f.Pairs {
			if err := p.Key.Validate(); err != nil {
				return err
			}
			if err := p.Value.Validate(); err != nil {
				return err
			}
		}
	case KindInteger, KindBulkString, KindNull, KindBoolean, KindDouble, KindBulkError:
	default:
		return fmt.Errorf("%w: %s", ErrWrongPrefix, f.Kind)
	}
	return nil
}

// String renders f for debugging; it is not the wire encoding.
func (f Frame) String() string {
	switch f.Kind {
	case KindSimpleString, KindSimpleError, KindBigNumber, KindBulkError:
		return fmt.Sprintf("%s(%q)", f.Kind, f.Str)
	case KindVerbatim:
		return fmt.Sprintf("%s(%s:%q)", f.Kind, f.Format, f.Str)
	case KindInteger:
		return fmt.Sprintf("%s(%d)", f.Kind, f.Int)
	case KindBoolean:
		return fmt.Sprintf("%s(%t)", f.Kind, f.Bool)
	case KindDouble:
		return fmt.Sprintf("%s(%s)", f.Kind, formatDouble(f.Float))
	case KindNull:
		return "null"
	case KindBulkString:
		if f.IsNull {
			return "bulk-string(nil)"
		}
		return fmt.Sprintf("%s(%q)", f.Kind, f.Bulk)
	case KindArray, KindSet:
		if f.IsNull {
			return f.Kind.String() + "(nil)"
		}
		parts := make([]string, len(f.Elems))
		for i, e := range f.Elems {
			parts[i] = e.String()
		}
		return f.Kind.String() + "[" + strings.Join(parts, " ") + "]"
	case KindMap:
		if f.IsNull {
			return "map(nil)"
		}
		parts := make([]string, len(f.Pairs))
		for i, p := range f.Pairs {
			parts[i] = p.Key.String() + ": " + p.Value.String()
		}
		return "map{" + strings.Join(parts, ", ") + "}"
	}
	return f.Kind.String()
}

func isBigNumber(s string) bool {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
