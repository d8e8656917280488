package resp

import (
	"errors"
	"math"
	"testing"
)

// sampleFrames covers every kind, null and empty variants, and nesting.
func sampleFrames() []Frame {
	return []Frame{
		SimpleString("OK"),
		SimpleString("héllo wörld"),
		SimpleError("ERR something went wrong"),
		Integer(0),
		Integer(-1),
		Integer(math.MaxInt64),
		Integer(math.MinInt64),
		BulkText("hello"),
		BulkString([]byte{}),
		BulkString([]byte("bin\r\nary\x00\xff")),
		NullBulk(),
		Array(),
		NullArray(),
		Array(BulkText("GET"), BulkText("key")),
		Null(),
		Boolean(true),
		Boolean(false),
		Double(0),
		Double(3.14159),
		Double(-1e-300),
		Double(1e21),
		Double(math.Inf(1)),
		Double(math.Inf(-1)),
		Double(math.NaN()),
		BigNumber("3492890328409238509324850943850943825024385"),
		BigNumber("-12"),
		BulkError("SYNTAX invalid syntax"),
		BulkError(""),
		Verbatim("txt", "Some string"),
		Verbatim("mkd", ""),
		Map(),
		NullMap(),
		Map(
			Pair{Key: SimpleString("first"), Value: Integer(1)},
			Pair{Key: BulkText("second"), Value: Array(Boolean(true), Null())},
		),
		Set(),
		NullSet(),
		Set(Integer(1), BulkText("two"), Double(3)),
		Array(
			Array(Integer(1), Array(Integer(2), Array(NullBulk()))),
			Map(Pair{Key: Set(Integer(1)), Value: Verbatim("txt", "x")}),
			NullArray(),
		),
	}
}

// ============================================================
// Kind Tests
// ============================================================

func TestKind_String(t *testing.T) {
	if KindBulkString.String() != "bulk-string" {
		t.Errorf("KindBulkString.String() = %q", KindBulkString.String())
	}
	if got := Kind('?').String(); got != `kind('?')` {
		t.Errorf("Kind('?').String() = %q", got)
	}
}

func TestKind_Valid(t *testing.T) {
	for _, k := range []Kind{'+', '-', ':', '$', '*', '_', '#', ',', '(', '!', '=', '%', '~'} {
		if !k.Valid() {
			t.Errorf("Kind(%q).Valid() = false", byte(k))
		}
	}
	if Kind('?').Valid() || KindInvalid.Valid() {
		t.Error("unexpected valid kind")
	}
}

// ============================================================
// Frame Tests
// ============================================================

func TestFrame_NullAndEmptyDistinct(t *testing.T) {
	pairs := []struct {
		name  string
		empty Frame
		null  Frame
	}{
		{"bulk", BulkString(nil), NullBulk()},
		{"array", Array(), NullArray()},
		{"map", Map(), NullMap()},
		{"set", Set(), NullSet()},
	}

	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			if p.empty.Equal(p.null) {
				t.Error("empty and null frames compare equal")
			}
			if string(Encode(p.empty)) == string(Encode(p.null)) {
				t.Error("empty and null frames share an encoding")
			}
		})
	}
}

func TestFrame_Equal(t *testing.T) {
	frames := sampleFrames()
	for i, f := range frames {
		if !f.Equal(f.Clone()) {
			t.Errorf("frame %d (%s) not equal to its clone", i, f)
		}
	}

	if Integer(1).Equal(Integer(2)) {
		t.Error("Integer(1) == Integer(2)")
	}
	if BulkText("a").Equal(SimpleString("a")) {
		t.Error("frames of different kinds compare equal")
	}
	if Array(Integer(1)).Equal(Array(Integer(1), Integer(2))) {
		t.Error("arrays of different length compare equal")
	}
	if !Double(math.NaN()).Equal(Double(math.NaN())) {
		t.Error("NaN doubles should compare equal")
	}
}

func TestFrame_CloneIsDeep(t *testing.T) {
	orig := Array(BulkText("abc"), Map(Pair{Key: BulkText("k"), Value: BulkText("v")}))
	cp := orig.Clone()

	cp.Elems[0].Bulk[0] = 'X'
	cp.Elems[1].Pairs[0].Value.Bulk[0] = 'Y'

	if string(orig.Elems[0].Bulk) != "abc" {
		t.Errorf("clone shares bulk memory: %q", orig.Elems[0].Bulk)
	}
	if string(orig.Elems[1].Pairs[0].Value.Bulk) != "v" {
		t.Error("clone shares map memory")
	}
}

func TestFrame_Text(t *testing.T) {
	if s, ok := BulkText("v").Text(); !ok || s != "v" {
		t.Errorf("BulkText.Text() = (%q, %v)", s, ok)
	}
	if _, ok := NullBulk().Text(); ok {
		t.Error("NullBulk().Text() ok = true")
	}
	if _, ok := Integer(1).Text(); ok {
		t.Error("Integer(1).Text() ok = true")
	}
}

func TestFrame_Validate(t *testing.T) {
	for i, f := range sampleFrames() {
		if err := f.Validate(); err != nil {
			t.Errorf("frame %d (%s): Validate() = %v", i, f, err)
		}
	}

	tests := []struct {
		name  string
		frame Frame
		want  error
	}{
		{"simple string with CRLF", SimpleString("a\r\nb"), ErrBadPayload},
		{"simple error with LF", SimpleError("a\nb"), ErrBadPayload},
		{"simple string invalid utf8", SimpleString("\xff"), ErrBadUTF8},
		{"empty simple string", SimpleString(""), ErrBadPayload},
		{"empty simple error", SimpleError(""), ErrBadPayload},
		{"bad big number", BigNumber("12a"), ErrBadPayload},
		{"short verbatim format", Verbatim("tx", "x"), ErrBadPayload},
		{"nested invalid", Array(SimpleString("\r")), ErrBadPayload},
		{"zero frame", Frame{}, ErrWrongPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.frame.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
