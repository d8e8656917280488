package resp

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

// ============================================================
// Encode Tests
// ============================================================

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  string
	}{
		{"simple string", OK(), "+OK\r\n"},
		{"simple error", SimpleError("ERR unknown command 'foo'"), "-ERR unknown command 'foo'\r\n"},
		{"integer", Integer(42), ":42\r\n"},
		{"negative integer", Integer(-7), ":-7\r\n"},
		{"min integer", Integer(math.MinInt64), ":-9223372036854775808\r\n"},
		{"bulk", BulkText("world"), "$5\r\nworld\r\n"},
		{"empty bulk", BulkString(nil), "$0\r\n\r\n"},
		{"null bulk", NullBulk(), "$-1\r\n"},
		{"array", Array(BulkText("a"), NullBulk()), "*2\r\n$1\r\na\r\n$-1\r\n"},
		{"empty array", Array(), "*0\r\n"},
		{"null array", NullArray(), "*-1\r\n"},
		{"null", Null(), "_\r\n"},
		{"true", Boolean(true), "#t\r\n"},
		{"false", Boolean(false), "#f\r\n"},
		{"double", Double(1.5), ",1.5\r\n"},
		{"double integral", Double(10), ",10\r\n"},
		{"double inf", Double(math.Inf(1)), ",inf\r\n"},
		{"double -inf", Double(math.Inf(-1)), ",-inf\r\n"},
		{"double nan", Double(math.NaN()), ",nan\r\n"},
		{"big number", BigNumber("-123456789012345678901234567890"), "(-123456789012345678901234567890\r\n"},
		{"bulk error", BulkError("ERR boom"), "!8\r\nERR boom\r\n"},
		{"verbatim", Verbatim("txt", "Some string"), "=15\r\ntxt:Some string\r\n"},
		{"map keeps order", Map(
			Pair{Key: BulkText("z"), Value: Integer(1)},
			Pair{Key: BulkText("a"), Value: Integer(2)},
		), "%2\r\n$1\r\nz\r\n:1\r\n$1\r\na\r\n:2\r\n"},
		{"null map", NullMap(), "%-1\r\n"},
		{"set keeps order", Set(BulkText("b"), BulkText("a")), "~2\r\n$1\r\nb\r\n$1\r\na\r\n"},
		{"null set", NullSet(), "~-1\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.frame)
			if string(got) != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodedLen(t *testing.T) {
	for i, f := range sampleFrames() {
		if got, want := EncodedLen(f), len(Encode(f)); got != want {
			t.Errorf("frame %d (%s): EncodedLen = %d, want %d", i, f, got, want)
		}
	}
}

func TestAppendFrame_Appends(t *testing.T) {
	dst := []byte("prefix:")
	dst = AppendFrame(dst, Integer(1))
	if string(dst) != "prefix::1\r\n" {
		t.Errorf("AppendFrame = %q", dst)
	}
}

// ============================================================
// Writer Tests
// ============================================================

func TestWriter_WriteFrame(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	if err := w.WriteFrame(OK()); err != nil {
		t.Fatalf("WriteFrame error = %v", err)
	}
	if err := w.WriteFrame(BulkText("v")); err != nil {
		t.Fatalf("WriteFrame error = %v", err)
	}

	if out.String() != "+OK\r\n$1\r\nv\r\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestWriter_WriteCommand(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	if err := w.WriteCommand("SET", "hello", "world"); err != nil {
		t.Fatalf("WriteCommand error = %v", err)
	}

	want := "*3\r\n$3\r\nSET\r\n$5\r\nhello\r\n$5\r\nworld\r\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriter_PropagatesError(t *testing.T) {
	w := NewWriter(failingWriter{})
	if err := w.WriteFrame(OK()); err == nil {
		t.Error("WriteFrame error = nil, want error")
	}
}

func BenchmarkEncode_Array(b *testing.B) {
	f := Array(BulkText("a"), BulkText("1"), BulkText("b"), BulkText("2"))
	buf := make([]byte, 0, 64)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf = AppendFrame(buf[:0], f)
	}
}
