package output

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/yndnr/meshkv/pkg/resp"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"raw", FormatRaw, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"table", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("json formatter type")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("yaml formatter type")
	}
	if _, ok := NewFormatter(FormatRaw).(*RawFormatter); !ok {
		t.Error("raw formatter type")
	}
}

func TestRawFormatter(t *testing.T) {
	tests := []struct {
		name  string
		frame resp.Frame
		want  string
	}{
		{"ok", resp.OK(), "OK\n"},
		{"error", resp.SimpleError("ERR boom"), "(error) ERR boom\n"},
		{"integer", resp.Integer(2), "(integer) 2\n"},
		{"bulk", resp.BulkText("world"), "\"world\"\n"},
		{"null bulk", resp.NullBulk(), "(nil)\n"},
		{"null", resp.Null(), "(nil)\n"},
		{"empty array", resp.Array(), "(empty array)\n"},
		{"boolean", resp.Boolean(true), "(true)\n"},
		{"double", resp.Double(1.5), "(double) 1.5\n"},
		{"inf", resp.Double(math.Inf(-1)), "(double) -inf\n"},
		{"array", resp.Array(resp.BulkText("a"), resp.NullBulk()), "1) \"a\"\n2) (nil)\n"},
		{"nested", resp.Array(resp.Integer(1), resp.Array(resp.BulkText("x"), resp.BulkText("y"))),
			"1) (integer) 1\n2) 1) \"x\"\n   2) \"y\"\n"},
		{"map", resp.Map(resp.Pair{Key: resp.BulkText("proto"), Value: resp.Integer(3)}),
			"1# proto => (integer) 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&RawFormatter{}).Format(&buf, tt.frame); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestValue(t *testing.T) {
	f := resp.Map(
		resp.Pair{Key: resp.BulkText("server"), Value: resp.BulkText("meshkv")},
		resp.Pair{Key: resp.BulkText("proto"), Value: resp.Integer(3)},
		resp.Pair{Key: resp.BulkText("modules"), Value: resp.Array()},
		resp.Pair{Key: resp.BulkText("missing"), Value: resp.NullBulk()},
	)
	want := map[string]any{
		"server":  "meshkv",
		"proto":   int64(3),
		"modules": []any{},
		"missing": nil,
	}
	if got := Value(f); !reflect.DeepEqual(got, want) {
		t.Errorf("Value() = %#v, want %#v", got, want)
	}

	if got := Value(resp.SimpleError("ERR x")); !reflect.DeepEqual(got, map[string]any{"error": "ERR x"}) {
		t.Errorf("Value(error) = %#v", got)
	}
	if got := Value(resp.Double(math.NaN())); got != "nan" {
		t.Errorf("Value(nan) = %#v", got)
	}
}

func TestJSONFormatter_Frame(t *testing.T) {
	var buf bytes.Buffer
	f := resp.Array(resp.BulkText("a"), resp.Integer(1), resp.NullBulk())
	if err := (&JSONFormatter{}).Format(&buf, f); err != nil {
		t.Fatal(err)
	}
	got := strings.Join(strings.Fields(buf.String()), "")
	if got != `["a",1,null]` {
		t.Errorf("json = %q", got)
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"ops": 10, "command": "SET"}
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "command: SET\nops: 10\n" {
		t.Errorf("yaml = %q", buf.String())
	}

	buf.Reset()
	if err := (&YAMLFormatter{}).Format(&buf, resp.Array(resp.BulkText("x"))); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "- x\n" {
		t.Errorf("yaml frame = %q", buf.String())
	}
}
