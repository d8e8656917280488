package redisserver

import (
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/meshkv/pkg/resp"
)

func TestReadInline(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantArgs []string
		wantErr  error
		wantLeft int
	}{
		{"crlf", "PING\r\n", []string{"PING"}, nil, 0},
		{"lf only", "PING\n", []string{"PING"}, nil, 0},
		{"args", "SET k v\r\n", []string{"SET", "k", "v"}, nil, 0},
		{"extra spaces", "  GET   k  \r\n", []string{"GET", "k"}, nil, 0},
		{"leaves next request", "PING\r\n*1\r\n", []string{"PING"}, nil, 4},
		{"incomplete", "GET k", nil, resp.ErrIncomplete, 5},
		{"too long", strings.Repeat("a", MaxInlineLen+1), nil, errInlineTooLong, MaxInlineLen + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := resp.NewBuffer(0)
			_, _ = buf.Write([]byte(tt.input))

			f, err := readInline(buf)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("readInline() error = %v, want %v", err, tt.wantErr)
			}
			if buf.Len() != tt.wantLeft {
				t.Errorf("left = %d, want %d", buf.Len(), tt.wantLeft)
			}
			if tt.wantErr != nil {
				return
			}
			if f.Kind != resp.KindArray || len(f.Elems) != len(tt.wantArgs) {
				t.Fatalf("frame = %v, want %d args", f, len(tt.wantArgs))
			}
			for i, want := range tt.wantArgs {
				if got := string(f.Elems[i].Bulk); got != want {
					t.Errorf("arg %d = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestReadInline_ArgsOutliveBuffer(t *testing.T) {
	buf := resp.NewBuffer(0)
	_, _ = buf.Write([]byte("SET k v\r\n"))

	f, err := readInline(buf)
	if err != nil {
		t.Fatalf("readInline() error = %v", err)
	}
	_, _ = buf.Write([]byte("XXXXXXXXX"))
	if got := string(f.Elems[2].Bulk); got != "v" {
		t.Errorf("arg = %q after buffer reuse, want v", got)
	}
}

func TestIsInline(t *testing.T) {
	for _, b := range []byte("*$+-:_#,(!=%~>?\r\n0") {
		if isInline(b) {
			t.Errorf("isInline(%q) = true", b)
		}
	}
	for _, b := range []byte("aZpS") {
		if !isInline(b) {
			t.Errorf("isInline(%q) = false", b)
		}
	}
}
