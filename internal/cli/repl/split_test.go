package repl

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{"plain", "SET k v", []string{"SET", "k", "v"}, false},
		{"extra whitespace", "  GET\t k  ", []string{"GET", "k"}, false},
		{"empty", "   ", nil, false},
		{"double quoted", `SET k "hello world"`, []string{"SET", "k", "hello world"}, false},
		{"escapes", `SET k "a\nb\t\"c\""`, []string{"SET", "k", "a\nb\t\"c\""}, false},
		{"hex escape", `SET k "\x41\x7a"`, []string{"SET", "k", "Az"}, false},
		{"single quoted", `SET k 'it\'s \n raw'`, []string{"SET", "k", `it's \n raw`}, false},
		{"empty quoted", `SET k ""`, []string{"SET", "k", ""}, false},
		{"quote inside word", `SET k a"b`, []string{"SET", "k", "a"}, true},
		{"unterminated double", `SET k "abc`, nil, true},
		{"unterminated single", `SET k 'abc`, nil, true},
		{"closing quote glued", `SET k "abc"def`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if tt.wantErr {
				if !errors.Is(err, ErrUnbalancedQuotes) {
					t.Fatalf("SplitArgs(%q) error = %v, want ErrUnbalancedQuotes", tt.line, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitArgs(%q) error = %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitArgs(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}
