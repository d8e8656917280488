package repl

import (
	"reflect"
	"testing"
)

func TestNewCompleter(t *testing.T) {
	c := NewCompleter([]string{"set", "GET", "get"})

	want := []string{"exit", "get", "help", "quit", "set"}
	if got := c.Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("Commands() = %v, want %v", got, want)
	}
}

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter([]string{"hget", "hgetall", "hmset", "hset", "set", "sadd", "scard"})

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{"hget prefix", "hget", []string{"hget", "hgetall"}},
		{"upper prefix", "HM", []string{"HMSET"}},
		{"mixed case", "Sc", []string{"scard"}},
		{"builtin", "ex", []string{"exit"}},
		{"no match", "zadd", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Complete(tt.prefix); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Complete(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}

	if got := c.Complete(""); len(got) != len(c.Commands()) {
		t.Errorf("Complete(\"\") returned %d items, want %d", len(got), len(c.Commands()))
	}
}
