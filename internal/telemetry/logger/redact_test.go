package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRedact_SensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Output: &buf})

	l.Info("tls", "tls_key_file", "/etc/meshkv/key.pem", "password", "hunter2", "addr", ":6379")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["tls_key_file"] != redactedValue || entry["password"] != redactedValue {
		t.Errorf("sensitive values not redacted: %v", entry)
	}
	if entry["addr"] != ":6379" {
		t.Errorf("addr = %v", entry["addr"])
	}
}

func TestRedact_TruncatesLongValues(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Output: &buf})

	long := strings.Repeat("x", MaxValueLen+10)
	l.Info("big", "value", long)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	got, _ := entry["value"].(string)
	if !strings.HasSuffix(got, "...(10 more bytes)") {
		t.Errorf("value = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if Truncate("short") != "short" {
		t.Error("Truncate changed a short value")
	}
	s := strings.Repeat("a", MaxValueLen+1)
	if got := Truncate(s); !strings.HasPrefix(got, strings.Repeat("a", MaxValueLen)+"...") {
		t.Errorf("Truncate = %q", got)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"password", true},
		{"ClientSecret", true},
		{"tls_key_file", true},
		{"key", false},
		{"field", false},
	}
	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
