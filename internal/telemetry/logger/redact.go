package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

// Attribute keys whose values are never logged.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"private_key",
	"tls_key",
}

const redactedValue = "***REDACTED***"

// MaxValueLen caps string attributes. Stored values can be large and are
// only ever logged for diagnostics.
const MaxValueLen = 256

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if len(v) > MaxValueLen {
			return slog.String(a.Key, Truncate(v))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// Truncate shortens s to MaxValueLen bytes and notes how much was cut.
func Truncate(s string) string {
	if len(s) <= MaxValueLen {
		return s
	}
	return s[:MaxValueLen] + "...(" + strconv.Itoa(len(s)-MaxValueLen) + " more bytes)"
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
