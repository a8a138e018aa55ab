package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Format: JSON, Service: "afribook"})

	log.Info("request", "authorization", "Bearer T1", "password", "pw", "path", "/auth/profile")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if entry["authorization"] != redacted {
		t.Errorf("authorization = %v, want redacted", entry["authorization"])
	}
	if entry["password"] != redacted {
		t.Errorf("password = %v, want redacted", entry["password"])
	}
	if entry["path"] != "/auth/profile" {
		t.Errorf("path = %v, want /auth/profile", entry["path"])
	}
	if entry[SERVICE] != "afribook" {
		t.Errorf("service = %v, want afribook", entry[SERVICE])
	}
}

func TestNew_TextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Format: TEXT, Level: WARN})

	log.Info("hidden")
	log.Warn("visible", "token", "")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn line missing: %q", out)
	}
	if strings.Contains(out, redacted) {
		t.Errorf("empty secret values should stay empty: %q", out)
	}
}
