package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", "text", &buf)

	logger.Info("dashboard loaded", "org", "org-1")

	out := buf.String()
	if !strings.Contains(out, "dashboard loaded") || !strings.Contains(out, "org=org-1") {
		t.Errorf("unexpected text output: %s", out)
	}
	if !strings.Contains(out, "app=teampulse") {
		t.Errorf("expected app attribute, got: %s", out)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", "JSON", &buf)

	logger.Info("reassigned", "count", 3)

	out := buf.String()
	if !strings.Contains(out, `"msg":"reassigned"`) || !strings.Contains(out, `"count":3`) {
		t.Errorf("unexpected json output: %s", out)
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("warn", "text", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn should pass at warn level: %s", out)
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
