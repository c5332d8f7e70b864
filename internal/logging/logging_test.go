package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":    slog.LevelError,
		" WARN ":   slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"info":     slog.LevelInfo,
		"debug":    slog.LevelDebug,
		"":         slog.LevelDebug,
		"nonsense": slog.LevelDebug,
	}
	for input, want := range cases {
		if got := levelFromString(input); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewWithWriterFiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("contract over-scheduled", "contract", "c1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked: %s", out)
	}
	if !strings.Contains(out, "contract=c1") {
		t.Fatalf("warn line missing: %s", out)
	}
}
