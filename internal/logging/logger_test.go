package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/vanshika/graphbind/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug("cursor opened", "cursor_id", "abc")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "cursor opened" || record["cursor_id"] != "abc" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNewWithWriter_TextIncludeCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Format: "text", IncludeCaller: true}, &buf)
	logger.Info("query executed")

	out := buf.String()
	if !strings.Contains(out, "source=") || !strings.Contains(out, "logger_test.go") {
		t.Fatalf("expected caller in output, got %q", out)
	}
	if !strings.Contains(out, "service=graphbind") {
		t.Fatalf("expected service attribute, got %q", out)
	}
}
