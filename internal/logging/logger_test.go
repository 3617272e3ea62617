package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandlerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger = WithComponent(logger, "scheduler")
	logger.Info("job accepted", String(FieldJobID, "abc123"), Int("queued", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO scheduler: job accepted") {
		t.Fatalf("component not promoted into prefix: %q", line)
	}
	if !strings.Contains(line, "job_id=abc123") || !strings.Contains(line, "queued=3") {
		t.Fatalf("attributes missing: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not appear as key/value: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, new(slog.LevelVar)))

	logger.Warn("probe slow", String("source", "intro clip.mp4"))

	if !strings.Contains(buf.String(), `source="intro clip.mp4"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestPrettyHandlerFormatsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, new(slog.LevelVar)))

	logger.Error("encode failed", Error(errors.New("exit status 1")))

	if !strings.Contains(buf.String(), `error="exit status 1"`) {
		t.Fatalf("error attr not rendered: %q", buf.String())
	}
}

func TestJSONHandlerKeyAliases(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newJSONHandler(&buf, new(slog.LevelVar)))

	logger.Info("hello", String(FieldStage, "probing"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if payload["msg"] != "hello" {
		t.Fatalf("expected msg key, got %v", payload)
	}
	if payload["stage"] != "probing" {
		t.Fatalf("expected stage attr, got %v", payload)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Info("should not panic", Int("n", 1))
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Fatal("nop logger should report disabled")
	}
}
