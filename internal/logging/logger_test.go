package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"avshelf/internal/config"
	"avshelf/internal/services"
)

func TestNewJSONLoggerWritesStructuredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Options{Level: "debug", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("organized", String("target", "/lib/A/ABC-123.mp4"), Int("bytes", 42))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	if entry["msg"] != "organized" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Fatalf("level = %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key in %v", entry)
	}
	if entry["bytes"] != float64(42) {
		t.Fatalf("bytes = %v", entry["bytes"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleHandlerPromotesComponentAndCode(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))
	logger = NewComponentLogger(logger, "organizer")
	logger.Info("file moved", String(FieldCode, "SSIS-001"), String("target", "a b"))

	line := buf.String()
	if !strings.Contains(line, "INFO organizer [SSIS-001]: file moved") {
		t.Fatalf("unexpected prefix: %q", line)
	}
	if !strings.Contains(line, `target="a b"`) {
		t.Fatalf("expected quoted value: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not repeat as a field: %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info line should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "WARN shown") {
		t.Fatalf("expected warn line: %q", buf.String())
	}
}

func TestWithContextAddsRequestAndCode(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	base := slog.New(newJSONHandler(&buf, lvl, false))

	ctx := services.WithRequestID(context.Background(), "req-1")
	ctx = services.WithCode(ctx, "ABC-123")
	WithContext(ctx, base).Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[FieldRequestID] != "req-1" || entry[FieldCode] != "ABC-123" {
		t.Fatalf("context fields missing: %v", entry)
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl, false))
	WarnWithContext(logger, "sidecar failed", "sidecar_write_failed", String(FieldImpact, "no sidecar"))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[FieldEventType] != "sidecar_write_failed" {
		t.Fatalf("event_type = %v", entry[FieldEventType])
	}
	if entry[FieldImpact] != "no sidecar" {
		t.Fatalf("impact should keep caller value, got %v", entry[FieldImpact])
	}
	if entry[FieldErrorHint] == nil {
		t.Fatalf("error_hint default missing: %v", entry)
	}
}

func TestNewFromConfigCreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	cfg := config.Default()
	cfg.Paths.LogDir = dir
	cfg.Logging.Format = "json"

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("started")
	if _, err := os.Stat(filepath.Join(dir, "avshelf.log")); err != nil {
		t.Fatalf("expected avshelf.log: %v", err)
	}
}

func TestBatchProgressBuckets(t *testing.T) {
	p := NewBatchProgress(20, 25)
	var fired []int
	for i := 1; i <= 20; i++ {
		if p.Advance(i) {
			fired = append(fired, i)
		}
	}
	want := []int{1, 5, 10, 15, 20}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired = %v, want %v", fired, want)
		}
	}
	if p.Advance(20) {
		t.Fatal("completion should only fire once")
	}
}
