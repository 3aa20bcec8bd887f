package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerRendersAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("sorted file", String("category", "1100-1499"), Int("rows", 42))

	out := buf.String()
	if !strings.Contains(out, "INFO") {
		t.Fatalf("missing level label in %q", out)
	}
	if !strings.Contains(out, "sorted file") {
		t.Fatalf("missing message in %q", out)
	}
	if !strings.Contains(out, "category=1100-1499") || !strings.Contains(out, "rows=42") {
		t.Fatalf("missing attrs in %q", out)
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("expected info suppressed, got %q", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("expected warn emitted, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewComponentLoggerToleratesNil(t *testing.T) {
	logger := NewComponentLogger(nil, "sorter")
	logger.Info("no panic expected")
}
