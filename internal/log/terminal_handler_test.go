package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(buf *bytes.Buffer, level slog.Level) *TerminalHandler {
	return newTerminalHandler(buf, &slog.HandlerOptions{Level: level})
}

func TestTerminalHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	h := newTestHandler(&buf, slog.LevelWarn)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("INFO should be disabled at WARN")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("ERROR should be enabled at WARN")
	}
}

func TestTerminalHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTestHandler(&buf, slog.LevelDebug))

	logger.Info("job submitted", "job_id", "abc", "rows", 42)

	out := buf.String()
	for _, want := range []string{"INF", "job submitted", "job_id=", "abc", "rows=", "42"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("output must end with newline")
	}
}

func TestTerminalHandler_LevelTags(t *testing.T) {
	tests := []struct {
		level slog.Level
		tag   string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(newTestHandler(&buf, slog.LevelDebug))
		logger.Log(context.Background(), tt.level, "msg")
		if !strings.Contains(buf.String(), tt.tag) {
			t.Errorf("level %v: output %q missing tag %q", tt.level, buf.String(), tt.tag)
		}
	}
}

func TestTerminalHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTestHandler(&buf, slog.LevelInfo)).With("component", "worker")

	logger.Info("first")
	logger.Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "component=") || !strings.Contains(line, "worker") {
			t.Errorf("line %q missing fixed attribute", line)
		}
	}
}

func TestTerminalHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTestHandler(&buf, slog.LevelInfo)).WithGroup("queue")

	logger.Info("claimed", "task", 7)

	if !strings.Contains(buf.String(), "queue.task=") {
		t.Errorf("output %q missing group-qualified key", buf.String())
	}
}

func TestTerminalHandler_QuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTestHandler(&buf, slog.LevelInfo))

	logger.Info("msg", "step", "loading rows")

	if !strings.Contains(buf.String(), `"loading rows"`) {
		t.Errorf("output %q should quote values containing spaces", buf.String())
	}
}

func TestTerminalHandler_RendersErrorsAndDurations(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTestHandler(&buf, slog.LevelInfo))

	logger.Info("msg", "error", errors.New("boom happened"), "took", 1500*time.Millisecond)

	out := buf.String()
	if !strings.Contains(out, `"boom happened"`) {
		t.Errorf("output %q should render the error message", out)
	}
	if !strings.Contains(out, "1.5s") {
		t.Errorf("output %q should render the duration", out)
	}
}
