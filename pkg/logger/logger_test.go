package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("warn", &buf)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("visible warn", "kind", "raw")
	l.Error("visible error", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug/info to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "WARN: visible warn kind=raw") {
		t.Fatalf("missing warn line: %s", out)
	}
	if !strings.Contains(out, "ERROR: visible error error=boom") {
		t.Fatalf("missing error line: %s", out)
	}
}

func TestLogger_WithPrefixesFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter("debug", &buf)
	child := base.With("session_id", "abc")

	child.Info("extracted", "fields", 3)
	base.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasSuffix(lines[0], "INFO: extracted session_id=abc fields=3") {
		t.Fatalf("unexpected child line: %s", lines[0])
	}
	if strings.Contains(lines[1], "session_id") {
		t.Fatalf("parent logger must not inherit child fields: %s", lines[1])
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		" error ": ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
