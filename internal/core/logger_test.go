package core

import (
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"Info":    LevelInfo,
		"":        LevelInfo,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"off":     LevelOff,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerSinkReceivesFormattedLines(t *testing.T) {
	var lines []string
	l := NewLogger(LogConfig{Level: "info"})
	l.SetSink(func(line string) { lines = append(lines, line) })

	l.Infof("Net", "connected=%v", true)
	l.Debugf("Net", "suppressed at info level")

	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0], "[info] [Net] connected=true") {
		t.Errorf("line = %q", lines[0])
	}
}

func TestLoggerComponentLevelOverride(t *testing.T) {
	var lines []string
	l := NewLogger(LogConfig{
		Level:      "warn",
		Components: map[string]string{"Probe": "debug"},
	})
	l.SetSink(func(line string) { lines = append(lines, line) })

	l.Debugf("Probe", "per-component debug")
	l.Infof("Net", "suppressed by global warn")
	l.Warnf("Net", "passes")

	if len(lines) != 2 {
		t.Fatalf("got %d lines: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[Probe]") || !strings.Contains(lines[1], "[Net]") {
		t.Errorf("lines = %v", lines)
	}
}

func TestLoggerNilSinkRestoresDefault(t *testing.T) {
	var lines []string
	l := NewLogger(LogConfig{})
	l.SetSink(func(line string) { lines = append(lines, line) })
	l.Infof("Core", "to sink")
	l.SetSink(nil)
	l.Infof("Core", "to standard log") // must not panic

	if len(lines) != 1 {
		t.Fatalf("got %d sink lines, want 1", len(lines))
	}
}
