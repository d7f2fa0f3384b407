package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"trace": LevelTrace,
		"TRACE": LevelTrace,
		"debug": LevelDebug,
		"info":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
	}

	for input, want := range tests {
		if got := ParseLogLevel(input); got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, want %v", input, got, want)
		}
	}

	if got := ParseLogLevel("unknown"); got != LevelInfo {
		t.Fatalf("ParseLogLevel default = %v, want %v", got, LevelInfo)
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LevelInfo, &buf)
	logger.Tracef("resolve %s", "focused")
	logger.Debugf("query %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected no output below info, got %q", buf.String())
	}
	logger.Warnf("descriptor %q rejected", "north.bogus")
	if !strings.Contains(buf.String(), `[WARN] descriptor "north.bogus" rejected`) {
		t.Fatalf("unexpected output %q", buf.String())
	}
	logger.SetLevel(LevelTrace)
	logger.Tracef("now visible")
	if !strings.Contains(buf.String(), "[TRACE] now visible") {
		t.Fatalf("trace line missing from %q", buf.String())
	}
	if got := logger.Level().String(); got != "trace" {
		t.Fatalf("Level().String() = %q, want trace", got)
	}
}
