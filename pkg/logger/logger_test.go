package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelsAndVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("warn", false)
	l.SetOutput(&buf)

	l.Debug("debug %d", 1)
	l.Info("info")
	l.Warn("careful %s", "now")
	l.Error("broken")
	l.Progress("🔍", "hidden step")
	l.ProgressAlways("✅", "done in %ds", 2)

	want := "[WARN] careful now\n[ERROR] broken\n✅ done in 2s\n"
	if got := buf.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestVerboseProgress(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("debug", true)
	l.SetOutput(&buf)

	l.Info("engine %s", "tesseract")
	l.Progress("🔍", "step")
	out := buf.String()
	if !strings.Contains(out, "[INFO] engine tesseract") || !strings.Contains(out, "🔍 step") {
		t.Fatalf("output = %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"DEBUG":   LevelDebug,
		"warning": LevelWarn,
		" error ": LevelError,
		"bogus":   LevelInfo,
	} {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	l.ProgressAlways("x", "nothing")
	if l.Verbose() {
		t.Fatal("discard logger should not be verbose")
	}
}
