package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSetVerbose(t *testing.T) {
	defer func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	}()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	l.Debug("test message %s", "arg")

	if buf.String() != "[DEBUG] test message arg\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.Debug("test message")
	l.Info("test message")
	l.Warn("test message")
	l.Section("Search")

	if buf.Len() > 0 {
		t.Errorf("expected no output when verbose is disabled, got %q", buf.String())
	}
}

func TestError_AlwaysPrinted(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.Error("collection %q conflicts", "kb")

	if buf.String() != "[ERROR] collection \"kb\" conflicts\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestLevels_Prefixes(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	l.Info("i")
	l.Warn("w")
	l.Section("Name")

	out := buf.String()
	for _, want := range []string{"[INFO] i\n", "[WARN] w\n", "\n=== Name ===\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestPackageFunctions_UseDefault(t *testing.T) {
	defer func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("via default")
	Error("boom")

	if !strings.Contains(buf.String(), "[DEBUG] via default") {
		t.Errorf("expected debug output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "[ERROR] boom") {
		t.Errorf("expected error output, got %q", buf.String())
	}
}

func TestOrDefault(t *testing.T) {
	if OrDefault(nil) != Default() {
		t.Error("expected nil to resolve to the default logger")
	}

	l := Discard()
	if OrDefault(l) != l {
		t.Error("expected non-nil logger to be returned unchanged")
	}
}
