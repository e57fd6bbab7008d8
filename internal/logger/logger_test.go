package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewColorsLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, nil, false)
	log.Info("hello")
	out := buf.String()
	if !strings.Contains(out, "\033[32m") {
		t.Fatalf("info must be colored green: %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("message missing: %q", out)
	}
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, nil, false)
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug must be suppressed by default: %q", buf.String())
	}
	log = New(&buf, nil, true)
	log.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("verbose logger must emit debug: %q", buf.String())
	}
}

func TestNewDuplicatesToAudit(t *testing.T) {
	var console, audit bytes.Buffer
	log := New(&console, &audit, false)
	log.Warn("rotated", "pid", 42)
	if !strings.Contains(console.String(), "rotated") {
		t.Fatalf("console output missing: %q", console.String())
	}
	if !strings.Contains(audit.String(), "rotated") || !strings.Contains(audit.String(), "pid=42") {
		t.Fatalf("audit output missing: %q", audit.String())
	}
	if strings.Contains(audit.String(), "\033[") {
		t.Fatalf("audit log must not carry ANSI codes: %q", audit.String())
	}
}

func TestConfigWriter(t *testing.T) {
	if (Config{}).Writer() != nil {
		t.Fatalf("no path means no writer")
	}
	dir := t.TempDir()
	c := Config{Path: filepath.Join(dir, "sub", "mcpctl.log")}
	w := c.Writer()
	if w == nil {
		t.Fatalf("writer must be built when a path is set")
	}
	if _, err := w.Write([]byte("entry\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = w.Close()
	if _, err := os.Stat(c.Path); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}

func TestOpenAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "svc.log")
	f, err := OpenAppend(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("one\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = f.Close()
	// Reopening must append, not truncate.
	f, err = OpenAppend(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := f.WriteString("two\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = f.Close()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "one\ntwo\n" {
		t.Fatalf("append semantics broken: %q", string(b))
	}
}
