package record

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc.pid")
	in := Record{PID: 4242, StartUnix: 1700000000}
	if err := Write(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	first, _, _ := strings.Cut(string(b), "\n")
	if first != "4242" {
		t.Fatalf("first line must be the plain pid, got %q", first)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out == nil || out.PID != in.PID || out.StartUnix != in.StartUnix {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestLoadLegacySingleInteger(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.pid")
	if err := os.WriteFile(path, []byte("12345\n"), 0o600); err != nil {
		t.Fatalf("write legacy: %v", err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("load legacy: %v", err)
	}
	if r == nil || r.PID != 12345 || r.StartUnix != 0 {
		t.Fatalf("legacy load mismatch: %+v", r)
	}
}

func TestLoadMissingFile(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "absent.pid"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if r != nil {
		t.Fatalf("expected nil record, got %+v", r)
	}
}

func TestLoadGarbagePid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pid")
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for garbage pid")
	}
}

func TestLoadIgnoresBrokenMeta(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.pid")
	if err := os.WriteFile(path, []byte("777\n{broken json\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r == nil || r.PID != 777 || r.StartUnix != 0 {
		t.Fatalf("broken meta must still yield pid: %+v", r)
	}
}

func TestWriteCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "svc.pid")
	if err := Write(path, Record{PID: 1}); err != nil {
		t.Fatalf("write with missing parents: %v", err)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc.pid")
	if err := Write(path, Record{PID: 9}); err != nil {
		t.Fatalf("write: %v", err)
	}
	Remove(path)
	Remove(path) // second remove must not panic or matter
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("record still present after remove")
	}
}
