package supervisor

import (
	"io"
	"log/slog"
	"runtime"
	"testing"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires unix signals and /bin/sh")
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProbe lets tests script both signals independently.
type fakeProbe struct {
	alive   func(pid int) bool
	holders func() []int
	start   func(pid int) int64
}

func (f fakeProbe) Alive(pid int) bool {
	if f.alive == nil {
		return false
	}
	return f.alive(pid)
}

func (f fakeProbe) PortHolders(string, int) ([]int, error) {
	if f.holders == nil {
		return nil, nil
	}
	return f.holders(), nil
}

func (f fakeProbe) StartUnix(pid int) int64 {
	if f.start == nil {
		return 0
	}
	return f.start(pid)
}
