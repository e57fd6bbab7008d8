package probe

import (
	"net"
	"os"
	"testing"
)

func TestAliveSelf(t *testing.T) {
	p := OS{}
	if !p.Alive(os.Getpid()) {
		t.Fatalf("own pid must be alive")
	}
	if p.Alive(0) || p.Alive(-1) {
		t.Fatalf("non-positive pids are never alive")
	}
}

func TestStartUnixSelf(t *testing.T) {
	p := OS{}
	if got := p.StartUnix(os.Getpid()); got <= 0 {
		t.Skipf("start time unavailable on this platform (got %d)", got)
	}
	if p.StartUnix(0) != 0 {
		t.Fatalf("pid 0 must report unknown start time")
	}
}

func TestPortHoldersFindsOwnListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	p := OS{}
	holders, err := p.PortHolders("127.0.0.1", port)
	if err != nil {
		t.Skipf("socket table unavailable: %v", err)
	}
	self := os.Getpid()
	for _, pid := range holders {
		if pid == self {
			return
		}
	}
	t.Fatalf("own listener on port %d not found in holders %v", port, holders)
}

func TestPortHoldersFreePort(t *testing.T) {
	// Grab a port, release it, and expect no holders shortly after.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	p := OS{}
	holders, err := p.PortHolders("127.0.0.1", port)
	if err != nil {
		t.Skipf("socket table unavailable: %v", err)
	}
	if len(holders) != 0 {
		t.Fatalf("released port must have no holders, got %v", holders)
	}
}

func TestHostsOverlap(t *testing.T) {
	cases := []struct {
		want, bound string
		overlap     bool
	}{
		{"127.0.0.1", "127.0.0.1", true},
		{"localhost", "127.0.0.1", true},
		{"127.0.0.1", "0.0.0.0", true},
		{"0.0.0.0", "127.0.0.1", true},
		{"127.0.0.1", "::", true},
		{"10.0.0.1", "10.0.0.1", true},
		{"10.0.0.1", "10.0.0.2", false},
		{"10.0.0.1", "0.0.0.0", true},
	}
	for _, tc := range cases {
		if got := hostsOverlap(tc.want, tc.bound); got != tc.overlap {
			t.Fatalf("hostsOverlap(%q, %q): got %v want %v", tc.want, tc.bound, got, tc.overlap)
		}
	}
}
