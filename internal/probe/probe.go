// Package probe reports raw facts about the operating system's process and
// socket tables: whether a pid exists, and which pids hold a listening TCP
// address. It never reconciles the two signals; that policy belongs to the
// caller so start, stop and status can each apply their own tolerance for
// disagreement.
package probe

import (
	"sort"

	gopsnet "github.com/shirou/gopsutil/v4/net"
)

// Prober is the read-only view of OS process/socket state the supervisor
// consumes. Implementations must not mutate anything.
type Prober interface {
	// Alive reports whether a process with the given pid currently exists.
	Alive(pid int) bool
	// PortHolders returns the pids listening on host:port, empty when free.
	PortHolders(host string, port int) ([]int, error)
	// StartUnix returns the process start time as Unix seconds, 0 if unknown.
	StartUnix(pid int) int64
}

// OS is the real implementation backed by the live process table.
type OS struct{}

func (OS) Alive(pid int) bool { return pidAlive(pid) }

func (OS) StartUnix(pid int) int64 { return procStartUnix(pid) }

// PortHolders scans the TCP socket table for listeners on the given
// address. A listener bound to a wildcard address counts as holding every
// host, and vice versa, since either way the port cannot be reused.
func (OS) PortHolders(host string, port int) ([]int, error) {
	conns, err := gopsnet.Connections("tcp")
	if err != nil {
		return nil, err
	}
	seen := make(map[int]struct{})
	for _, c := range conns {
		if c.Status != "LISTEN" || int(c.Laddr.Port) != port {
			continue
		}
		if !hostsOverlap(host, c.Laddr.IP) {
			continue
		}
		if c.Pid > 0 {
			seen[int(c.Pid)] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for pid := range seen {
		out = append(out, pid)
	}
	sort.Ints(out)
	return out, nil
}

func hostsOverlap(want, bound string) bool {
	w := normalizeHost(want)
	b := normalizeHost(bound)
	if w == "" || b == "" || w == b {
		return true
	}
	return false
}

// normalizeHost maps the various spellings of "any interface" to "" and
// localhost aliases to the v4 loopback literal.
func normalizeHost(h string) string {
	switch h {
	case "", "*", "0.0.0.0", "::", "[::]":
		return ""
	case "localhost", "::1", "[::1]":
		return "127.0.0.1"
	}
	return h
}
