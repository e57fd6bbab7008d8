package supervisor

import (
	"github.com/clawdchat/mcpctl/internal/record"
)

// State is the reconciled service state derived from two independently
// observable signals: the recorded pid and the live port scan. It is
// computed fresh on every invocation, never cached.
type State int

const (
	// StateStopped means no live recorded process and a free port.
	StateStopped State = iota
	// StateStarting means the recorded process is alive but the port is
	// not bound yet (slow startup, or a service that lost its listener).
	StateStarting
	// StateRunning means the recorded process is alive and among the
	// port holders.
	StateRunning
	// StateStale means a record exists but its process is gone and the
	// port is free. The record is leftover evidence of an unclean exit.
	StateStale
	// StateOrphaned means the port is held by pids that do not match a
	// live recorded process.
	StateOrphaned
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStale:
		return "stale-record"
	case StateOrphaned:
		return "orphaned"
	default:
		return "unknown"
	}
}

// Observation is one simultaneous reading of both signals. The two are
// reported side by side and never silently merged; State enumerates the
// disagreement cases explicitly.
type Observation struct {
	Record   *record.Record
	PIDAlive bool // recorded pid exists and its start time matches the record
	Holders  []int
}

// State reconciles the observation into a single tagged state.
func (o Observation) State() State {
	recPID := 0
	if o.Record != nil {
		recPID = o.Record.PID
	}
	switch {
	case o.PIDAlive && containsInt(o.Holders, recPID):
		return StateRunning
	case len(o.Holders) > 0:
		return StateOrphaned
	case o.PIDAlive:
		return StateStarting
	case o.Record != nil:
		return StateStale
	default:
		return StateStopped
	}
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
