package supervisor

import (
	"fmt"
	"strings"
)

// PortConflictError is the pre-flight failure: the configured port already
// has a holder, so starting a second instance is refused outright. It is
// never auto-resolved; the operator must stop the holder first.
type PortConflictError struct {
	Host    string
	Port    int
	Holders []int
}

func (e *PortConflictError) Error() string {
	return fmt.Sprintf("port %s:%d is already in use by pid(s) %s; run stop first",
		e.Host, e.Port, joinPids(e.Holders))
}

// CrashError reports a child that exited before startup was confirmed.
// LogTail carries the last lines of the combined output log as diagnostic
// context.
type CrashError struct {
	PID     int
	Wait    error // exit status from reaping the child, may be nil
	LogTail []string
}

func (e *CrashError) Error() string {
	if e.Wait != nil {
		return fmt.Sprintf("process %d exited during startup: %v", e.PID, e.Wait)
	}
	return fmt.Sprintf("process %d exited during startup", e.PID)
}

func (e *CrashError) Unwrap() error { return e.Wait }

// StopFailedError reports holders that survived both graceful and forced
// termination. No further automatic retry happens; the operator must
// investigate.
type StopFailedError struct {
	Host    string
	Port    int
	Holders []int
}

func (e *StopFailedError) Error() string {
	return fmt.Sprintf("port %s:%d still held by pid(s) %s after forced termination",
		e.Host, e.Port, joinPids(e.Holders))
}

func joinPids(pids []int) string {
	if len(pids) == 0 {
		return "none"
	}
	parts := make([]string, len(pids))
	for i, p := range pids {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ", ")
}
