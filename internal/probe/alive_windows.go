//go:build windows

package probe

import (
	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// pidAlive checks the process table via gopsutil; signal 0 probing is not
// available on Windows.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := gopsproc.PidExists(int32(pid))
	return err == nil && ok
}
