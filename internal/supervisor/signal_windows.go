//go:build windows

package supervisor

import "os"

// Windows has no graceful signal for arbitrary processes; both paths
// terminate via the process handle.
func termProcess(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func killProcess(pid int) error {
	return termProcess(pid)
}
