//go:build !windows

package supervisor

import "syscall"

// termProcess asks a process to shut down gracefully.
func termProcess(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

// killProcess terminates a process forcefully.
func killProcess(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}
