//go:build windows

package supervisor

import (
	"os/exec"
	"strings"
	"syscall"
)

func buildCommand(command, mode string) *exec.Cmd {
	cmdStr := strings.TrimSpace(command)
	if mode != "" {
		cmdStr += " --transport " + mode
	}
	// #nosec G204 -- command comes from resolved configuration
	return exec.Command("cmd", "/C", cmdStr)
}

// configureSysProcAttr detaches the child from the controller's console.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x00000008, // DETACHED_PROCESS
	}
}
