//go:build !windows

package supervisor

import (
	"os/exec"
	"strings"
	"syscall"
)

// buildCommand constructs the child command. A shell is only involved when
// the command string needs one; the transport mode is appended as an
// opaque pass-through flag for the server.
func buildCommand(command, mode string) *exec.Cmd {
	cmdStr := strings.TrimSpace(command)
	if mode != "" {
		cmdStr += " --transport " + mode
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204 -- command comes from resolved configuration
		return exec.Command("/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	// #nosec G204
	return exec.Command(parts[0], parts[1:]...)
}

// configureSysProcAttr detaches the child into its own session (setsid) so
// its lifetime is independent of the controller's once start returns.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
