package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clawdchat/mcpctl/internal/remote"
	"github.com/clawdchat/mcpctl/internal/supervisor"
)

// Exit codes distinguish the operator-actionable failure classes.
const (
	exitGeneric      = 1
	exitPortConflict = 2
	exitCrashed      = 3
	exitStopFailed   = 4
	exitTransport    = 5
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := buildRoot()
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// remoteExitError carries a non-zero exit status returned by the remote
// mcpctl so the local process mirrors it.
type remoteExitError struct {
	code int
}

func (e *remoteExitError) Error() string {
	return fmt.Sprintf("remote command failed with exit status %d", e.code)
}

func exitCode(err error) int {
	var (
		portConflict *supervisor.PortConflictError
		crash        *supervisor.CrashError
		stopFailed   *supervisor.StopFailedError
		transport    *remote.TransportError
		remoteExit   *remoteExitError
	)
	switch {
	case errors.As(err, &portConflict):
		return exitPortConflict
	case errors.As(err, &crash):
		return exitCrashed
	case errors.As(err, &stopFailed):
		return exitStopFailed
	case errors.As(err, &transport):
		return exitTransport
	case errors.As(err, &remoteExit):
		return remoteExit.code
	default:
		return exitGeneric
	}
}
