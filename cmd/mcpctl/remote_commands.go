package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clawdchat/mcpctl/internal/remote"
)

// createRemoteCommand proxies the lifecycle verbs to the remote mcpctl
// binary over SSH. The remote side runs the identical controller; nothing
// is reconciled locally.
func createRemoteCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Run lifecycle commands on the configured remote host",
	}
	cmd.AddCommand(
		remoteVerbCommand(a, "start [mode]", "Start the server on the remote host", true, cobra.MaximumNArgs(1)),
		remoteVerbCommand(a, "stop", "Stop the server on the remote host", true, cobra.NoArgs),
		remoteVerbCommand(a, "restart [mode]", "Restart the server on the remote host", true, cobra.MaximumNArgs(1)),
		remoteVerbCommand(a, "status", "Report remote service state", false, cobra.NoArgs),
		remoteVerbCommand(a, "logs [n]", "Print the remote server log tail", false, cobra.MaximumNArgs(1)),
		remoteVerbCommand(a, "health", "Probe remote service health", false, cobra.NoArgs),
		createUploadCommand(a),
	)
	return cmd
}

// remoteVerbCommand builds one forwarding subcommand. Mutating verbs get a
// connectivity round-trip before anything is dispatched.
func remoteVerbCommand(a *app, use, short string, mutating bool, args cobra.PositionalArgs) *cobra.Command {
	verb := strings.Fields(use)[0]
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			return a.remoteExec(cmd.Context(), mutating, verb, cmdArgs...)
		},
	}
}

func createUploadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Sync this executable to the remote project directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			client, err := remote.Dial(cfg.Remote)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()
			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}
			self, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate own executable: %w", err)
			}
			log.Info("uploading", "artifact", self, "target", cfg.Remote.Addr(), "path", cfg.Remote.BinaryPath())
			if err := client.Upload(cmd.Context(), self); err != nil {
				return err
			}
			fmt.Printf("OK: uploaded %s to %s:%s\n", self, cfg.Remote.Host, cfg.Remote.BinaryPath())
			return nil
		},
	}
}

// remoteExec dials, optionally pings, and forwards one verb, mirroring the
// remote exit code locally.
func (a *app) remoteExec(ctx context.Context, mutating bool, verb string, args ...string) error {
	cfg, log, cleanup, err := a.setup()
	if err != nil {
		return err
	}
	defer cleanup()

	// Sanity-check pass-through args locally so typos fail fast.
	if verb == "logs" && len(args) == 1 {
		if n, err := strconv.Atoi(args[0]); err != nil || n < 0 {
			return fmt.Errorf("invalid line count %q", args[0])
		}
	}

	client, err := remote.Dial(cfg.Remote)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if mutating {
		if err := client.Ping(ctx); err != nil {
			return err
		}
	}

	log.Debug("dispatching remote verb", "host", cfg.Remote.Addr(), "verb", verb, "args", args)
	code, err := client.Exec(ctx, os.Stdout, os.Stderr, verb, args...)
	if err != nil {
		return err
	}
	if code != 0 {
		return &remoteExitError{code: code}
	}
	return nil
}
