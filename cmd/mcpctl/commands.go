package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clawdchat/mcpctl"
	"github.com/clawdchat/mcpctl/internal/config"
	"github.com/clawdchat/mcpctl/internal/health"
	"github.com/clawdchat/mcpctl/internal/logger"
	"github.com/clawdchat/mcpctl/internal/supervisor"
)

// app wires resolved configuration and logging into command handlers.
type app struct {
	flags *GlobalFlags
}

// setup resolves configuration and builds the operator logger. The
// returned func flushes the audit log and must be deferred.
func (a *app) setup() (*config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load(a.flags.ConfigPath)
	if err != nil {
		return nil, nil, nil, err
	}
	var audit io.WriteCloser
	if w := cfg.Log.Writer(); w != nil {
		audit = w
	}
	log := logger.New(os.Stderr, audit, a.flags.Verbose)
	cleanup := func() {
		if audit != nil {
			_ = audit.Close()
		}
	}
	return cfg, log, cleanup, nil
}

func specFromConfig(cfg *config.Config) supervisor.Spec {
	return mcpctl.SpecFromConfig(cfg)
}

// buildRoot assembles the command tree.
func buildRoot() *cobra.Command {
	flags := &GlobalFlags{}
	a := &app{flags: flags}

	root := &cobra.Command{
		Use:   "mcpctl",
		Short: "Lifecycle supervisor for the ClawdChat MCP server",
		Long: `mcpctl starts, stops, inspects and health-checks one ClawdChat MCP
server instance, locally or on a remote host over SSH.

Examples:
  mcpctl start                      # start with the configured transport
  mcpctl start stdio                # pass a transport mode through
  mcpctl status --json
  mcpctl logs 100
  mcpctl remote upload              # sync this binary to the remote host
  mcpctl remote restart`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "debug-level logging")

	root.AddCommand(
		createStartCommand(a),
		createStopCommand(a),
		createRestartCommand(a),
		createStatusCommand(a),
		createLogsCommand(a),
		createHealthCommand(a),
		createRemoteCommand(a),
	)
	return root
}

func createStartCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start [mode]",
		Short: "Start the server and wait until its port binds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			sup := supervisor.New(specFromConfig(cfg), log)
			res, err := sup.Start(cmd.Context(), pickMode(cfg, args))
			if err != nil {
				return decorateStartError(err)
			}
			if res.SlowStart {
				fmt.Printf("WARNING: started pid %d but %s did not bind in time; check logs\n", res.PID, res.Addr)
			} else {
				fmt.Printf("OK: pid %d serving on %s (%s)\n", res.PID, res.Addr, res.Endpoint)
			}
			return nil
		},
	}
}

func createStopCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the server and every holder of its port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			sup := supervisor.New(specFromConfig(cfg), log)
			res, err := sup.Stop(cmd.Context())
			if err != nil {
				return err
			}
			switch {
			case res.AlreadyStopped:
				fmt.Println("OK: nothing was running")
			case res.Forced:
				fmt.Printf("OK: stopped pid(s) %v (forced)\n", res.Terminated)
			default:
				fmt.Printf("OK: stopped pid(s) %v\n", res.Terminated)
			}
			return nil
		},
	}
}

func createRestartCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restart [mode]",
		Short: "Stop (best-effort) then start the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			sup := supervisor.New(specFromConfig(cfg), log)
			res, err := sup.Restart(cmd.Context(), pickMode(cfg, args))
			if err != nil {
				return decorateStartError(err)
			}
			if res.SlowStart {
				fmt.Printf("WARNING: restarted pid %d but %s did not bind in time; check logs\n", res.PID, res.Addr)
			} else {
				fmt.Printf("OK: pid %d serving on %s (%s)\n", res.PID, res.Addr, res.Endpoint)
			}
			return nil
		},
	}
}

func createStatusCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the reconciled service state without touching it",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			sup := supervisor.New(specFromConfig(cfg), log)
			rep, err := sup.Status()
			if err != nil {
				return err
			}
			if a.flags.JSON {
				printJSON(rep)
				return nil
			}
			fmt.Printf("state:    %s\n", rep.State)
			if rep.PID > 0 {
				fmt.Printf("pid:      %d (alive: %v)\n", rep.PID, rep.PIDAlive)
			} else {
				fmt.Println("pid:      none recorded")
			}
			if len(rep.Holders) > 0 {
				fmt.Printf("port:     %s bound by pid(s) %v\n", rep.Addr, rep.Holders)
			} else {
				fmt.Printf("port:     %s free\n", rep.Addr)
			}
			fmt.Printf("endpoint: %s\n", rep.Endpoint)
			fmt.Printf("log:      %s\n", rep.LogPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&a.flags.JSON, "json", false, "print status as JSON")
	return cmd
}

func createLogsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logs [n]",
		Short: "Print the last n lines of the server log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, _, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			n := defaultLogLines
			if len(args) == 1 {
				if n, err = strconv.Atoi(args[0]); err != nil || n < 0 {
					return fmt.Errorf("invalid line count %q", args[0])
				}
			}
			lines, err := logger.Tail(cfg.Paths.LogFile, n)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				fmt.Printf("no log output yet (%s)\n", cfg.Paths.LogFile)
				return nil
			}
			for _, l := range lines {
				fmt.Println(l)
			}
			return nil
		},
	}
}

func createHealthCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe process, port and protocol endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			rep, err := health.New(specFromConfig(cfg)).Check(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.JSON {
				printJSON(rep)
			} else {
				for _, c := range rep.Checks {
					fmt.Printf("%-12s %-5s %s\n", c.Name, c.Verdict, c.Detail)
				}
				fmt.Printf("overall: %s\n", rep.Overall)
			}
			if rep.Overall == health.Unhealthy {
				return fmt.Errorf("service is unhealthy")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&a.flags.JSON, "json", false, "print report as JSON")
	return cmd
}

func pickMode(cfg *config.Config, args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return cfg.Server.Mode
}

// decorateStartError appends the captured log excerpt to a crash report so
// the operator sees the evidence without a second command. The original
// error stays reachable through Unwrap for exit-code mapping.
func decorateStartError(err error) error {
	var crash *supervisor.CrashError
	if !errors.As(err, &crash) || len(crash.LogTail) == 0 {
		return err
	}
	var b strings.Builder
	b.WriteString(crash.Error())
	b.WriteString("\nlast log lines:")
	for _, l := range crash.LogTail {
		b.WriteString("\n  ")
		b.WriteString(l)
	}
	return &diagnosticError{msg: b.String(), cause: err}
}

type diagnosticError struct {
	msg   string
	cause error
}

func (e *diagnosticError) Error() string { return e.msg }

func (e *diagnosticError) Unwrap() error { return e.cause }
