// Package supervisor drives idempotent lifecycle transitions for one named
// service instance. The OS process and socket tables are the single source
// of truth: every operation re-probes them instead of trusting any cached
// flag, so an operator killing the process by hand never confuses a later
// invocation.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/clawdchat/mcpctl/internal/logger"
	"github.com/clawdchat/mcpctl/internal/probe"
	"github.com/clawdchat/mcpctl/internal/record"
)

const (
	// startConfirmTicks bounds startup verification: one poll per second
	// until the port binds, the child exits, or the ceiling is reached.
	startConfirmTicks = 15
	// stopWaitTicks bounds the graceful-termination wait before
	// escalating to a forced kill.
	stopWaitTicks = 10
	// killWaitTicks is the brief extra wait after the forced kill.
	killWaitTicks = 2
	// pollInterval is the fixed tick length for all bounded waits.
	pollInterval = time.Second
	// crashTailLines is how much of the log is attached to a crash report.
	crashTailLines = 20
)

// Spec describes the one service instance a Supervisor manages.
type Spec struct {
	Name    string   // service identity, names the pid record and log
	Command string   // command line that launches the server
	WorkDir string   // optional working directory for the child
	Env     []string // optional extra KEY=VALUE pairs for the child
	Host    string   // bind host the service is expected to listen on
	Port    int      // bind port
	URL     string   // externally reachable base URL
	PIDFile string   // pid record path
	LogPath string   // combined output log path
}

// Endpoint returns the externally reachable MCP endpoint URL.
func (s Spec) Endpoint() string { return s.URL + "/mcp" }

// Addr returns the bind address as host:port.
func (s Spec) Addr() string { return net.JoinHostPort(s.Host, strconv.Itoa(s.Port)) }

// Supervisor is not safe for concurrent invocation against the same
// service identity; the operational discipline is one invocation at a
// time.
type Supervisor struct {
	spec  Spec
	probe probe.Prober
	log   *slog.Logger

	// Overridable for tests.
	startTicks int
	stopTicks  int
	killTicks  int
	interval   time.Duration
	terminate  func(pid int) error
	kill       func(pid int) error
}

func New(spec Spec, log *slog.Logger) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		spec:       spec,
		probe:      probe.OS{},
		log:        log,
		startTicks: startConfirmTicks,
		stopTicks:  stopWaitTicks,
		killTicks:  killWaitTicks,
		interval:   pollInterval,
		terminate:  termProcess,
		kill:       killProcess,
	}
}

// Spec returns the managed service description.
func (s *Supervisor) Spec() Spec { return s.spec }

// Observe reads both signals once and returns them unreconciled alongside
// the derived state.
func (s *Supervisor) Observe() (Observation, error) {
	rec, err := record.Load(s.spec.PIDFile)
	if err != nil {
		// A corrupt record is evidence, not a hard failure; report it absent.
		s.log.Warn("unreadable pid record", "path", s.spec.PIDFile, "error", err)
		rec = nil
	}
	holders, err := s.probe.PortHolders(s.spec.Host, s.spec.Port)
	if err != nil {
		return Observation{}, fmt.Errorf("scan port %s: %w", s.spec.Addr(), err)
	}
	return Observation{
		Record:   rec,
		PIDAlive: rec != nil && s.recordAlive(rec),
		Holders:  holders,
	}, nil
}

// recordAlive checks the recorded pid against the process table, guarding
// against pid reuse via the recorded start time when available.
func (s *Supervisor) recordAlive(rec *record.Record) bool {
	if !s.probe.Alive(rec.PID) {
		return false
	}
	if rec.StartUnix > 0 {
		if cur := s.probe.StartUnix(rec.PID); cur > 0 && cur != rec.StartUnix {
			return false // pid recycled by an unrelated process
		}
	}
	return true
}

// StartResult reports the evidence behind a successful (or slow) start.
type StartResult struct {
	PID       int    `json:"pid"`
	Addr      string `json:"addr"`
	Endpoint  string `json:"endpoint"`
	SlowStart bool   `json:"slow_start"`
}

// Start spawns the service after a pre-flight port scan and verifies
// startup within a bounded window. A port that never binds while the child
// stays alive is a soft warning, not a failure: slow-starting services
// must not be killed.
func (s *Supervisor) Start(ctx context.Context, mode string) (*StartResult, error) {
	holders, err := s.probe.PortHolders(s.spec.Host, s.spec.Port)
	if err != nil {
		return nil, fmt.Errorf("scan port %s: %w", s.spec.Addr(), err)
	}
	if len(holders) > 0 {
		return nil, &PortConflictError{Host: s.spec.Host, Port: s.spec.Port, Holders: holders}
	}

	cmd := buildCommand(s.spec.Command, mode)
	if s.spec.WorkDir != "" {
		cmd.Dir = s.spec.WorkDir
	}
	if len(s.spec.Env) > 0 {
		cmd.Env = append(os.Environ(), s.spec.Env...)
	}
	logFile, err := logger.OpenAppend(s.spec.LogPath)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", s.spec.LogPath, err)
	}
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	configureSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("spawn %q: %w", s.spec.Command, err)
	}
	// The child holds its own descriptor from here on.
	_ = logFile.Close()

	pid := cmd.Process.Pid
	s.log.Info("spawned", "pid", pid, "command", s.spec.Command, "log", s.spec.LogPath)

	// Write-before-verify: a crash during confirmation still leaves
	// forensic evidence on disk.
	if err := record.Write(s.spec.PIDFile, record.Record{PID: pid, StartUnix: s.probe.StartUnix(pid)}); err != nil {
		s.log.Warn("could not persist pid record", "path", s.spec.PIDFile, "error", err)
	}

	// Reap in the background so an early exit is observable while polling.
	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	slow := false
	r := retry{ticks: s.startTicks, interval: s.interval, exhausted: func() { slow = true }}
	if _, err := r.wait(ctx, func() (bool, error) {
		select {
		case werr := <-waitCh:
			tail, _ := logger.Tail(s.spec.LogPath, crashTailLines)
			record.Remove(s.spec.PIDFile)
			return false, &CrashError{PID: pid, Wait: werr, LogTail: tail}
		default:
		}
		hs, err := s.probe.PortHolders(s.spec.Host, s.spec.Port)
		if err != nil {
			return false, fmt.Errorf("scan port %s: %w", s.spec.Addr(), err)
		}
		return len(hs) > 0, nil
	}); err != nil {
		return nil, err
	}

	if slow {
		s.log.Warn("port not bound within startup window; process is still initializing",
			"pid", pid, "addr", s.spec.Addr(), "waited", time.Duration(s.startTicks)*s.interval)
	} else {
		s.log.Info("service is up", "pid", pid, "addr", s.spec.Addr(), "endpoint", s.spec.Endpoint())
	}
	return &StartResult{PID: pid, Addr: s.spec.Addr(), Endpoint: s.spec.Endpoint(), SlowStart: slow}, nil
}

// StopResult reports what stop actually did.
type StopResult struct {
	Terminated     []int `json:"terminated,omitempty"`
	Forced         bool  `json:"forced"`
	AlreadyStopped bool  `json:"already_stopped"`
}

// Stop terminates the recorded process and every current port holder: the
// two sets can disagree (orphaned holders, stale records) and both must be
// cleared. Graceful termination escalates to a forced kill exactly once.
// Stop never claims success while the port is still occupied.
func (s *Supervisor) Stop(ctx context.Context) (*StopResult, error) {
	obs, err := s.Observe()
	if err != nil {
		return nil, err
	}

	candidates := s.stopCandidates(obs)
	if len(candidates) == 0 {
		// Idempotent no-op; clear any stale record left behind.
		record.Remove(s.spec.PIDFile)
		s.log.Info("nothing to stop", "addr", s.spec.Addr())
		return &StopResult{AlreadyStopped: true}, nil
	}

	for _, pid := range candidates {
		if err := s.terminate(pid); err != nil {
			s.log.Warn("graceful termination failed", "pid", pid, "error", err)
		} else {
			s.log.Info("sent termination signal", "pid", pid)
		}
	}

	forced := false
	r := retry{ticks: s.stopTicks, interval: s.interval, exhausted: func() {
		forced = true
		for _, pid := range s.liveCandidates() {
			s.log.Warn("escalating to forced termination", "pid", pid)
			if err := s.kill(pid); err != nil {
				s.log.Warn("forced termination failed", "pid", pid, "error", err)
			}
		}
	}}
	cleared, err := r.wait(ctx, s.portFree)
	if err != nil {
		return nil, err
	}
	if !cleared {
		short := retry{ticks: s.killTicks, interval: s.interval}
		if cleared, err = short.wait(ctx, s.portFree); err != nil {
			return nil, err
		}
	}

	// Termination was attempted against every candidate; the record is no
	// longer meaningful either way.
	record.Remove(s.spec.PIDFile)

	if !cleared {
		holders, herr := s.probe.PortHolders(s.spec.Host, s.spec.Port)
		if herr == nil && len(holders) > 0 {
			return nil, &StopFailedError{Host: s.spec.Host, Port: s.spec.Port, Holders: holders}
		}
	}
	s.log.Info("stopped", "pids", candidates, "forced", forced)
	return &StopResult{Terminated: candidates, Forced: forced}, nil
}

// stopCandidates unions the live recorded pid with every port holder.
func (s *Supervisor) stopCandidates(obs Observation) []int {
	seen := make(map[int]struct{})
	var out []int
	if obs.PIDAlive {
		seen[obs.Record.PID] = struct{}{}
		out = append(out, obs.Record.PID)
	}
	for _, pid := range obs.Holders {
		if _, dup := seen[pid]; !dup {
			seen[pid] = struct{}{}
			out = append(out, pid)
		}
	}
	return out
}

// liveCandidates re-derives the remaining targets at escalation time.
func (s *Supervisor) liveCandidates() []int {
	obs, err := s.Observe()
	if err != nil {
		return nil
	}
	return s.stopCandidates(obs)
}

func (s *Supervisor) portFree() (bool, error) {
	holders, err := s.probe.PortHolders(s.spec.Host, s.spec.Port)
	if err != nil {
		return false, fmt.Errorf("scan port %s: %w", s.spec.Addr(), err)
	}
	return len(holders) == 0, nil
}

// Restart is stop followed by start. It is not atomic: a window exists
// where the service is down. Stop errors are logged, not fatal; start then
// reports the real conflict if one remains.
func (s *Supervisor) Restart(ctx context.Context, mode string) (*StartResult, error) {
	if _, err := s.Stop(ctx); err != nil {
		s.log.Warn("stop before restart failed", "error", err)
	}
	return s.Start(ctx, mode)
}

// StatusReport is a pure read of both signals plus the configuration the
// reconciliation ran against.
type StatusReport struct {
	State    string `json:"state"`
	PID      int    `json:"pid,omitempty"`
	PIDAlive bool   `json:"pid_alive"`
	Holders  []int  `json:"port_holders,omitempty"`
	Addr     string `json:"addr"`
	URL      string `json:"url"`
	Endpoint string `json:"endpoint"`
	PIDFile  string `json:"pid_file"`
	LogPath  string `json:"log_path"`
}

// Status performs no mutation, no termination and no spawning.
func (s *Supervisor) Status() (*StatusReport, error) {
	obs, err := s.Observe()
	if err != nil {
		return nil, err
	}
	rep := &StatusReport{
		State:    obs.State().String(),
		PIDAlive: obs.PIDAlive,
		Holders:  obs.Holders,
		Addr:     s.spec.Addr(),
		URL:      s.spec.URL,
		Endpoint: s.spec.Endpoint(),
		PIDFile:  s.spec.PIDFile,
		LogPath:  s.spec.LogPath,
	}
	if obs.Record != nil {
		rep.PID = obs.Record.PID
	}
	return rep, nil
}
