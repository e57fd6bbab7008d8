// Package mcpctl exposes the lifecycle supervisor as an embeddable
// library: resolve a configuration, build a Supervisor for the one managed
// service, and drive start/stop/status/health from your own code.
package mcpctl

import (
	"context"
	"log/slog"

	"github.com/clawdchat/mcpctl/internal/config"
	"github.com/clawdchat/mcpctl/internal/health"
	"github.com/clawdchat/mcpctl/internal/remote"
	"github.com/clawdchat/mcpctl/internal/supervisor"
)

// Re-export core types for external consumers. These are aliases so
// conversions are zero-cost.

type Spec = supervisor.Spec

type StartResult = supervisor.StartResult

type StopResult = supervisor.StopResult

type StatusReport = supervisor.StatusReport

type HealthReport = health.Report

type RemoteConfig = remote.Config

// Supervisor is a thin facade over internal/supervisor.Supervisor.
type Supervisor struct{ inner *supervisor.Supervisor }

func New(spec Spec, log *slog.Logger) *Supervisor {
	return &Supervisor{inner: supervisor.New(spec, log)}
}

func (s *Supervisor) Start(ctx context.Context, mode string) (*StartResult, error) {
	return s.inner.Start(ctx, mode)
}

func (s *Supervisor) Stop(ctx context.Context) (*StopResult, error) { return s.inner.Stop(ctx) }

func (s *Supervisor) Restart(ctx context.Context, mode string) (*StartResult, error) {
	return s.inner.Restart(ctx, mode)
}

func (s *Supervisor) Status() (*StatusReport, error) { return s.inner.Status() }

// Health runs the bounded process/port/protocol probes for the same spec.
func (s *Supervisor) Health(ctx context.Context) (*HealthReport, error) {
	return health.New(s.inner.Spec()).Check(ctx)
}

// LoadConfig resolves configuration from defaults, an optional TOML file,
// .env, and the environment.
func LoadConfig(path string) (*config.Config, error) { return config.Load(path) }

// SpecFromConfig maps a resolved configuration onto a supervisor spec.
func SpecFromConfig(cfg *config.Config) Spec {
	return Spec{
		Name:    cfg.Service,
		Command: cfg.Server.Command,
		WorkDir: cfg.Server.WorkDir,
		Env:     cfg.Server.Env,
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		URL:     cfg.Server.URL,
		PIDFile: cfg.Paths.PIDFile,
		LogPath: cfg.Paths.LogFile,
	}
}

// DialRemote opens the SSH transport used by the remote verbs.
func DialRemote(cfg RemoteConfig) (*remote.Client, error) { return remote.Dial(cfg) }
