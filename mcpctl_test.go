package mcpctl

import (
	"io"
	"log/slog"
	"testing"

	"github.com/clawdchat/mcpctl/internal/config"
)

func TestSpecFromConfigMapping(t *testing.T) {
	cfg := &config.Config{
		Service: "clawdchat-mcp",
		Server: config.Server{
			Host:    "0.0.0.0",
			Port:    9000,
			URL:     "http://example.com:9000",
			Command: "uvx clawdchat-mcp",
			WorkDir: "/srv/mcp",
			Env:     []string{"MCP_SERVER_PORT=9000"},
		},
		Paths: config.Paths{
			PIDFile: "/var/run/clawdchat-mcp.pid",
			LogFile: "/var/log/clawdchat-mcp.log",
		},
	}
	spec := SpecFromConfig(cfg)
	if spec.Name != "clawdchat-mcp" {
		t.Fatalf("name: %q", spec.Name)
	}
	if spec.Host != "0.0.0.0" || spec.Port != 9000 {
		t.Fatalf("bind address: %s:%d", spec.Host, spec.Port)
	}
	if spec.Command != "uvx clawdchat-mcp" || spec.WorkDir != "/srv/mcp" {
		t.Fatalf("command: %q in %q", spec.Command, spec.WorkDir)
	}
	if len(spec.Env) != 1 || spec.Env[0] != "MCP_SERVER_PORT=9000" {
		t.Fatalf("env: %v", spec.Env)
	}
	if spec.PIDFile != "/var/run/clawdchat-mcp.pid" || spec.LogPath != "/var/log/clawdchat-mcp.log" {
		t.Fatalf("paths: %q %q", spec.PIDFile, spec.LogPath)
	}
}

func TestFacadeStatusOnEmptyState(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{
		Name:    "clawdchat-mcp",
		Command: "true",
		Host:    "127.0.0.1",
		Port:    0,
		URL:     "http://localhost:0",
		PIDFile: dir + "/svc.pid",
		LogPath: dir + "/svc.log",
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rep, err := New(spec, log).Status()
	if err != nil {
		t.Skipf("connection scan unavailable: %v", err)
	}
	if rep.State != "stopped" {
		t.Fatalf("fresh state dir must report stopped, got %q", rep.State)
	}
}
