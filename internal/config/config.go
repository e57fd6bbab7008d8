// Package config resolves the supervisor's settings from defaults, an
// optional TOML file, a .env file in the working directory, and the
// process environment, later sources winning. The environment keys match
// the ones the managed server itself reads (MCP_SERVER_HOST and friends)
// so one .env file drives both sides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/clawdchat/mcpctl/internal/logger"
	"github.com/clawdchat/mcpctl/internal/remote"
)

// DefaultService is the managed service identity, naming the pid record
// and log files.
const DefaultService = "clawdchat-mcp"

const (
	defaultHost    = "127.0.0.1"
	defaultPort    = 8000
	defaultURL     = "http://localhost:8000"
	defaultCommand = "uvx clawdchat-mcp"
	defaultMode    = "streamable-http"
)

// Server describes the supervised process and its expected bind address.
type Server struct {
	Host    string   `toml:"host" mapstructure:"host"`
	Port    int      `toml:"port" mapstructure:"port"`
	URL     string   `toml:"url" mapstructure:"url"`
	Command string   `toml:"command" mapstructure:"command"`
	WorkDir string   `toml:"work_dir" mapstructure:"work_dir"`
	Mode    string   `toml:"mode" mapstructure:"mode"`
	Env     []string `toml:"env" mapstructure:"env"`
}

// Paths locates the on-disk state: pid record and combined output log live
// under Dir unless overridden individually.
type Paths struct {
	Dir     string `toml:"dir" mapstructure:"dir"`
	PIDFile string `toml:"pid_file" mapstructure:"pid_file"`
	LogFile string `toml:"log_file" mapstructure:"log_file"`
}

// Config is the fully resolved configuration.
type Config struct {
	Service string        `toml:"service" mapstructure:"service"`
	Server  Server        `toml:"server" mapstructure:"server"`
	Paths   Paths         `toml:"paths" mapstructure:"paths"`
	Log     logger.Config `toml:"log" mapstructure:"log"`
	Remote  remote.Config `toml:"remote" mapstructure:"remote"`
}

// envBindings maps config keys to the environment variables that override
// them.
var envBindings = map[string]string{
	"server.host":        "MCP_SERVER_HOST",
	"server.port":        "MCP_SERVER_PORT",
	"server.url":         "MCP_SERVER_URL",
	"server.command":     "MCP_SERVER_COMMAND",
	"server.work_dir":    "MCP_SERVER_WORK_DIR",
	"paths.dir":          "MCPCTL_DIR",
	"remote.host":        "MCP_REMOTE_HOST",
	"remote.user":        "MCP_REMOTE_USER",
	"remote.port":        "MCP_REMOTE_PORT",
	"remote.project_dir": "MCP_REMOTE_PROJECT_DIR",
	"remote.auth_mode":   "MCP_REMOTE_AUTH_MODE",
	"remote.key_file":    "MCP_REMOTE_KEY_FILE",
	"remote.password":    "MCP_REMOTE_PASSWORD",
}

// Load resolves the configuration. path may be empty; a missing .env file
// is not an error.
func Load(path string) (*Config, error) {
	// .env feeds the process environment without overriding real env vars.
	_ = gotenv.Load()

	v := viper.New()
	v.SetDefault("service", DefaultService)
	v.SetDefault("server.host", defaultHost)
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("server.url", defaultURL)
	v.SetDefault("server.command", defaultCommand)
	v.SetDefault("server.mode", defaultMode)
	v.SetDefault("remote.port", 22)
	v.SetDefault("remote.auth_mode", remote.AuthKey)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePaths fills in the state directory and the files derived from the
// service identity.
func (c *Config) resolvePaths() error {
	if c.Paths.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve state dir: %w", err)
		}
		c.Paths.Dir = filepath.Join(home, "."+DefaultService)
	}
	if c.Paths.PIDFile == "" {
		c.Paths.PIDFile = filepath.Join(c.Paths.Dir, c.Service+".pid")
	}
	if c.Paths.LogFile == "" {
		c.Paths.LogFile = filepath.Join(c.Paths.Dir, c.Service+".log")
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(c.Paths.Dir, "mcpctl.log")
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.URL == "" {
		return fmt.Errorf("server url must not be empty")
	}
	if c.Server.Command == "" {
		return fmt.Errorf("server command must not be empty")
	}
	switch c.Remote.AuthMode {
	case remote.AuthKey, remote.AuthPassword:
	default:
		return fmt.Errorf("invalid remote auth_mode %q (want %q or %q)",
			c.Remote.AuthMode, remote.AuthKey, remote.AuthPassword)
	}
	return nil
}
