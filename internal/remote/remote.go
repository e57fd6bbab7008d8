// Package remote forwards lifecycle verbs to an mcpctl binary on another
// host over SSH. It deliberately reimplements no reconciliation logic: the
// remote binary runs the identical controller, this package only carries
// the verbs, the output, and the one-time artifact upload.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// Auth modes. Key-based authentication is always tried first; password
// authentication participates only when explicitly configured.
const (
	AuthKey      = "key"
	AuthPassword = "password"
)

const dialTimeout = 10 * time.Second

// Binary is the artifact name uploaded to and executed on the remote host.
const Binary = "mcpctl"

// Config describes the remote target.
type Config struct {
	Host       string `toml:"host" mapstructure:"host"`
	User       string `toml:"user" mapstructure:"user"`
	Port       int    `toml:"port" mapstructure:"port"`
	ProjectDir string `toml:"project_dir" mapstructure:"project_dir"`
	AuthMode   string `toml:"auth_mode" mapstructure:"auth_mode"`
	KeyFile    string `toml:"key_file" mapstructure:"key_file"`
	Password   string `toml:"password" mapstructure:"password"`
}

// Addr returns the SSH endpoint as host:port.
func (c Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// BinaryPath returns where the uploaded artifact lives on the remote host.
func (c Config) BinaryPath() string {
	dir := c.ProjectDir
	if dir == "" {
		dir = "."
	}
	return path.Join(dir, Binary)
}

// TransportError marks a connectivity failure: the remote host could not
// be reached or the channel could not be established. No remote state was
// touched.
type TransportError struct {
	Host string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("remote host %s unavailable: %v", e.Host, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client is one established SSH connection.
type Client struct {
	cfg  Config
	conn *ssh.Client
}

// Dial connects and authenticates. Host keys are accepted without
// verification; this is an operator tool talking to hosts the operator
// already controls.
func Dial(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, &TransportError{Host: cfg.Host, Err: errors.New("no remote host configured")}
	}
	auths, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}
	clientCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auths,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // #nosec G106
		Timeout:         dialTimeout,
	}
	conn, err := ssh.Dial("tcp", cfg.Addr(), clientCfg)
	if err != nil {
		return nil, &TransportError{Host: cfg.Addr(), Err: err}
	}
	return &Client{cfg: cfg, conn: conn}, nil
}

// authMethods builds the method list: configured or default key files
// first, then password when explicitly enabled.
func authMethods(cfg Config) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	for _, p := range keyCandidates(cfg) {
		signer, err := loadKey(p)
		if err != nil {
			if cfg.KeyFile != "" && p == cfg.KeyFile {
				// An explicitly configured key that cannot be loaded is
				// an operator mistake, not something to skip silently.
				return nil, &TransportError{Host: cfg.Host, Err: fmt.Errorf("key %s: %w", p, err)}
			}
			continue
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if cfg.AuthMode == AuthPassword && cfg.Password != "" {
		methods = append(methods, ssh.Password(cfg.Password))
	}
	if len(methods) == 0 {
		return nil, &TransportError{Host: cfg.Host, Err: errors.New("no usable authentication method")}
	}
	return methods, nil
}

func keyCandidates(cfg Config) []string {
	if cfg.KeyFile != "" {
		return []string{cfg.KeyFile}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_rsa"),
	}
}

func loadKey(path string) (ssh.Signer, error) {
	b, err := os.ReadFile(path) // #nosec G304 -- operator-supplied key path
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(b)
}

func (c *Client) Close() error { return c.conn.Close() }

// Ping is the lightweight round-trip check run before any mutating verb.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.run(ctx, "true", nil, io.Discard, io.Discard); err != nil {
		return &TransportError{Host: c.cfg.Addr(), Err: err}
	}
	return nil
}

// Exec forwards one lifecycle verb to the remote mcpctl binary, streaming
// its output to stdout/stderr, and returns the remote exit code.
func (c *Client) Exec(ctx context.Context, stdout, stderr io.Writer, verb string, args ...string) (int, error) {
	parts := []string{shellQuote(c.cfg.BinaryPath()), verb}
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	err := c.run(ctx, strings.Join(parts, " "), nil, stdout, stderr)
	if err == nil {
		return 0, nil
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), nil
	}
	return -1, fmt.Errorf("remote %s: %w", verb, err)
}

// Upload synchronizes the local executable artifact to the remote project
// directory. It is idempotent: re-running overwrites the prior copy and
// restores the executable bit. The write goes through a temp name so a
// torn transfer never clobbers a working binary.
func (c *Client) Upload(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath) // #nosec G304 -- uploading our own executable
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	bin := c.cfg.BinaryPath()
	dir := path.Dir(bin)
	script := fmt.Sprintf("mkdir -p %s && cat > %s.tmp && chmod 0755 %s.tmp && mv -f %s.tmp %s",
		shellQuote(dir), shellQuote(bin), shellQuote(bin), shellQuote(bin), shellQuote(bin))
	if err := c.run(ctx, script, f, io.Discard, io.Discard); err != nil {
		return fmt.Errorf("upload %s to %s: %w", localPath, bin, err)
	}
	return nil
}

// run executes one remote command in a fresh session, honoring ctx by
// tearing the session down on cancellation.
func (c *Client) run(ctx context.Context, command string, stdin io.Reader, stdout, stderr io.Writer) error {
	sess, err := c.conn.NewSession()
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	sess.Stdin = stdin
	sess.Stdout = stdout
	sess.Stderr = stderr

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = sess.Close()
		case <-done:
		}
	}()
	if err := sess.Run(command); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// shellQuote wraps s in single quotes for the remote shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
