package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"
)

func writeTestKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}

func TestConfigAddrDefaultsPort(t *testing.T) {
	c := Config{Host: "deploy.example.com"}
	if c.Addr() != "deploy.example.com:22" {
		t.Fatalf("addr: %q", c.Addr())
	}
	c.Port = 2222
	if c.Addr() != "deploy.example.com:2222" {
		t.Fatalf("addr with port: %q", c.Addr())
	}
}

func TestConfigBinaryPath(t *testing.T) {
	c := Config{ProjectDir: "/opt/clawdchat"}
	if c.BinaryPath() != "/opt/clawdchat/mcpctl" {
		t.Fatalf("binary path: %q", c.BinaryPath())
	}
	c.ProjectDir = ""
	if c.BinaryPath() != "mcpctl" {
		t.Fatalf("default binary path: %q", c.BinaryPath())
	}
}

func TestAuthMethodsKeyFirst(t *testing.T) {
	key := writeTestKey(t)
	cfg := Config{Host: "h", KeyFile: key, AuthMode: AuthPassword, Password: "pw"}
	methods, err := authMethods(cfg)
	if err != nil {
		t.Fatalf("authMethods: %v", err)
	}
	// Key must come first, password appended as the configured fallback.
	if len(methods) != 2 {
		t.Fatalf("want key then password, got %d methods", len(methods))
	}
}

func TestAuthMethodsKeyOnlyMode(t *testing.T) {
	key := writeTestKey(t)
	cfg := Config{Host: "h", KeyFile: key, AuthMode: AuthKey, Password: "ignored"}
	methods, err := authMethods(cfg)
	if err != nil {
		t.Fatalf("authMethods: %v", err)
	}
	if len(methods) != 1 {
		t.Fatalf("password must not participate in key mode: %d methods", len(methods))
	}
}

func TestAuthMethodsExplicitBadKeyFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage")
	if err := os.WriteFile(path, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := Config{Host: "h", KeyFile: path}
	_, err := authMethods(cfg)
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("explicitly configured bad key must fail, got %v", err)
	}
}

func TestAuthMethodsNoneAvailable(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // no default keys
	cfg := Config{Host: "h", AuthMode: AuthKey}
	_, err := authMethods(cfg)
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("no usable method must be a transport error, got %v", err)
	}
}

func TestDialNoHost(t *testing.T) {
	_, err := Dial(Config{})
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("missing host must be a transport error, got %v", err)
	}
}

func TestTransportErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Host: "h:22", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("TransportError must unwrap its cause")
	}
}

func TestShellQuote(t *testing.T) {
	cases := map[string]string{
		"plain":        "'plain'",
		"with space":   "'with space'",
		"it's":         `'it'\''s'`,
		"$HOME; rm -r": `'$HOME; rm -r'`,
	}
	for in, want := range cases {
		if got := shellQuote(in); got != want {
			t.Fatalf("shellQuote(%q): got %s want %s", in, got, want)
		}
	}
}
