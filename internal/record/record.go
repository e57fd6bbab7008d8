// Package record persists the managed service's last-known pid. The file
// is advisory evidence, never the sole basis for declaring the service
// running: the first line holds the pid as plain text, an optional second
// line carries JSON metadata used to detect pid reuse.
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Record is one on-disk pid record.
type Record struct {
	PID int
	// StartUnix is the process start time captured at spawn. Zero means
	// unknown (legacy files, or platforms where it cannot be read).
	StartUnix int64 `json:"start_unix"`
}

// Write persists the record, creating parent directories as needed. It is
// called immediately after spawn, before any verification, so a crash
// during startup confirmation still leaves forensic evidence on disk.
func Write(path string, r Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(r.PID))
	b.WriteByte('\n')
	if r.StartUnix > 0 {
		meta, err := json.Marshal(r)
		if err != nil {
			return err
		}
		b.Write(meta)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

// Load reads a record written by Write. A missing file returns (nil, nil).
// Legacy files containing only the pid load with StartUnix zero.
func Load(path string) (*Record, error) {
	b, err := os.ReadFile(path) // #nosec G304 -- path comes from resolved configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	pidLine, rest, _ := strings.Cut(string(b), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(pidLine))
	if err != nil {
		return nil, fmt.Errorf("invalid pid in %s: %w", path, err)
	}
	r := Record{PID: pid}
	if rest = strings.TrimSpace(rest); rest != "" {
		// Return the pid even if the meta line cannot be parsed
		_ = json.Unmarshal([]byte(rest), &r)
		r.PID = pid
	}
	return &r, nil
}

// Remove deletes the record, best-effort.
func Remove(path string) {
	_ = os.Remove(path)
}
