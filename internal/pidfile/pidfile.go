// Package pidfile persists the supervised server's process id.
//
// The file holds a single decimal pid. Absence of the file is the sole
// signal that no supervised process is known. A present file is never
// trusted on its own: the recorded pid must be revalidated against the live
// process table, because a stale file with a dead pid looks identical to a
// live one. Resolve does that validation and self-heals stale records.
package pidfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Record is the durable pid record at a fixed path.
type Record struct {
	path string
}

// New returns a Record backed by the given path.
func New(path string) *Record {
	return &Record{path: path}
}

// Path returns the backing file location.
func (r *Record) Path() string {
	return r.path
}

// Read returns the recorded pid. A missing or malformed file reports
// known=false; malformed files are removed so the next read is clean.
func (r *Record) Read() (pid int, known bool, err error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read pid file %q: %w", r.path, err)
	}

	parsed, parseErr := strconv.Atoi(strings.TrimSpace(string(data)))
	if parseErr != nil || parsed <= 0 {
		_ = r.Remove()
		return 0, false, nil
	}
	return parsed, true, nil
}

// Resolve returns the recorded pid only if that process is still alive.
// A stale record (dead pid) is deleted and reported as not known.
func (r *Record) Resolve() (pid int, known bool, err error) {
	pid, known, err = r.Read()
	if err != nil || !known {
		return 0, false, err
	}
	if !Alive(pid) {
		if err := r.Remove(); err != nil {
			return 0, false, err
		}
		return 0, false, nil
	}
	return pid, true, nil
}

// Write persists the pid.
func (r *Record) Write(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create pid directory: %w", err)
		}
	}
	if err := os.WriteFile(r.path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write pid file %q: %w", r.path, err)
	}
	return nil
}

// Remove deletes the record. Removing an absent record is not an error.
func (r *Record) Remove() error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove pid file %q: %w", r.path, err)
	}
	return nil
}
