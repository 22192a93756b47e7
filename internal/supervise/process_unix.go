//go:build unix

package supervise

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"wcagscan/internal/pidfile"
)

// processHandle wraps a freshly spawned child so the startup grace probe can
// observe an early exit without racing the OS reaper.
type processHandle struct {
	pid  int
	done <-chan error
}

// spawnDetached starts the command in a new session with output redirected
// to logPath, so the child survives this process's exit. The returned handle
// reaps the child in the background; once this CLI process exits, a still
// running child reparents to init.
func spawnDetached(command string, args, extraEnv []string, logPath string) (*processHandle, error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open server log %q: %w", logPath, err)
	}

	cmd := exec.Command(command, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = append(os.Environ(), extraEnv...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return nil, err
	}
	_ = logFile.Close()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	return &processHandle{pid: cmd.Process.Pid, done: done}, nil
}

// waitExit reports whether the child exited within the grace period.
func (h *processHandle) waitExit(ctx context.Context, grace time.Duration) bool {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-h.done:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func signalGraceful(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

func signalForceful(pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}

// waitGone polls process liveness until the pid disappears or the timeout
// elapses. The supervised process is usually not our child, so signal 0
// polling is the only portable exit observation available.
func waitGone(ctx context.Context, pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if !pidfile.Alive(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return false
		}
	}
}
