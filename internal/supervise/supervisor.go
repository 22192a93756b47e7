package supervise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"wcagscan/internal/config"
	"wcagscan/internal/logging"
	"wcagscan/internal/pidfile"
)

// HealthProber performs the best-effort remote health check reported by
// Status. Failures never change the Running determination.
type HealthProber interface {
	Health(ctx context.Context) error
}

// Options configures a Supervisor.
type Options struct {
	Command   string
	Args      []string
	ExtraEnv  []string
	PidFile   string
	LockFile  string
	ServerLog string

	StartupGrace time.Duration
	StopTimeout  time.Duration
	RestartDelay time.Duration

	Health        HealthProber
	HealthTimeout time.Duration

	Logger *slog.Logger
}

// Supervisor owns the lifecycle of one local background server process. All
// state is derived fresh per operation by combining the pid record with a
// liveness probe; nothing is cached across commands.
type Supervisor struct {
	command   string
	args      []string
	extraEnv  []string
	record    *pidfile.Record
	lock      *flock.Flock
	serverLog string

	grace        time.Duration
	stopTimeout  time.Duration
	restartDelay time.Duration

	health        HealthProber
	healthTimeout time.Duration

	logger *slog.Logger
}

// New constructs a Supervisor, applying default timings for unset durations.
func New(opts Options) *Supervisor {
	if opts.StartupGrace <= 0 {
		opts.StartupGrace = 2 * time.Second
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 10 * time.Second
	}
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = 2 * time.Second
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Supervisor{
		command:       opts.Command,
		args:          opts.Args,
		extraEnv:      opts.ExtraEnv,
		record:        pidfile.New(opts.PidFile),
		lock:          flock.New(opts.LockFile),
		serverLog:     opts.ServerLog,
		grace:         opts.StartupGrace,
		stopTimeout:   opts.StopTimeout,
		restartDelay:  opts.RestartDelay,
		health:        opts.Health,
		healthTimeout: opts.HealthTimeout,
		logger:        opts.Logger,
	}
}

// NewFromConfig builds a Supervisor for the configured server command. The
// bind address is passed to the server through its environment.
func NewFromConfig(cfg *config.Config, health HealthProber, logger *slog.Logger) *Supervisor {
	return New(Options{
		Command: cfg.Server.Command,
		Args:    cfg.Server.Args,
		ExtraEnv: []string{
			"WCAG_SERVER_HOST=" + cfg.Server.Host,
			"WCAG_SERVER_PORT=" + strconv.Itoa(cfg.Server.Port),
		},
		PidFile:       cfg.PidFilePath(),
		LockFile:      cfg.LockFilePath(),
		ServerLog:     cfg.ServerLogPath(),
		StartupGrace:  time.Duration(cfg.Server.StartupGrace) * time.Second,
		StopTimeout:   time.Duration(cfg.Server.StopTimeout) * time.Second,
		RestartDelay:  time.Duration(cfg.Server.RestartDelay) * time.Second,
		Health:        health,
		HealthTimeout: time.Duration(cfg.API.HealthTimeout) * time.Second,
		Logger:        logger,
	})
}

// StopResult reports how a stop concluded.
type StopResult struct {
	PID    int
	Forced bool
}

// Status is the derived state of the supervised process.
type Status struct {
	Running     bool
	PID         int
	StartedAt   time.Time
	CPUPercent  float64
	MemoryBytes uint64
	// Reachable reports the health probe outcome and is independent of the
	// Running determination.
	Reachable bool
}

// Start spawns the server as a detached process. It fails with
// *AlreadyRunningError when the pid record resolves to a live process, and
// with *StartFailedError when the child exits within the startup grace
// period.
func (s *Supervisor) Start(ctx context.Context) (int, error) {
	unlock, err := s.acquireLock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()
	return s.startLocked(ctx)
}

func (s *Supervisor) startLocked(ctx context.Context) (int, error) {
	pid, known, err := s.record.Resolve()
	if err != nil {
		return 0, err
	}
	if known {
		return 0, &AlreadyRunningError{PID: pid}
	}

	handle, err := spawnDetached(s.command, s.args, s.extraEnv, s.serverLog)
	if err != nil {
		return 0, fmt.Errorf("launch server: %w", err)
	}

	// One-shot probe after the grace period: a server that cannot survive
	// its first moments is reported as a start failure, with its output.
	exited := handle.waitExit(ctx, s.grace)
	if exited {
		output := tailFile(s.serverLog, 4096)
		_ = s.record.Remove()
		return 0, &StartFailedError{Output: output}
	}

	if err := s.record.Write(handle.pid); err != nil {
		return 0, err
	}
	s.logger.Info("server started", "pid", handle.pid, "command", s.command)
	return handle.pid, nil
}

// Stop terminates the supervised process: graceful signal first, escalating
// to a forceful kill when the stop timeout elapses. Forced termination is an
// escalation path, not an error. All success paths delete the pid record.
// Stop is idempotent; a stale or absent record reports ErrNotRunning.
func (s *Supervisor) Stop(ctx context.Context) (StopResult, error) {
	unlock, err := s.acquireLock(ctx)
	if err != nil {
		return StopResult{}, err
	}
	defer unlock()
	return s.stopLocked(ctx)
}

func (s *Supervisor) stopLocked(ctx context.Context) (StopResult, error) {
	pid, known, err := s.record.Resolve()
	if err != nil {
		return StopResult{}, err
	}
	if !known {
		return StopResult{}, ErrNotRunning
	}

	if err := signalGraceful(pid); err != nil {
		// Process vanished between the liveness probe and the signal.
		_ = s.record.Remove()
		return StopResult{}, ErrNotRunning
	}

	if waitGone(ctx, pid, s.stopTimeout) {
		if err := s.record.Remove(); err != nil {
			return StopResult{}, err
		}
		s.logger.Info("server stopped", "pid", pid)
		return StopResult{PID: pid}, nil
	}

	// Forceful termination is assumed always effective.
	_ = signalForceful(pid)
	if err := s.record.Remove(); err != nil {
		return StopResult{}, err
	}
	s.logger.Warn("server killed after stop timeout", "pid", pid, "timeout", s.stopTimeout)
	return StopResult{PID: pid, Forced: true}, nil
}

// Status derives the current state from the pid record plus OS process
// metrics, and reports the health probe outcome independently.
func (s *Supervisor) Status(ctx context.Context) (Status, error) {
	pid, known, err := s.record.Resolve()
	if err != nil {
		return Status{}, err
	}
	if !known {
		return Status{}, nil
	}

	status := Status{Running: true, PID: pid}
	if metrics, err := sampleProcess(pid, 100*time.Millisecond); err == nil {
		status.StartedAt = metrics.StartedAt
		status.CPUPercent = metrics.CPUPercent
		status.MemoryBytes = metrics.RSSBytes
	} else {
		s.logger.Debug("process metrics unavailable", "pid", pid, "error", err)
	}

	if s.health != nil {
		probeCtx, cancel := context.WithTimeout(ctx, s.healthTimeout)
		defer cancel()
		status.Reachable = s.health.Health(probeCtx) == nil
	}
	return status, nil
}

// Restart stops the server (tolerating a server that was not running), waits
// the settle delay, and starts it again. Any other stop failure aborts
// without attempting the start.
func (s *Supervisor) Restart(ctx context.Context) (int, error) {
	unlock, err := s.acquireLock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	wasRunning := true
	if _, err := s.stopLocked(ctx); err != nil {
		if !errors.Is(err, ErrNotRunning) {
			return 0, fmt.Errorf("stop before restart: %w", err)
		}
		wasRunning = false
	}
	if wasRunning {
		select {
		case <-time.After(s.restartDelay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return s.startLocked(ctx)
}

func (s *Supervisor) acquireLock(ctx context.Context) (func(), error) {
	locked, err := s.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire supervisor lock %q: %w", s.lock.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("supervisor lock %q held by another process", s.lock.Path())
	}
	return func() { _ = s.lock.Unlock() }, nil
}

func tailFile(path string, limit int64) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return ""
	}
	offset := int64(0)
	if info.Size() > limit {
		offset = info.Size() - limit
	}
	buf := make([]byte, info.Size()-offset)
	if _, err := file.ReadAt(buf, offset); err != nil {
		return ""
	}
	return string(buf)
}
