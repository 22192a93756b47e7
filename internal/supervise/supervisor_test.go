//go:build unix

package supervise

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"wcagscan/internal/pidfile"
)

func newTestSupervisor(t *testing.T, args []string, grace, stopTimeout time.Duration) *Supervisor {
	t.Helper()
	dir := t.TempDir()
	sup := New(Options{
		Command:      "/bin/sh",
		Args:         args,
		PidFile:      filepath.Join(dir, "server.pid"),
		LockFile:     filepath.Join(dir, "server.lock"),
		ServerLog:    filepath.Join(dir, "server.log"),
		StartupGrace: grace,
		StopTimeout:  stopTimeout,
		RestartDelay: 10 * time.Millisecond,
	})
	t.Cleanup(func() {
		if pid, known, _ := sup.record.Read(); known {
			_ = unix.Kill(pid, unix.SIGKILL)
			_ = sup.record.Remove()
		}
	})
	return sup
}

func TestStopWhenNotRunningIsIdempotent(t *testing.T) {
	sup := newTestSupervisor(t, []string{"-c", "sleep 30"}, 50*time.Millisecond, time.Second)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := sup.Stop(ctx); !errors.Is(err, ErrNotRunning) {
			t.Fatalf("stop %d: expected ErrNotRunning, got %v", i+1, err)
		}
	}
}

func TestStartThenStatusReportsSamePid(t *testing.T) {
	sup := newTestSupervisor(t, []string{"-c", "sleep 30"}, 100*time.Millisecond, time.Second)
	ctx := context.Background()

	pid, err := sup.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if pid <= 0 {
		t.Fatalf("invalid pid %d", pid)
	}

	recorded, known, err := sup.record.Read()
	if err != nil || !known {
		t.Fatalf("pid record missing after start: known=%v err=%v", known, err)
	}
	if recorded != pid {
		t.Fatalf("pid record %d does not match started pid %d", recorded, pid)
	}

	status, err := sup.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID != pid {
		t.Fatalf("expected Running with pid %d, got %+v", pid, status)
	}

	if _, err := sup.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStartFailsWhenChildExitsWithinGrace(t *testing.T) {
	sup := newTestSupervisor(t, []string{"-c", "echo broken config >&2; exit 1"}, 300*time.Millisecond, time.Second)

	_, err := sup.Start(context.Background())
	var startErr *StartFailedError
	if !errors.As(err, &startErr) {
		t.Fatalf("expected *StartFailedError, got %v", err)
	}
	if startErr.Output == "" {
		t.Fatal("expected captured exit output")
	}

	if _, known, _ := sup.record.Read(); known {
		t.Fatal("pid record must not survive a failed start")
	}
}

func TestStartWhileRunningFailsAlreadyRunning(t *testing.T) {
	sup := newTestSupervisor(t, []string{"-c", "sleep 30"}, 100*time.Millisecond, time.Second)
	ctx := context.Background()

	pid, err := sup.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = sup.Start(ctx)
	var already *AlreadyRunningError
	if !errors.As(err, &already) {
		t.Fatalf("expected *AlreadyRunningError, got %v", err)
	}
	if already.PID != pid {
		t.Fatalf("error pid %d does not match running pid %d", already.PID, pid)
	}

	if _, err := sup.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStopEscalatesToKillWhenTermIgnored(t *testing.T) {
	sup := newTestSupervisor(t, []string{"-c", `trap "" TERM; while true; do sleep 1; done`}, 100*time.Millisecond, 300*time.Millisecond)
	ctx := context.Background()

	pid, err := sup.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	result, err := sup.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !result.Forced {
		t.Fatal("expected forced termination for a TERM-trapping process")
	}
	if result.PID != pid {
		t.Fatalf("stop result pid %d does not match %d", result.PID, pid)
	}

	if _, known, _ := sup.record.Read(); known {
		t.Fatal("pid record must be cleared after a forced stop")
	}

	// SIGKILL cannot be trapped; give the reaper a moment.
	deadline := time.Now().Add(time.Second)
	for pidfile.Alive(pid) && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if pidfile.Alive(pid) {
		t.Fatalf("pid %d still alive after forced stop", pid)
	}
}

func TestStopClearsStaleRecord(t *testing.T) {
	sup := newTestSupervisor(t, []string{"-c", "sleep 30"}, 50*time.Millisecond, time.Second)

	proc, err := os.StartProcess("/bin/true", []string{"true"}, &os.ProcAttr{})
	if err != nil {
		t.Skipf("cannot spawn probe process: %v", err)
	}
	if _, err := proc.Wait(); err != nil {
		t.Fatalf("wait probe process: %v", err)
	}
	if err := sup.record.Write(proc.Pid); err != nil {
		t.Fatalf("seed stale record: %v", err)
	}

	if _, err := sup.Stop(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning for stale record, got %v", err)
	}
	if _, known, _ := sup.record.Read(); known {
		t.Fatal("stale record should have been cleared")
	}
}

func TestRestartToleratesNotRunning(t *testing.T) {
	sup := newTestSupervisor(t, []string{"-c", "sleep 30"}, 100*time.Millisecond, time.Second)
	ctx := context.Background()

	pid, err := sup.Restart(ctx)
	if err != nil {
		t.Fatalf("Restart from stopped: %v", err)
	}
	if pid <= 0 {
		t.Fatalf("invalid pid %d", pid)
	}

	second, err := sup.Restart(ctx)
	if err != nil {
		t.Fatalf("Restart while running: %v", err)
	}
	if second == pid {
		t.Fatalf("restart did not replace the process (pid %d unchanged)", pid)
	}

	if _, err := sup.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

type fakeProber struct{ err error }

func (f fakeProber) Health(context.Context) error { return f.err }

func TestStatusReportsHealthIndependently(t *testing.T) {
	sup := newTestSupervisor(t, []string{"-c", "sleep 30"}, 100*time.Millisecond, time.Second)
	sup.health = fakeProber{err: errors.New("connection refused")}
	ctx := context.Background()

	if _, err := sup.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	status, err := sup.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatal("health probe failure must not flip Running")
	}
	if status.Reachable {
		t.Fatal("expected Reachable=false for failing probe")
	}

	sup.health = fakeProber{}
	status, err = sup.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Reachable {
		t.Fatal("expected Reachable=true for passing probe")
	}

	if _, err := sup.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
