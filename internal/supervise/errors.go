package supervise

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotRunning indicates no live supervised process is recorded. Stopping an
// already-stopped server reports this same error every time; callers treat it
// as an outcome, not a failure.
var ErrNotRunning = errors.New("server is not running")

// AlreadyRunningError is returned by Start when the pid record resolves to a
// live process.
type AlreadyRunningError struct {
	PID int
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("server is already running (pid %d)", e.PID)
}

// StartFailedError is returned when the spawned server exits within the
// startup grace period. Output carries the tail of the server's log.
type StartFailedError struct {
	Output string
}

func (e *StartFailedError) Error() string {
	if strings.TrimSpace(e.Output) == "" {
		return "server exited during startup"
	}
	return fmt.Sprintf("server exited during startup:\n%s", e.Output)
}
