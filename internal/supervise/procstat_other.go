//go:build unix && !linux

package supervise

import (
	"errors"
	"time"
)

type processMetrics struct {
	StartedAt  time.Time
	CPUPercent float64
	RSSBytes   uint64
}

// sampleProcess needs procfs; without it Status still reports liveness, just
// without resource metrics.
func sampleProcess(pid int, interval time.Duration) (processMetrics, error) {
	return processMetrics{}, errors.New("process metrics require /proc")
}
