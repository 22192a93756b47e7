//go:build linux

package supervise

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// userHZ is the kernel clock-tick rate /proc/[pid]/stat counters use.
// Fixed at 100 on every Linux ABI regardless of the scheduler tick.
const userHZ = 100

// processMetrics is a point-in-time sample of OS process accounting.
type processMetrics struct {
	StartedAt  time.Time
	CPUPercent float64
	RSSBytes   uint64
}

// sampleProcess reads /proc accounting for the pid. CPU percentage is
// computed from two stat reads spaced by the interval, mirroring how process
// monitors report instantaneous usage.
func sampleProcess(pid int, interval time.Duration) (processMetrics, error) {
	first, err := readProcStat(pid)
	if err != nil {
		return processMetrics{}, err
	}

	time.Sleep(interval)

	second, err := readProcStat(pid)
	if err != nil {
		return processMetrics{}, err
	}

	metrics := processMetrics{}

	deltaTicks := float64(second.utime + second.stime - first.utime - first.stime)
	elapsed := interval.Seconds()
	if elapsed > 0 {
		metrics.CPUPercent = deltaTicks / userHZ / elapsed * 100
	}

	if boot, err := bootTime(); err == nil {
		startOffset := time.Duration(float64(second.starttime) / userHZ * float64(time.Second))
		metrics.StartedAt = boot.Add(startOffset)
	}

	if rss, err := readRSS(pid); err == nil {
		metrics.RSSBytes = rss
	}

	return metrics, nil
}

type procStat struct {
	utime     uint64
	stime     uint64
	starttime uint64
}

func readProcStat(pid int) (procStat, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return procStat{}, fmt.Errorf("read process stat: %w", err)
	}

	// The comm field is parenthesized and may itself contain spaces and
	// parens; everything after the last ')' is fixed-position.
	raw := string(data)
	closing := strings.LastIndexByte(raw, ')')
	if closing < 0 {
		return procStat{}, fmt.Errorf("malformed stat for pid %d", pid)
	}
	fields := strings.Fields(raw[closing+1:])
	// Post-comm indices: state=0, so utime=11, stime=12, starttime=19
	// (stat(5) fields 14, 15, and 22).
	if len(fields) < 20 {
		return procStat{}, fmt.Errorf("short stat for pid %d", pid)
	}

	utime, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return procStat{}, fmt.Errorf("parse utime: %w", err)
	}
	stime, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return procStat{}, fmt.Errorf("parse stime: %w", err)
	}
	starttime, err := strconv.ParseUint(fields[19], 10, 64)
	if err != nil {
		return procStat{}, fmt.Errorf("parse starttime: %w", err)
	}
	return procStat{utime: utime, stime: stime, starttime: starttime}, nil
}

func readRSS(pid int) (uint64, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/statm", pid))
	if err != nil {
		return 0, fmt.Errorf("read process statm: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, fmt.Errorf("short statm for pid %d", pid)
	}
	pages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rss pages: %w", err)
	}
	return pages * uint64(os.Getpagesize()), nil
}

func bootTime() (time.Time, error) {
	file, err := os.Open("/proc/stat")
	if err != nil {
		return time.Time{}, fmt.Errorf("open /proc/stat: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "btime ") {
			continue
		}
		seconds, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "btime ")), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse btime: %w", err)
		}
		return time.Unix(seconds, 0), nil
	}
	return time.Time{}, fmt.Errorf("btime not present in /proc/stat")
}
