package progress

import (
	"bytes"
	"strings"
	"testing"

	"wcagscan/internal/api"
	"wcagscan/internal/poll"
)

func event(status api.ScanStatus, percent float64, hasPercent bool, scanned, total int) poll.Event {
	return poll.Event{
		Snapshot: api.ScanStatusSnapshot{
			Status:   status,
			Progress: &api.ScanProgress{PagesScanned: scanned, TotalPages: total},
		},
		Percent:    percent,
		HasPercent: hasPercent,
	}
}

func TestPlainSinkRendersProgressLines(t *testing.T) {
	var buf bytes.Buffer
	sink := &PlainSink{Out: &buf}

	sink.Progress(event(api.StatusQueued, 0, false, 0, 0))
	sink.Progress(event(api.StatusScanning, 30, true, 3, 10))
	sink.Finish(event(api.StatusCompleted, 100, true, 10, 10))

	out := buf.String()
	for _, want := range []string{"queued\n", "scanning: 3/10 pages (30%)", "Scan completed successfully"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPlainSinkFinishMessagesDistinguishOutcomes(t *testing.T) {
	cases := []struct {
		status  api.ScanStatus
		message string
		want    string
	}{
		{api.StatusCompleted, "", "Scan completed successfully"},
		{api.StatusFailed, "crawler crashed", "Scan failed: crawler crashed"},
		{api.StatusFailed, "", "Scan failed: unknown error"},
		{api.StatusCancelled, "", "Scan was cancelled"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		sink := &PlainSink{Out: &buf}
		ev := event(tc.status, 0, false, 0, 0)
		ev.Snapshot.ErrorMessage = tc.message
		sink.Finish(ev)
		if !strings.Contains(buf.String(), tc.want) {
			t.Fatalf("%s: output missing %q:\n%s", tc.status, tc.want, buf.String())
		}
	}
}

func TestBarSinkWritesOutcomeToWriter(t *testing.T) {
	var buf bytes.Buffer
	sink := NewBar(&buf)

	sink.Progress(event(api.StatusScanning, 50, true, 5, 10))
	sink.Finish(event(api.StatusFailed, 50, true, 5, 10))

	out := buf.String()
	if !strings.Contains(out, "Scan failed") {
		t.Fatalf("bar output missing failure message:\n%s", out)
	}
}
