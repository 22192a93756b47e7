// Package progress provides the ProgressSink implementations used by the
// CLI: a rendered terminal bar for --wait/--follow and a plain line writer
// for non-interactive output and tests.
package progress

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"wcagscan/internal/api"
	"wcagscan/internal/poll"
)

// BarSink renders poll events as a terminal progress bar.
type BarSink struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewBar returns a sink rendering to the given writer.
func NewBar(out io.Writer) *BarSink {
	return &BarSink{out: out}
}

func (s *BarSink) ensureBar() *progressbar.ProgressBar {
	if s.bar == nil {
		s.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(s.out),
			progressbar.OptionSetDescription("Waiting for scan..."),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowElapsedTimeOnFinish(),
		)
	}
	return s.bar
}

// Progress renders the latest snapshot, replacing the previous state.
func (s *BarSink) Progress(event poll.Event) {
	bar := s.ensureBar()
	if event.HasPercent {
		prog := event.Snapshot.Progress
		bar.Describe(fmt.Sprintf("Scanning... (%d/%d pages)", prog.PagesScanned, prog.TotalPages))
		_ = bar.Set(int(event.Percent))
		return
	}
	bar.Describe(fmt.Sprintf("Status: %s", event.Snapshot.Status))
}

// Finish renders the terminal outcome, one distinct message per status.
func (s *BarSink) Finish(event poll.Event) {
	bar := s.ensureBar()
	switch event.Snapshot.Status {
	case api.StatusCompleted:
		bar.Describe("Scan completed")
		_ = bar.Finish()
	case api.StatusFailed:
		bar.Describe("Scan failed")
		_ = bar.Exit()
	case api.StatusCancelled:
		bar.Describe("Scan cancelled")
		_ = bar.Exit()
	}
	fmt.Fprintln(s.out)

	switch event.Snapshot.Status {
	case api.StatusCompleted:
		fmt.Fprintln(s.out, "Scan completed successfully")
	case api.StatusFailed:
		message := event.Snapshot.ErrorMessage
		if message == "" {
			message = "unknown error"
		}
		fmt.Fprintf(s.out, "Scan failed: %s\n", message)
	case api.StatusCancelled:
		fmt.Fprintln(s.out, "Scan was cancelled")
	}
}

// PlainSink writes one line per event, for non-TTY output.
type PlainSink struct {
	Out io.Writer
}

func (s *PlainSink) Progress(event poll.Event) {
	if event.HasPercent {
		prog := event.Snapshot.Progress
		fmt.Fprintf(s.Out, "%s: %d/%d pages (%.0f%%)\n", event.Snapshot.Status, prog.PagesScanned, prog.TotalPages, event.Percent)
		return
	}
	fmt.Fprintf(s.Out, "%s\n", event.Snapshot.Status)
}

func (s *PlainSink) Finish(event poll.Event) {
	switch event.Snapshot.Status {
	case api.StatusCompleted:
		fmt.Fprintln(s.Out, "Scan completed successfully")
	case api.StatusFailed:
		message := event.Snapshot.ErrorMessage
		if message == "" {
			message = "unknown error"
		}
		fmt.Fprintf(s.Out, "Scan failed: %s\n", message)
	case api.StatusCancelled:
		fmt.Fprintln(s.Out, "Scan was cancelled")
	}
}
