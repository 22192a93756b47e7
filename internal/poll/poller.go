package poll

import (
	"context"
	"fmt"
	"time"

	"wcagscan/internal/api"
)

// StatusFetcher is the capability the poller needs from the API client.
type StatusFetcher interface {
	ScanStatus(ctx context.Context, id string) (*api.ScanStatusSnapshot, error)
}

// Event is one ordered progress update delivered to a sink. Percent is only
// meaningful when HasPercent is set; a scan that has not reported a page
// total yet has no defined percentage.
type Event struct {
	Snapshot api.ScanStatusSnapshot
	Percent  float64
	// HasPercent is false while the service reports total_pages == 0.
	HasPercent bool
}

// Sink consumes ordered progress events. Progress fires once per poll tick;
// Finish fires exactly once, with the terminal snapshot.
type Sink interface {
	Progress(event Event)
	Finish(event Event)
}

// Poller drives repeated status fetches for one scan until a terminal state,
// a fetch failure, or context cancellation.
type Poller struct {
	Client   StatusFetcher
	Interval time.Duration

	// sleep is replaceable in tests; nil selects the real clock.
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a poller with the given fetch interval.
func New(client StatusFetcher, interval time.Duration) *Poller {
	return &Poller{Client: client, Interval: interval}
}

// Poll fetches the scan status every interval and forwards each snapshot to
// the sink. It returns the terminal snapshot, or the fetch error as soon as
// one occurs: transient failures surface to the caller instead of being
// retried, so the caller decides whether to resume. Callers distinguish
// failure modes through the api package sentinels.
func (p *Poller) Poll(ctx context.Context, scanID string, sink Sink) (*api.ScanStatusSnapshot, error) {
	for {
		snapshot, err := p.Client.ScanStatus(ctx, scanID)
		if err != nil {
			return nil, fmt.Errorf("fetch scan status: %w", err)
		}

		event := Event{Snapshot: *snapshot}
		event.Percent, event.HasPercent = percentDone(snapshot.Progress)

		if snapshot.Status.Terminal() {
			sink.Finish(event)
			return snapshot, nil
		}
		sink.Progress(event)

		if err := p.wait(ctx); err != nil {
			return nil, err
		}
	}
}

func (p *Poller) wait(ctx context.Context) error {
	if p.sleep != nil {
		return p.sleep(ctx, p.Interval)
	}
	if p.Interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// percentDone computes the display percentage, clamped to [0, 100]. A zero
// page total leaves the percentage undefined rather than dividing by zero.
func percentDone(progress *api.ScanProgress) (float64, bool) {
	if progress == nil || progress.TotalPages <= 0 {
		return 0, false
	}
	percent := float64(progress.PagesScanned) / float64(progress.TotalPages) * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent, true
}
