// Package poll drives repeated status fetches for a remote scan until it
// reaches a terminal state, converting snapshots into ordered progress
// events for a Sink.
//
// The loop is deliberately retry-free: the first fetch failure aborts the
// sequence and surfaces to the caller, who can re-invoke manually. Snapshots
// are strictly ordered by fetch time inside the single sequential loop, so a
// sink always renders the latest state.
package poll
