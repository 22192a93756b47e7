// Package supervise manages the lifecycle of the local scanner server
// process: detached start with an early-exit probe, graceful stop escalating
// to a forced kill, metric-backed status, and restart.
//
// The pid record (internal/pidfile) is the only durable state; every
// operation re-derives liveness from it rather than caching. Mutating
// operations serialize through a flock advisory lock next to the pid file so
// concurrent CLI invocations cannot interleave a read-then-write on the
// record. A server that exits externally is detected lazily, the next time
// an operation probes liveness; there is no background watcher.
package supervise
