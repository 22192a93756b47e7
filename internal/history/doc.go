// Package history keeps a local SQLite record of scans launched from this
// machine, so the CLI can show past runs and outcomes without a round trip
// to the service.
package history
