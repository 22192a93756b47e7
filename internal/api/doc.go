// Package api is the REST client for the remote scanner service.
//
// It owns the wire types the CLI consumes (scans, projects, status
// snapshots), bearer-token header injection, and the error taxonomy callers
// branch on: ErrNotFound for unknown ids, ErrUnauthorized for rejected
// tokens, ErrUnreachable for transport failures, and *APIError for anything
// else non-2xx. Every request carries a fresh X-Request-ID so failures can be
// correlated with server logs.
//
// The HTTPDoer seam exists for tests; production callers construct clients
// through NewFromConfig, which applies the configured request timeout.
package api
