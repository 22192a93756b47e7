package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an unknown scan or project id.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates a missing or rejected token.
	ErrUnauthorized = errors.New("not authenticated")
	// ErrUnreachable indicates the service could not be reached at all.
	ErrUnreachable = errors.New("scanner service unreachable")
)

// APIError carries a non-2xx response that is not covered by a sentinel.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("scanner api returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("scanner api returned %d", e.StatusCode)
}
