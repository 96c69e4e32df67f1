package datasource

import (
	"errors"
	"fmt"
)

// ErrDataSourceUnavailable is matched by every failure to obtain a usable response
// from the ranking data source.
var ErrDataSourceUnavailable = errors.New("data source unavailable")

// NetworkFailure means the request did not complete: connection refused, DNS,
// timeout or cancellation.
type NetworkFailure struct {
	Op  string
	Err error
}

func (e *NetworkFailure) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkFailure) Unwrap() []error { return []error{ErrDataSourceUnavailable, e.Err} }

// HTTPStatusFailure means the data source answered with a non-2xx status.
type HTTPStatusFailure struct {
	Op         string
	StatusCode int
}

func (e *HTTPStatusFailure) Error() string {
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
}

func (e *HTTPStatusFailure) Unwrap() error { return ErrDataSourceUnavailable }

// MalformedPayload means a 2xx body could not be parsed or did not match the schema.
type MalformedPayload struct {
	Op     string
	Reason string
}

func (e *MalformedPayload) Error() string {
	return fmt.Sprintf("%s: malformed payload: %s", e.Op, e.Reason)
}

func (e *MalformedPayload) Unwrap() error { return ErrDataSourceUnavailable }
