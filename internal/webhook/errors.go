package webhook

import (
	"errors"
	"fmt"
)

// ErrNoMealsFound means the webhook answered but no meals exist for the
// student. It is a valid empty state, not a failure.
var ErrNoMealsFound = errors.New("no meals found")

// NetworkError is a request that failed before any response arrived.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("webhook unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response, surfaced verbatim.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// RemoteValidationError means the workflow explicitly rejected the student
// or record as invalid.
type RemoteValidationError struct {
	Reason string
}

func (e *RemoteValidationError) Error() string { return e.Reason }
