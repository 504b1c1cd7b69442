package model

import (
	"fmt"
	"time"
)

// HTTPError is returned by the job board and enrichment clients for non-200
// responses. Retry logic inspects the status code to decide whether another
// attempt makes sense.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from the Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
