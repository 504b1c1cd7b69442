// Package ratelimit paces outbound requests to upstream APIs.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/internpipe/internpipe/internal/model"
)

// NewLimiter returns a token-bucket limiter allowing requestsPerSec sustained
// requests with a burst of one, matching the job board's per-second allowance.
func NewLimiter(requestsPerSec float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(requestsPerSec), 1)
}

// PacedSource is a decorator that waits for the rate limiter before
// delegating to the wrapped JobSource. Sources sharing an upstream host
// should share the same limiter instance.
type PacedSource struct {
	inner   model.JobSource
	limiter *rate.Limiter
}

// NewPacedSource wraps a JobSource with rate limiting.
func NewPacedSource(inner model.JobSource, limiter *rate.Limiter) *PacedSource {
	return &PacedSource{
		inner:   inner,
		limiter: limiter,
	}
}

// SearchJobs blocks until the limiter allows a request, then delegates to the
// wrapped source. Returns an error if the context is cancelled while waiting.
func (s *PacedSource) SearchJobs(ctx context.Context, query model.SearchQuery) ([]model.Job, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	return s.inner.SearchJobs(ctx, query)
}
