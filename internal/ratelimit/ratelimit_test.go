package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/internpipe/internpipe/internal/model"
)

type recordingSource struct {
	called bool
}

func (s *recordingSource) SearchJobs(_ context.Context, _ model.SearchQuery) ([]model.Job, error) {
	s.called = true
	return nil, nil
}

func TestPacedSource_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewLimiter(10) // one request per 100ms
	inner := &recordingSource{}
	src := NewPacedSource(inner, limiter)
	ctx := context.Background()

	// First call consumes the initial token and delegates immediately.
	if _, err := src.SearchJobs(ctx, model.SearchQuery{}); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if !inner.called {
		t.Fatal("inner source was not called on first search")
	}

	inner.called = false

	start := time.Now()
	if _, err := src.SearchJobs(ctx, model.SearchQuery{}); err != nil {
		t.Fatalf("second search: %v", err)
	}
	elapsed := time.Since(start)

	if !inner.called {
		t.Fatal("inner source was not called on second search")
	}
	// Should have waited roughly 100ms for the next token (allow timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second search, got %v", elapsed)
	}
}

func TestPacedSource_ContextCancellation(t *testing.T) {
	limiter := NewLimiter(0.1) // one request per 10s
	inner := &recordingSource{}
	src := NewPacedSource(inner, limiter)

	// Drain the initial token.
	if _, err := src.SearchJobs(context.Background(), model.SearchQuery{}); err != nil {
		t.Fatalf("first search: %v", err)
	}
	inner.called = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.SearchJobs(ctx, model.SearchQuery{}); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
	if inner.called {
		t.Fatal("inner source should not be called when the wait is cancelled")
	}
}

func TestSharedLimiter_PacesAcrossSources(t *testing.T) {
	limiter := NewLimiter(10)
	a := NewPacedSource(&recordingSource{}, limiter)
	b := NewPacedSource(&recordingSource{}, limiter)
	ctx := context.Background()

	if _, err := a.SearchJobs(ctx, model.SearchQuery{}); err != nil {
		t.Fatalf("first search: %v", err)
	}

	// Second source shares the bucket, so it must wait for the next token.
	start := time.Now()
	if _, err := b.SearchJobs(ctx, model.SearchQuery{}); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait for shared limiter, got %v", elapsed)
	}
}
