package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/internpipe/internpipe/internal/model"
)

// Runner is the piece of the pipeline the scheduler drives.
type Runner interface {
	RunDaily(ctx context.Context) (*model.Batch, error)
}

// Scheduler owns the daemon loop: runs the pipeline immediately, then on
// every interval tick.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler running the pipeline at the given interval.
func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. It runs one immediate cycle, then ticks on the
// configured interval. A failed run is logged and the loop keeps going.
// Returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.runner.RunDaily(ctx); err != nil {
		s.logger.Error("pipeline run failed", "error", err)
	}
}
