package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"TrendPress/internal/ports"
)

// Scheduler wires the cron-like driver with the run guard.
type Scheduler struct {
	driver ports.Scheduler
	runner *Runner
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, runner *Runner, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, runner: runner, logger: log}
}

// Start registers the pipeline with the provided scheduler.
// A tick that arrives while a run is active is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		_, err := s.runner.RunNow(ctx)
		if s.logger == nil {
			return
		}
		switch {
		case errors.Is(err, ErrAlreadyRunning):
			s.logger.Info("scheduled run skipped, pipeline busy", "trigger", trigger)
		case err != nil:
			s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
