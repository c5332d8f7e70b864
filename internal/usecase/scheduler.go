package usecase

import (
	"context"
	"log/slog"
	"time"

	"ContractTracker/internal/ports"
)

// Scheduler wires the recurring driver with the digest use case.
type Scheduler struct {
	driver   ports.Scheduler
	digest   *Digest
	location *time.Location
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring digest. Trigger
// times are converted to loc before they become "today".
func NewScheduler(driver ports.Scheduler, digest *Digest, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{driver: driver, digest: digest, location: loc, logger: logger}
}

// Start registers the digest with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.digest == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.digest.Run(ctx, trigger.In(s.location)); err != nil && s.logger != nil {
			s.logger.Error("digest run failed", "error", err)
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
