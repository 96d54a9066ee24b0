// Package jobs runs the background schedule: the periodic sweep of expired
// application windows.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/hqhub/taskbank/internal/service"
)

// Scheduler owns the cron runner for background jobs.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *service.Sweeper
}

// NewScheduler creates a scheduler that sweeps on the given cron schedule.
func NewScheduler(sweeper *service.Sweeper, sweepSchedule string) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
	}

	ctx := context.Background()
	if _, err := s.cron.AddFunc(sweepSchedule, func() {
		if _, err := s.sweeper.Sweep(ctx); err != nil {
			slog.Error("sweep run failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", sweepSchedule, err)
	}

	return s, nil
}

// Start launches the background jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("job scheduler started")
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("job scheduler stopped")
}
