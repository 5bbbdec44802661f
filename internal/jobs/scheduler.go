// Package jobs wires the background schedule: the periodic trending sweep
// and the daily activity-retention cleanup.
package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/peerpoint/scoring-engine/internal/config"
	"github.com/peerpoint/scoring-engine/internal/service/trending"
)

// Scheduler owns the cron instance and the job bindings.
type Scheduler struct {
	cron     *cron.Cron
	trending *trending.Service
	cfg      *config.Config
	logger   *slog.Logger

	// sweeping guards against overlapping sweeps: a tick that fires while
	// the previous run is still going is skipped. Overlap would be safe
	// (idempotent upserts) but wasteful.
	sweeping atomic.Bool
}

// NewScheduler creates the scheduler. Jobs run in UTC, matching the UTC
// timestamps in the activity ledger.
func NewScheduler(trendingSvc *trending.Service, cfg *config.Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		trending: trendingSvc,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers and launches all background jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.Engine.SweepCronSpec, func() { s.runSweep(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.Engine.CleanupCronSpec, func() { s.runCleanup(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		"sweep", s.cfg.Engine.SweepCronSpec, "cleanup", s.cfg.Engine.CleanupCronSpec)
	return nil
}

// Stop halts the schedule and waits for running jobs to drain.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if !s.sweeping.CompareAndSwap(false, true) {
		s.logger.Warn("previous trending sweep still running, skipping tick")
		return
	}
	defer s.sweeping.Store(false)

	if _, err := s.trending.Sweep(ctx); err != nil {
		s.logger.Error("trending sweep failed", "err", err)
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	if _, err := s.trending.CleanupActivity(ctx); err != nil {
		s.logger.Error("activity cleanup failed", "err", err)
	}
}
