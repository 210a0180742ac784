// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper removes stored artifacts older than a TTL
type Sweeper interface {
	SweepExports(ctx context.Context, ttl time.Duration) (int, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
	ttl      time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that sweeps expired artifacts on schedule,
// a standard 5-field cron expression.
func NewScheduler(sweeper Sweeper, schedule string, ttl time.Duration, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		sweeper:  sweeper,
		schedule: schedule,
		ttl:      ttl,
		logger:   logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweepExpired); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("sweep_schedule", s.schedule),
		slog.Duration("artifact_ttl", s.ttl),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow runs the sweep synchronously.
func (s *Scheduler) RunNow() {
	s.sweepExpired()
}

func (s *Scheduler) sweepExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.sweeper.SweepExports(ctx, s.ttl)
	if err != nil {
		s.logger.Error("artifact sweep failed",
			slog.Int("removed", removed),
			slog.Any("error", err),
		)
		return
	}

	if removed > 0 {
		s.logger.Info("expired artifacts removed", slog.Int("removed", removed))
	}
}
