package reconcile

import (
	"context"
	"log/slog"
	"time"
)

// Runner is satisfied by Job.
type Runner interface {
	Run(ctx context.Context) (Outcome, error)
}

// Scheduler runs reconciliation on interval boundaries counted from UTC
// midnight, so a 24h interval fires at 00:00 UTC and 1h fires on the hour.
// With a Locker, a tick that finds the lock held by another process is skipped.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	locker   Locker
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler builds a scheduler. locker may be nil.
func NewScheduler(runner Runner, interval time.Duration, locker Locker, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		locker:   locker,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NextRun returns the first interval boundary strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	return now.UTC().Truncate(s.interval).Add(s.interval)
}

// Start blocks, running one reconciliation per boundary until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	next := s.NextRun(s.now())
	s.logger.Info("reconciliation scheduler started",
		slog.Duration("interval", s.interval),
		slog.Time("next_run", next),
	)

	timer := time.NewTimer(next.Sub(s.now()))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reconciliation scheduler stopped")
			return
		case <-timer.C:
			s.Tick(ctx)
			timer.Reset(s.NextRun(s.now()).Sub(s.now()))
		}
	}
}

// Tick performs a single guarded run and reports whether it ran.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if s.locker != nil {
		token, ok, err := s.locker.Acquire(ctx)
		if err != nil {
			s.logger.Error("reconciliation lock failed", slog.Any("error", err))
			return false
		}
		if !ok {
			s.logger.Info("reconciliation already running elsewhere, skipping")
			return false
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.locker.Release(releaseCtx, token); err != nil {
				s.logger.Warn("reconciliation lock release failed", slog.Any("error", err))
			}
		}()
	}

	// Errors are logged by the job; the next tick retries.
	_, _ = s.runner.Run(ctx)
	return true
}
