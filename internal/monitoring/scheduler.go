// Package monitoring runs the background maintenance jobs: the expired session sweep
// and the periodic refresh of the site gauges.
package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// sweepTimeout bounds a single sweep.
const sweepTimeout = time.Minute

// SessionSweeper removes expired sessions.
type SessionSweeper interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Scheduler runs cron jobs in the background.
type Scheduler struct {
	cron    *cron.Cron
	sweeper SessionSweeper
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(sweeper SessionSweeper) *Scheduler {
	logger := cronLogger{log.Logger.With().Str("component", "scheduler").Logger()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		sweeper: sweeper,
	}
}

// ScheduleSessionSweep registers the expired session sweep on a standard cron spec.
func (s *Scheduler) ScheduleSessionSweep(spec string) error {
	_, err := s.cron.AddFunc(spec, s.SweepSessions)
	return err
}

// SweepSessions deletes every expired session once.
func (s *Scheduler) SweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.sweeper.DeleteExpiredSessions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to sweep expired sessions")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("Scheduler: swept expired sessions")
	}
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("Starting background scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		log.Info().Msg("Stopped background scheduler")
	case <-ctx.Done():
		log.Warn().Msg("Background scheduler jobs still running at shutdown")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
