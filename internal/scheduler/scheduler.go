package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"rental-service/internal/jobs"
	"rental-service/internal/logger"
)

// Scheduler runs the rental maintenance jobs on a cron cadence.
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.Runner
	log  logger.Logger
}

// New builds a scheduler around the job runner.
func New(runner *jobs.Runner, log logger.Logger) *Scheduler {
	s := &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		jobs: runner,
		log:  log,
	}
	s.registerJobs()
	return s
}

func (s *Scheduler) registerJobs() {
	// every minute: deposit windows are short
	if _, err := s.cron.AddFunc("* * * * *", s.jobs.CancelStaleDeposits); err != nil {
		s.log.Error("failed to register CancelStaleDeposits", zap.Error(err))
	}
	if _, err := s.cron.AddFunc("*/5 * * * *", s.jobs.SettleRefunds); err != nil {
		s.log.Error("failed to register SettleRefunds", zap.Error(err))
	}
	if _, err := s.cron.AddFunc("@hourly", s.jobs.CompleteReturnedRentals); err != nil {
		s.log.Error("failed to register CompleteReturnedRentals", zap.Error(err))
	}
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop halts scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
