// Package sweeper runs the periodic reclamation jobs on a cron schedule.
package sweeper

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is a unit of periodic maintenance work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Sweeper schedules and runs maintenance jobs.
type Sweeper struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a sweeper
func New(logger *slog.Logger) *Sweeper {
	return &Sweeper{
		cron:   cron.New(),
		logger: logger.With(slog.String("component", "sweeper")),
	}
}

// AddJob registers a job on a cron schedule ("@every 5m", "@hourly", ...).
func (s *Sweeper) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.logger.Debug("running job", slog.String("job", job.Name()))
		if err := job.Run(context.Background()); err != nil {
			s.logger.Error("job failed",
				slog.String("job", job.Name()),
				slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return err
	}
	s.logger.Info("job registered",
		slog.String("job", job.Name()),
		slog.String("schedule", schedule))
	return nil
}

// Start begins running scheduled jobs in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("sweeper started")
}

// Stop halts the schedule and waits for running jobs to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("sweeper stopped")
}
