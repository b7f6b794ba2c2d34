// Package scheduler runs periodic maintenance jobs (room reaping, pool metrics) on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/onnwee/invite-rooms/telemetry"
)

// JobFunc is one run of a job. The context carries a per-run correlation id and is
// cancelled when the scheduler stops.
type JobFunc func(ctx context.Context) error

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	base context.Context
	stop context.CancelFunc
}

// New creates a scheduler in UTC. Overlapping runs of the same job are skipped and
// panics are recovered.
func New() *Scheduler {
	log := cronLogger{slog.Default().With(slog.String("component", "scheduler"))}
	base, stop := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		base: base,
		stop: stop,
	}
}

// Add registers a job under a standard cron spec or descriptor such as "@every 1m".
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(name, fn)); err != nil {
		return fmt.Errorf("register job %s (%q): %w", name, spec, err)
	}
	slog.Info("job registered", slog.String("component", "scheduler"), slog.String("job", name), slog.String("spec", spec))
	return nil
}

func (s *Scheduler) wrap(name string, fn JobFunc) func() {
	return func() {
		ctx := telemetry.WithCorrelation(s.base, uuid.NewString())
		var err error
		telemetry.TimeFunc(telemetry.JobDuration.WithLabelValues(name), func() { err = fn(ctx) })
		if err != nil {
			telemetry.JobRuns.WithLabelValues(name, "error").Inc()
			telemetry.LoggerWithCorr(ctx).Error("job failed", slog.String("component", "scheduler"), slog.String("job", name), slog.Any("err", err))
			return
		}
		telemetry.JobRuns.WithLabelValues(name, "ok").Inc()
	}
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for running
// jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	slog.Info("scheduler started", slog.String("component", "scheduler"), slog.Int("jobs", s.Jobs()))
	<-ctx.Done()
	s.stop()
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped", slog.String("component", "scheduler"))
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append([]interface{}{"err", err}, keysAndValues...)...)
}
