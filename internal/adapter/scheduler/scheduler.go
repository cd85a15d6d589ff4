// Package scheduler runs named background jobs on cron schedules.
//
// It wraps github.com/robfig/cron/v3 with slog logging, panic recovery
// and skip-if-running overlap control, so a slow purge never stacks up
// behind itself.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is a scheduled unit of work. The context is canceled when the
// scheduler stops.
type JobFunc func(ctx context.Context) error

// JobID identifies a registered job.
type JobID = cron.EntryID

// cronLogger adapts the cron library's logger to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{"error", err}, keysAndValues...)
	l.log.Error(msg, args...)
}

// Scheduler owns the cron runner and the lifecycle of its jobs.
type Scheduler struct {
	cron      *cron.Cron
	log       *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	stopOnce  sync.Once
}

// New builds a scheduler. Schedules use the standard five-field cron
// syntax plus the @every / @daily shorthands.
func New(parent context.Context, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{log: log.With("component", "cron")}),
			cron.WithChain(cron.Recover(cronLogger{log: log})),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers a named job. Runs that would overlap a still-running
// execution of the same job are skipped.
func (s *Scheduler) AddJob(schedule, name string, job JobFunc) (JobID, error) {
	var running sync.Mutex

	id, err := s.cron.AddFunc(schedule, func() {
		if !running.TryLock() {
			s.log.Debug("skipping job, previous run still in progress", "job", name)
			return
		}
		defer running.Unlock()

		start := time.Now()
		if err := job(s.ctx); err != nil {
			s.log.Error("job failed", "job", name, "error", err, "duration", time.Since(start))
			return
		}
		s.log.Debug("job completed", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("job scheduled", "job", name, "schedule", schedule)
	return id, nil
}

// Start begins dispatching jobs. Idempotent.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.log.Info("starting scheduler")
		s.cron.Start()
	})
}

// Stop cancels the job context and waits for in-flight runs to finish.
// Idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.log.Info("stopping scheduler")
		s.cancel()
		<-s.cron.Stop().Done()
		s.log.Info("scheduler stopped")
	})
}
