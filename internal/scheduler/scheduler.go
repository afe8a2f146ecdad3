// Package scheduler runs the weekly and daily jobs in-process on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/brewquest/internal/ctxutil"
	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/telemetry"
)

// Parser accepts standard five-field specs plus descriptors such as @weekly.
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is one scheduled invocation. now is the scheduler's wall clock.
type Job func(ctx context.Context, now time.Time) error

// Scheduler wraps a cron runner. A job that is still running when its next
// tick fires is skipped, so one job never overlaps itself.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time

	mu    sync.Mutex
	names map[cron.EntryID]string
}

// New creates a Scheduler evaluating specs in loc.
// timeout bounds each invocation; zero means no bound.
func New(loc *time.Location, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(Parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
		names:   make(map[cron.EntryID]string),
	}
}

// Add registers a named job on spec.
func (s *Scheduler) Add(name, spec string, job Job) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() { s.invoke(name, job) })
	if err != nil {
		return 0, fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	s.mu.Lock()
	s.names[id] = name
	s.mu.Unlock()
	return id, nil
}

func (s *Scheduler) invoke(name string, job Job) {
	ctx := ctxutil.WithTrigger(context.Background(), ctxutil.TriggerScheduler)
	ctx = telemetry.WithRunID(ctx, "")
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := telemetry.RunLogger(s.logger, ctx, name)
	started := s.now()
	if err := job(ctx, started.UTC()); err != nil {
		log.Error("scheduled job failed", "error", err, "duration", time.Since(started))
		return
	}
	log.Info("scheduled job finished", "duration", time.Since(started))
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Upcoming describes the next run of a registered job.
type Upcoming struct {
	Name string
	Next time.Time
}

// Entries lists registered jobs with their next run, soonest first.
// Next is zero until the scheduler has started.
func (s *Scheduler) Entries() []Upcoming {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Upcoming
	for _, e := range s.cron.Entries() {
		out = append(out, Upcoming{Name: s.names[e.ID], Next: e.Next})
	}
	return out
}

// RegisterJourneyJobs schedules the weekly transition and the daily publish.
func RegisterJourneyJobs(s *Scheduler, weeklySpec, dailySpec string, journeySvc primary.JourneyService, publishSvc primary.PublishService) error {
	if _, err := s.Add("weekly_transition", weeklySpec, func(ctx context.Context, now time.Time) error {
		_, err := journeySvc.RunWeeklyTransition(ctx, now)
		return err
	}); err != nil {
		return err
	}
	if _, err := s.Add("daily_publish", dailySpec, func(ctx context.Context, now time.Time) error {
		_, err := publishSvc.RunDailyPublish(ctx, now)
		return err
	}); err != nil {
		return err
	}
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
