// Package schedule triggers job runs from a cron expression.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"arkfeed.dev/arkfeed/internal/job"
	"arkfeed.dev/arkfeed/internal/output"
)

// RunFunc performs one run
type RunFunc func(ctx context.Context, trigger job.Trigger) (*job.Result, error)

// Scheduler runs a job on a standard 5-field cron schedule
type Scheduler struct {
	spec       string
	run        RunFunc
	splog      *output.Splog
	runOnStart bool

	cron *cron.Cron
}

// Validate parses a cron expression
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// New creates a scheduler; the expression is validated here
func New(spec string, run RunFunc, splog *output.Splog, runOnStart bool) (*Scheduler, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}
	return &Scheduler{
		spec:       spec,
		run:        run,
		splog:      splog,
		runOnStart: runOnStart,
		// SkipIfStillRunning keeps ticks from queueing behind a slow run.
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

// Start blocks until ctx is cancelled, then waits for the run in progress.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.trigger(ctx, job.TriggerSchedule)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	if s.runOnStart {
		s.trigger(ctx, job.TriggerStartup)
	}

	s.cron.Start()
	s.splog.Info("Scheduled %q; next run at %s", s.spec, s.Next().Format("2006-01-02 15:04:05 MST"))

	<-ctx.Done()
	s.splog.Info("Stopping scheduler")
	// Stop's context is done once the run in progress returns.
	<-s.cron.Stop().Done()
	return nil
}

// Next returns the next scheduled run time, zero before Start
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) trigger(ctx context.Context, trigger job.Trigger) {
	if ctx.Err() != nil {
		return
	}

	// A shutdown signal should not kill a run halfway through a push.
	// Failures and skips are logged and recorded by the runner; the loop keeps going.
	result, err := s.run(context.WithoutCancel(ctx), trigger)
	if err == nil && result != nil {
		s.splog.Debug("Run %s finished: %s", result.RunID, result.Status)
	}
}
