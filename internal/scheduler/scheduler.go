// Package scheduler resyncs every calendar source on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"weekplan/internal/calendar"
	appLog "weekplan/internal/log"
)

// Syncer is the part of the calendar engine the scheduler drives.
type Syncer interface {
	SyncAllSources(ctx context.Context) calendar.SyncSummary
}

// Scheduler runs Syncer.SyncAllSources on a standard five-field cron
// spec. A run that is still going when the next one is due is skipped.
type Scheduler struct {
	cron   *cron.Cron
	syncer Syncer

	// Timeout bounds one full sync run.
	Timeout time.Duration

	mu      sync.Mutex
	last    calendar.SyncSummary
	lastRun time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New validates spec and prepares a scheduler. It does not start it.
func New(spec string, syncer Syncer) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("scheduler: empty cron spec")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		syncer:  syncer,
		Timeout: 5 * time.Minute,
		ctx:     ctx,
		cancel:  cancel,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("scheduler: add job: %w", err)
	}
	appLog.Info("calendar auto-sync scheduled", "spec", spec)
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels a running sync and waits for it to return or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs one sync of every source.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(s.ctx, s.Timeout)
	defer cancel()

	start := time.Now()
	summary := s.syncer.SyncAllSources(ctx)

	s.mu.Lock()
	s.last = summary
	s.lastRun = start
	s.mu.Unlock()

	if len(summary.FailedSources) > 0 {
		appLog.Warn("scheduled sync finished with failures",
			"sources", summary.TotalSources,
			"failed", strings.Join(summary.FailedSources, ", "),
			"elapsed", time.Since(start).String(),
		)
		return
	}
	appLog.Info("scheduled sync finished",
		"sources", summary.TotalSources,
		"tasks", summary.TotalTasks,
		"elapsed", time.Since(start).String(),
	)
}

// lastResult returns the summary of the most recent run and when it started.
func (s *Scheduler) lastResult() (calendar.SyncSummary, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastRun
}
