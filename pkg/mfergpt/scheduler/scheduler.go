// Package scheduler runs the recurring digest jobs on cron schedules.
// Uses robfig/cron for expression parsing and execution, with SQLite-based
// run history for surviving restarts.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is one scheduled job body.
type JobFunc func(ctx context.Context) error

// RunRecord is one persisted job execution.
type RunRecord struct {
	Job        string
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
}

// RunStorage persists job run history.
type RunStorage interface {
	RecordRun(record RunRecord) error
	LastRun(job string) (*RunRecord, error)
	Close() error
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron    *cron.Cron
	storage RunStorage

	// runningJobs tracks in-flight jobs to prevent duplicate runs when a
	// cron fires while the previous run is still active.
	runningJobs map[string]bool
	mu          sync.Mutex

	jobTimeout time.Duration
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler in the given timezone. storage may be nil to
// skip run history.
func New(timezone string, jobTimeout time.Duration, storage RunStorage, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timezone == "" {
		timezone = "America/Los_Angeles"
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(location)),
		storage:     storage,
		runningJobs: make(map[string]bool),
		jobTimeout:  jobTimeout,
		logger:      logger.With("component", "scheduler"),
	}, nil
}

// Register schedules a named job on a cron expression.
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	_, err := s.cron.AddFunc(spec, func() { s.executeJob(name, fn) })
	if err != nil {
		return fmt.Errorf("schedule job %q (%s): %w", name, spec, err)
	}
	s.logger.Info("job registered", "job", name, "schedule", spec)
	return nil
}

// Start begins firing jobs. The context bounds every job execution.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts job firing and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// executeJob runs one job with overlap protection, a timeout, and an error
// boundary: a panicking or failing job must never take the process down.
func (s *Scheduler) executeJob(name string, fn JobFunc) {
	s.mu.Lock()
	if s.runningJobs[name] {
		s.mu.Unlock()
		s.logger.Warn("job still running, skipping", "job", name)
		return
	}
	s.runningJobs[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.runningJobs, name)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)
	defer cancel()

	started := time.Now()
	s.logger.Info("job starting", "job", name)

	err := s.runGuarded(ctx, fn)
	record := RunRecord{Job: name, StartedAt: started, FinishedAt: time.Now()}
	if err != nil {
		record.Error = err.Error()
		s.logger.Error("job failed", "job", name, "duration", record.FinishedAt.Sub(started), "error", err)
	} else {
		s.logger.Info("job finished", "job", name, "duration", record.FinishedAt.Sub(started))
	}

	if s.storage != nil {
		if err := s.storage.RecordRun(record); err != nil {
			s.logger.Error("failed to persist run record", "job", name, "error", err)
		}
	}
}

func (s *Scheduler) runGuarded(ctx context.Context, fn JobFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}
	}()
	return fn(ctx)
}
