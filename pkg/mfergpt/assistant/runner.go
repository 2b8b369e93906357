package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrRunIncomplete is returned when a run did not reach completion within
// the attempt budget.
var ErrRunIncomplete = errors.New("assistant run did not complete")

// ToolResolver executes the tool calls a run is blocked on. It must return
// exactly one output per call, in any order; tool failures are reported
// inside the output payload, never as a resolver error.
type ToolResolver interface {
	Resolve(ctx context.Context, calls []ToolCall) []ToolOutput
}

// RunAPI is the slice of the client the runner needs.
type RunAPI interface {
	CreateMessage(ctx context.Context, threadID, content string) (*Message, error)
	CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*Run, error)
	ListRuns(ctx context.Context, threadID string) ([]Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error)
	LatestAssistantText(ctx context.Context, threadID string) (string, error)
}

// Runner drives assistant runs to completion: it serializes message
// creation against active runs, polls run state, dispatches tool calls,
// and retries failed runs up to an attempt budget.
type Runner struct {
	api   RunAPI
	tools ToolResolver

	maxAttempts  int
	pollInterval time.Duration
	busyWait     time.Duration
	retryWait    time.Duration

	// sleep is injectable so tests run without real waiting.
	sleep func(ctx context.Context, d time.Duration) error

	logger *slog.Logger
}

// RunnerOptions configures a Runner. Zero fields get working defaults.
type RunnerOptions struct {
	MaxAttempts  int
	PollInterval time.Duration
	BusyWait     time.Duration
	RetryWait    time.Duration
	Sleep        func(ctx context.Context, d time.Duration) error
	Logger       *slog.Logger
}

// NewRunner creates a Runner over an API client and a tool resolver.
func NewRunner(api RunAPI, tools ToolResolver, opts RunnerOptions) *Runner {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.BusyWait <= 0 {
		opts.BusyWait = 10 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 5 * time.Second
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		api:          api,
		tools:        tools,
		maxAttempts:  opts.MaxAttempts,
		pollInterval: opts.PollInterval,
		busyWait:     opts.BusyWait,
		retryWait:    opts.RetryWait,
		sleep:        opts.Sleep,
		logger:       opts.Logger.With("component", "runner"),
	}
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CreateUserMessage appends a user message to a thread, waiting out any
// active run first. A thread rejects new messages while a run holds it.
func (r *Runner) CreateUserMessage(ctx context.Context, threadID, content string) error {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		runs, err := r.api.ListRuns(ctx, threadID)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if busy := activeRun(runs); busy != nil {
			// A run parked on requires_action never finishes on its own;
			// answer its tool calls so the thread can free up.
			if busy.Status == StatusRequiresAction {
				r.logger.Info("thread held by run awaiting tool outputs, draining",
					"thread_id", threadID, "run_id", busy.ID)
				outputs := r.tools.Resolve(ctx, busy.PendingToolCalls())
				if _, err := r.api.SubmitToolOutputs(ctx, threadID, busy.ID, outputs); err != nil {
					return fmt.Errorf("drain stuck run: %w", err)
				}
			}
			r.logger.Info("thread busy, waiting for active run",
				"thread_id", threadID, "run_id", busy.ID, "status", busy.Status)
			if err := r.sleep(ctx, r.busyWait); err != nil {
				return err
			}
			continue
		}
		if _, err := r.api.CreateMessage(ctx, threadID, content); err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		return nil
	}
	return fmt.Errorf("thread %s stayed busy: %w", threadID, ErrRunIncomplete)
}

// activeRun returns the first run still holding the thread, or nil.
func activeRun(runs []Run) *Run {
	for i := range runs {
		if runs[i].Status.Active() {
			return &runs[i]
		}
	}
	return nil
}

// Run drives a full assistant turn on a thread and returns the reply text.
// A failed run is retried with a fresh run until the attempt budget is
// spent, then ErrRunIncomplete is returned.
func (r *Runner) Run(ctx context.Context, threadID, assistantID string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			r.logger.Warn("retrying run", "thread_id", threadID, "attempt", attempt+1, "error", lastErr)
			if err := r.sleep(ctx, r.retryWait); err != nil {
				return "", err
			}
		}

		run, err := r.api.CreateRun(ctx, threadID, assistantID)
		if err != nil {
			lastErr = err
			continue
		}

		text, err := r.drive(ctx, run)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrRunIncomplete, r.maxAttempts, lastErr)
}

// drive polls one run to a terminal state, answering tool calls as they
// appear, and returns the reply text on completion.
func (r *Runner) drive(ctx context.Context, run *Run) (string, error) {
	for {
		switch run.Status {
		case StatusCompleted:
			return r.api.LatestAssistantText(ctx, run.ThreadID)

		case StatusRequiresAction:
			calls := run.PendingToolCalls()
			r.logger.Info("run requires tool outputs", "run_id", run.ID, "calls", len(calls))
			outputs := r.tools.Resolve(ctx, calls)
			next, err := r.api.SubmitToolOutputs(ctx, run.ThreadID, run.ID, outputs)
			if err != nil {
				return "", fmt.Errorf("submit tool outputs: %w", err)
			}
			run = next

		case StatusQueued, StatusInProgress:
			if err := r.sleep(ctx, r.pollInterval); err != nil {
				return "", err
			}
			next, err := r.api.GetRun(ctx, run.ThreadID, run.ID)
			if err != nil {
				return "", fmt.Errorf("poll run: %w", err)
			}
			run = next

		default:
			if run.LastError != nil {
				return "", fmt.Errorf("run %s ended %s: %s (%s)",
					run.ID, run.Status, run.LastError.Message, run.LastError.Code)
			}
			return "", fmt.Errorf("run %s ended %s", run.ID, run.Status)
		}
	}
}
