package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/store"
)

const summaryPrompt = "Summarize this conversation so far in two or three " +
	"sentences. Mention who participated and what was discussed. Reply with " +
	"the summary only."

// RunDailySummary summarizes every thread active in the last 24 hours and
// appends the summaries to the store. Per-thread failures are logged and
// skipped so one broken thread cannot sink the whole batch.
func (s *Service) RunDailySummary(ctx context.Context) error {
	cutoff := s.now().Add(-24 * time.Hour)
	threads, err := s.store.RecentThreads(cutoff)
	if err != nil {
		return fmt.Errorf("list recent threads: %w", err)
	}
	if len(threads) == 0 {
		s.logger.Info("no active threads to summarize")
		return nil
	}
	s.logger.Info("summarizing threads", "count", len(threads))

	date := s.now().Format("2006-01-02")
	var failures int
	for _, threadHash := range threads {
		if err := s.summarizeThread(ctx, threadHash, date); err != nil {
			s.logger.Error("thread summary failed", "thread", threadHash, "error", err)
			failures++
		}
	}
	if failures == len(threads) {
		return fmt.Errorf("all %d thread summaries failed", failures)
	}
	return nil
}

func (s *Service) summarizeThread(ctx context.Context, threadHash, date string) error {
	sessionID, ok := s.store.SessionFor(threadHash)
	if !ok {
		return fmt.Errorf("no session for thread %s", threadHash)
	}
	if err := s.assist.CreateUserMessage(ctx, sessionID, summaryPrompt); err != nil {
		return fmt.Errorf("create summary request: %w", err)
	}
	summary, err := s.assist.Run(ctx, sessionID, s.opts.AssistantID)
	if err != nil {
		return fmt.Errorf("summary run: %w", err)
	}
	return s.store.AppendSummary(store.SummaryEntry{
		Date:      date,
		ThreadID:  threadHash,
		SessionID: sessionID,
		Summary:   summary,
	})
}
