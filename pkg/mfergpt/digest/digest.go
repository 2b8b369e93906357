// Package digest implements the scheduled community digests: per-thread
// daily summaries, the channel digest cast, the trending recap, and the
// daily meme.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/farcaster"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/store"
)

// Store is the persistence surface the digests need.
type Store interface {
	RecentThreads(cutoff time.Time) ([]string, error)
	SessionFor(threadHash string) (string, bool)
	AppendSummary(entry store.SummaryEntry) error
	SummariesOn(date string) ([]store.SummaryEntry, error)
}

// Social is the Farcaster surface the digests need.
type Social interface {
	TrendingCasts(ctx context.Context, channelID string, limit int, timeWindow string) ([]farcaster.TrendingSample, error)
	PublishCast(ctx context.Context, text string, opts farcaster.PublishOptions) (*farcaster.Cast, error)
}

// Conversations drives assistant runs on existing session threads.
type Conversations interface {
	CreateUserMessage(ctx context.Context, threadID, content string) error
	Run(ctx context.Context, threadID, assistantID string) (string, error)
}

// Completer runs one-shot completions.
type Completer interface {
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// ImageGenerator produces a hosted image URL from a prompt.
type ImageGenerator interface {
	GenerateHostedImage(ctx context.Context, prompt string) (string, error)
}

// URLInterpreter describes what an embed URL points at.
type URLInterpreter interface {
	InterpretURL(ctx context.Context, url, prompt string) string
}

// Options configures the digest service.
type Options struct {
	AssistantID     string
	CompletionModel string
	HomeChannel     string
	MemeChannel     string
	ChunkBytes      int
	Sanitizer       farcaster.Sanitizer
}

// Service produces and publishes the digests.
type Service struct {
	store     Store
	social    Social
	assist    Conversations
	completer Completer
	images    ImageGenerator
	urls      URLInterpreter
	opts      Options
	logger    *slog.Logger

	// now is injectable for date-sensitive tests.
	now func() time.Time
}

// New creates the digest service.
func New(st Store, social Social, assist Conversations, completer Completer, images ImageGenerator, urls URLInterpreter, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChunkBytes <= 0 {
		opts.ChunkBytes = 768
	}
	return &Service{
		store:     st,
		social:    social,
		assist:    assist,
		completer: completer,
		images:    images,
		urls:      urls,
		opts:      opts,
		logger:    logger.With("component", "digest"),
		now:       time.Now,
	}
}

// publishChunks publishes text into a channel as a chunked reply chain.
func (s *Service) publishChunks(ctx context.Context, text, channelID string, embeds []farcaster.Embed) error {
	text = s.opts.Sanitizer.Sanitize(text)
	chunks := farcaster.SplitMessage(text, s.opts.ChunkBytes)
	parent := ""
	for i, chunk := range chunks {
		opts := farcaster.PublishOptions{ReplyTo: parent}
		if parent == "" {
			opts.ChannelID = channelID
			opts.Embeds = embeds
		}
		published, err := s.social.PublishCast(ctx, chunk, opts)
		if err != nil {
			return fmt.Errorf("publish chunk %d/%d: %w", i+1, len(chunks), err)
		}
		parent = published.Hash
	}
	return nil
}
