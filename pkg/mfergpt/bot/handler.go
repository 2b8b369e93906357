// Package bot implements the webhook-driven reply pipeline: a mention
// arrives, gets deduplicated, mapped to a persistent assistant thread, run
// through the assistant, and answered as a chunked reply chain.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/farcaster"
)

// SessionStore maps Farcaster threads to assistant threads and holds
// per-user prompt overrides.
type SessionStore interface {
	SessionFor(threadHash string) (string, bool)
	SaveSession(threadHash, sessionID string) error
	PersonalPrompt(fid int64) (string, bool)
}

// Social is the Farcaster surface the pipeline needs.
type Social interface {
	ThreadContext(ctx context.Context, castHash string) string
	PublishCast(ctx context.Context, text string, opts farcaster.PublishOptions) (*farcaster.Cast, error)
}

// Conversations creates assistant threads and drives runs on them.
type Conversations interface {
	NewThread(ctx context.Context) (string, error)
	CreateUserMessage(ctx context.Context, threadID, content string) error
	Run(ctx context.Context, threadID, assistantID string) (string, error)
}

// ImageGenerator produces a hosted image URL from a prompt.
type ImageGenerator interface {
	GenerateHostedImage(ctx context.Context, prompt string) (string, error)
}

// TagExpander rewrites #mferN tags in an image prompt.
type TagExpander interface {
	ExpandTags(ctx context.Context, prompt string) string
}

// Options configures the reply pipeline.
type Options struct {
	AssistantID  string
	ChunkBytes   int
	ImageTrigger string
	ApologyText  string
	Sanitizer    farcaster.Sanitizer
}

// Handler processes incoming cast mentions.
type Handler struct {
	store    SessionStore
	social   Social
	assist   Conversations
	images   ImageGenerator
	expander TagExpander
	dedupe   *Dedupe
	opts     Options
	logger   *slog.Logger
}

// NewHandler creates the reply pipeline.
func NewHandler(store SessionStore, social Social, assist Conversations, images ImageGenerator, expander TagExpander, dedupe *Dedupe, opts Options, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChunkBytes <= 0 {
		opts.ChunkBytes = 768
	}
	if opts.ImageTrigger == "" {
		opts.ImageTrigger = "#generateimage"
	}
	if opts.ApologyText == "" {
		opts.ApologyText = "Sorry, I couldn’t complete the request at this time."
	}
	return &Handler{
		store:    store,
		social:   social,
		assist:   assist,
		images:   images,
		expander: expander,
		dedupe:   dedupe,
		opts:     opts,
		logger:   logger.With("component", "bot"),
	}
}

// HandleCast runs the full pipeline for one mention. Already-seen casts
// are skipped without error.
func (h *Handler) HandleCast(ctx context.Context, cast farcaster.Cast) error {
	if cast.Hash == "" {
		return fmt.Errorf("cast has no hash")
	}
	// Mark before any side effect: webhook delivery is at-least-once and a
	// duplicate must never produce a second reply.
	if !h.dedupe.MarkIfNew(cast.Hash) {
		h.logger.Info("duplicate cast skipped", "hash", cast.Hash)
		return nil
	}
	h.logger.Info("processing mention",
		"hash", cast.Hash, "author", cast.Author.Username, "thread", cast.ThreadHash)

	if strings.Contains(cast.Text, h.opts.ImageTrigger) {
		return h.handleImageRequest(ctx, cast)
	}
	return h.handleConversation(ctx, cast)
}

// handleImageRequest bypasses the assistant entirely: the cast text (minus
// the trigger, with #mferN tags expanded) becomes the image prompt and the
// reply is the hosted image.
func (h *Handler) handleImageRequest(ctx context.Context, cast farcaster.Cast) error {
	prompt := strings.TrimSpace(strings.ReplaceAll(cast.Text, h.opts.ImageTrigger, ""))
	if h.expander != nil {
		prompt = h.expander.ExpandTags(ctx, prompt)
	}
	h.logger.Info("generating image", "hash", cast.Hash, "prompt_bytes", len(prompt))

	url, err := h.images.GenerateHostedImage(ctx, prompt)
	if err != nil {
		h.logger.Error("image generation failed", "hash", cast.Hash, "error", err)
		_, pubErr := h.social.PublishCast(ctx, "no luck, try again", farcaster.PublishOptions{ReplyTo: cast.Hash})
		if pubErr != nil {
			return fmt.Errorf("publish image failure reply: %w", pubErr)
		}
		return nil
	}
	_, err = h.social.PublishCast(ctx, "heres ur image mfer", farcaster.PublishOptions{
		ReplyTo: cast.Hash,
		Embeds:  []farcaster.Embed{{URL: url}},
	})
	if err != nil {
		return fmt.Errorf("publish image reply: %w", err)
	}
	return nil
}

// handleConversation runs the assistant over the thread and replies with
// the (sanitized, chunked) answer.
func (h *Handler) handleConversation(ctx context.Context, cast farcaster.Cast) error {
	threadHash := cast.ThreadHash
	if threadHash == "" {
		threadHash = cast.Hash
	}

	sessionID, ok := h.store.SessionFor(threadHash)
	if !ok {
		created, err := h.assist.NewThread(ctx)
		if err != nil {
			h.logger.Error("thread creation failed", "hash", cast.Hash, "error", err)
			return h.apologize(ctx, cast.Hash)
		}
		sessionID = created
		if err := h.store.SaveSession(threadHash, sessionID); err != nil {
			return fmt.Errorf("save session mapping: %w", err)
		}
		h.logger.Info("new session", "thread", threadHash, "session", sessionID)
	}

	content := h.buildContext(ctx, cast, threadHash)
	if err := h.assist.CreateUserMessage(ctx, sessionID, content); err != nil {
		h.logger.Error("message creation failed", "session", sessionID, "error", err)
		return h.apologize(ctx, cast.Hash)
	}

	reply, err := h.assist.Run(ctx, sessionID, h.opts.AssistantID)
	if err != nil {
		h.logger.Error("run failed", "session", sessionID, "error", err)
		return h.apologize(ctx, cast.Hash)
	}

	return h.publishReply(ctx, cast.Hash, reply)
}

// buildContext renders the thread plus the triggering cast into the
// message handed to the assistant.
func (h *Handler) buildContext(ctx context.Context, cast farcaster.Cast, threadHash string) string {
	var b strings.Builder
	if threadCtx := h.social.ThreadContext(ctx, threadHash); threadCtx != "" {
		b.WriteString(threadCtx)
		b.WriteString("\n------\n")
	}
	fmt.Fprintf(&b, "Latest cast from %s: %s", cast.Author.Username, cast.Text)
	if prompt, ok := h.store.PersonalPrompt(cast.Author.FID); ok {
		fmt.Fprintf(&b, "\n------\nPersonal instructions from %s: %s", cast.Author.Username, prompt)
	}
	return b.String()
}

// publishReply sanitizes and chunks a reply, publishing each chunk under
// the previous one so the answer reads as one thread.
func (h *Handler) publishReply(ctx context.Context, parentHash, reply string) error {
	reply = h.opts.Sanitizer.Sanitize(reply)
	chunks := farcaster.SplitMessage(reply, h.opts.ChunkBytes)
	for i, chunk := range chunks {
		published, err := h.social.PublishCast(ctx, chunk, farcaster.PublishOptions{ReplyTo: parentHash})
		if err != nil {
			return fmt.Errorf("publish chunk %d/%d: %w", i+1, len(chunks), err)
		}
		parentHash = published.Hash
	}
	return nil
}

// apologize posts the fallback reply after an unrecoverable failure.
func (h *Handler) apologize(ctx context.Context, parentHash string) error {
	_, err := h.social.PublishCast(ctx, h.opts.ApologyText, farcaster.PublishOptions{ReplyTo: parentHash})
	if err != nil {
		return fmt.Errorf("publish apology: %w", err)
	}
	return nil
}
