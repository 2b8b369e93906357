package digest

import (
	"context"
	"fmt"
	"strings"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/farcaster"
)

const digestSystemPrompt = "You write a short, upbeat daily digest for a " +
	"Farcaster channel. Given thread summaries from the last day, produce a " +
	"digest covering the highlights. Keep it casual and under 200 words."

const trendingSystemPrompt = "You recap what is trending in a Farcaster " +
	"channel. Given a list of popular casts with engagement counts, write a " +
	"short recap of what the community is talking about. Keep it casual and " +
	"under 150 words."

const memeSystemPrompt = "You write image generation prompts for memes. " +
	"Given a popular cast (and a description of its attachment, if any), " +
	"write a single vivid prompt for a meme image riffing on it. Reply with " +
	"the prompt only."

// CastDailySummary composes the daily digest from today's thread summaries
// and publishes it to the home channel.
func (s *Service) CastDailySummary(ctx context.Context) error {
	date := s.now().Format("2006-01-02")
	entries, err := s.store.SummariesOn(date)
	if err != nil {
		return fmt.Errorf("load summaries: %w", err)
	}
	if len(entries) == 0 {
		s.logger.Info("no summaries today, skipping digest cast")
		return nil
	}

	var b strings.Builder
	for _, entry := range entries {
		b.WriteString("- ")
		b.WriteString(entry.Summary)
		b.WriteString("\n")
	}
	digest, err := s.completer.Complete(ctx, s.opts.CompletionModel, digestSystemPrompt, b.String())
	if err != nil {
		return fmt.Errorf("compose digest: %w", err)
	}

	// The illustration is best effort; the digest still goes out without it.
	var embeds []farcaster.Embed
	if imageURL, err := s.images.GenerateHostedImage(ctx, digest); err != nil {
		s.logger.Warn("digest illustration failed", "error", err)
	} else {
		embeds = []farcaster.Embed{{URL: imageURL}}
	}

	s.logger.Info("casting daily digest", "summaries", len(entries), "channel", s.opts.HomeChannel)
	return s.publishChunks(ctx, digest, s.opts.HomeChannel, embeds)
}

// CastTrendingSummary recaps the home channel's trending casts of the day.
func (s *Service) CastTrendingSummary(ctx context.Context) error {
	trending, err := s.social.TrendingCasts(ctx, s.opts.HomeChannel, 10, "24h")
	if err != nil {
		return fmt.Errorf("fetch trending casts: %w", err)
	}
	if len(trending) == 0 {
		s.logger.Info("nothing trending, skipping recap")
		return nil
	}

	var b strings.Builder
	for _, cast := range trending {
		fmt.Fprintf(&b, "@%s (%d likes, %d recasts, %d replies): %s\n",
			cast.Author, cast.LikesCount, cast.RecastsCount, cast.RepliesCount, cast.Text)
	}
	recap, err := s.completer.Complete(ctx, s.opts.CompletionModel, trendingSystemPrompt, b.String())
	if err != nil {
		return fmt.Errorf("compose trending recap: %w", err)
	}
	s.logger.Info("casting trending recap", "casts", len(trending), "channel", s.opts.HomeChannel)
	return s.publishChunks(ctx, recap, s.opts.HomeChannel, nil)
}

// CastDailyMeme picks the meme channel's hottest recent cast, generates a
// meme image riffing on it, and publishes the image quoting the cast.
func (s *Service) CastDailyMeme(ctx context.Context) error {
	trending, err := s.social.TrendingCasts(ctx, s.opts.MemeChannel, 5, "6h")
	if err != nil {
		return fmt.Errorf("fetch meme channel trending: %w", err)
	}
	if len(trending) == 0 {
		s.logger.Info("meme channel quiet, skipping")
		return nil
	}
	source := trending[0]

	material := source.Text
	if len(source.Embeds) > 0 && source.Embeds[0].URL != "" {
		desc := s.urls.InterpretURL(ctx, source.Embeds[0].URL, "")
		material = fmt.Sprintf("%s\nAttachment: %s", material, desc)
	}

	prompt, err := s.completer.Complete(ctx, s.opts.CompletionModel, memeSystemPrompt, material)
	if err != nil {
		return fmt.Errorf("compose meme prompt: %w", err)
	}
	imageURL, err := s.images.GenerateHostedImage(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generate meme image: %w", err)
	}

	embeds := []farcaster.Embed{{URL: imageURL}}
	if source.Hash != "" {
		embeds = append(embeds, farcaster.Embed{
			CastID: &farcaster.CastID{FID: source.AuthorFID, Hash: source.Hash},
		})
	}
	s.logger.Info("casting daily meme", "source", source.Hash, "channel", s.opts.MemeChannel)
	_, err = s.social.PublishCast(ctx, "", farcaster.PublishOptions{
		ChannelID: s.opts.MemeChannel,
		Embeds:    embeds,
	})
	if err != nil {
		return fmt.Errorf("publish meme: %w", err)
	}
	return nil
}
