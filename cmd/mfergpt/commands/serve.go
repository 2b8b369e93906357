package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/assistant"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/attachments"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/bot"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/config"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/digest"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/farcaster"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/imagegen"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/imagehost"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/mfers"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/scheduler"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/store"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/tips"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/tools"
)

// newServeCmd creates the `mfergpt serve` command that starts the bot.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server and digest scheduler",
		Long: `Start mfergpt as a daemon: listen for cast mentions on the
webhook endpoint and run the scheduled community digests.

Examples:
  mfergpt serve
  mfergpt serve --config ./config.yaml --no-scheduler`,
		RunE: runServe,
	}

	cmd.Flags().Bool("no-scheduler", false, "disable the digest scheduler")
	return cmd
}

// services holds the wired-up application.
type services struct {
	cfg    *config.Config
	logger *slog.Logger

	store     *store.Store
	social    *farcaster.Client
	ai        *assistant.Client
	registry  *tools.Registry
	handler   *bot.Handler
	digestSvc *digest.Service
}

// conversations adapts the assistant client + runner to the thread-aware
// surface the bot and digest pipelines consume.
type conversations struct {
	*assistant.Runner
	client *assistant.Client
}

func (c conversations) NewThread(ctx context.Context) (string, error) {
	thread, err := c.client.CreateThread(ctx)
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

// buildServices wires every component from config.
func buildServices(cfg *config.Config, logger *slog.Logger) (*services, error) {
	st, err := store.New(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("open data store: %w", err)
	}

	social := farcaster.New(cfg.Neynar.BaseURL, cfg.Neynar.APIKey, cfg.Neynar.SignerUUID, logger)
	ai := assistant.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Organization, logger)

	host := imagehost.New(cfg.ImageHost.BaseURL, cfg.ImageHost.APIKey, logger)
	images := imagegen.New(ai, host, cfg.OpenAI.ImageModel, logger)

	mferLookup := mfers.New(cfg.Mfers.BaseURL, logger)
	urls := attachments.New(ai, cfg.OpenAI.CompletionModel, logger)
	tipping := tips.New(cfg.Tips.HamBaseURL, cfg.Tips.DegenBaseURL, logger)

	registry := tools.NewDefault(tools.Deps{
		Social:   social,
		Images:   images,
		URLs:     urls,
		Mfers:    mferLookup,
		Tips:     tipping,
		Profiles: st,
		Logger:   logger,
	})

	chatRunner := assistant.NewRunner(ai, registry, assistant.RunnerOptions{
		MaxAttempts:  cfg.Run.MaxAttempts,
		PollInterval: cfg.Run.PollInterval,
		BusyWait:     cfg.Run.BusyWait,
		RetryWait:    cfg.Run.RetryWait,
		Logger:       logger,
	})

	sanitizer := farcaster.Sanitizer{
		EmojiCap:    cfg.Bot.EmojiCap,
		TickerCap:   cfg.Bot.TickerCap,
		Placeholder: cfg.Bot.Placeholder,
	}

	handler := bot.NewHandler(st, social, conversations{chatRunner, ai}, images, mferLookup,
		bot.NewDedupe(cfg.Bot.DedupeCapacity), bot.Options{
			AssistantID:  cfg.OpenAI.AssistantID,
			ChunkBytes:   cfg.Bot.ChunkBytes,
			ImageTrigger: cfg.Bot.ImageTrigger,
			ApologyText:  cfg.Bot.ApologyText,
			Sanitizer:    sanitizer,
		}, logger)

	// Digest runs get a tighter retry budget: a failed summary can wait for
	// the next scheduled slot instead of hammering the API.
	digestRunner := assistant.NewRunner(ai, registry, assistant.RunnerOptions{
		MaxAttempts:  3,
		PollInterval: cfg.Run.PollInterval,
		BusyWait:     cfg.Run.BusyWait,
		RetryWait:    cfg.Run.RetryWait,
		Logger:       logger,
	})
	digestSvc := digest.New(st, social, conversations{digestRunner, ai}, ai, images, urls, digest.Options{
		AssistantID:     cfg.OpenAI.AssistantID,
		CompletionModel: cfg.OpenAI.CompletionModel,
		HomeChannel:     cfg.Neynar.HomeChannel,
		MemeChannel:     cfg.Neynar.MemeChannel,
		ChunkBytes:      cfg.Bot.ChunkBytes,
		Sanitizer:       sanitizer,
	}, logger)

	return &services{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		social:    social,
		ai:        ai,
		registry:  registry,
		handler:   handler,
		digestSvc: digestSvc,
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd, nil)
	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}
	logger = newLogger(cmd, cfg)

	svc, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Digest scheduler.
	noScheduler, _ := cmd.Flags().GetBool("no-scheduler")
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled && !noScheduler {
		storage, err := scheduler.OpenStorage(cfg.Scheduler.DatabasePath)
		if err != nil {
			return fmt.Errorf("open scheduler storage: %w", err)
		}
		defer storage.Close()

		sched, err = scheduler.New(cfg.Scheduler.Timezone, cfg.Scheduler.JobTimeout, storage, logger)
		if err != nil {
			return err
		}
		if err := sched.Register("daily-digest", cfg.Scheduler.DailyCron, func(ctx context.Context) error {
			if err := svc.digestSvc.RunDailySummary(ctx); err != nil {
				return err
			}
			return svc.digestSvc.CastDailySummary(ctx)
		}); err != nil {
			return err
		}
		if cfg.Scheduler.TrendingCron != "" {
			if err := sched.Register("trending-recap", cfg.Scheduler.TrendingCron, svc.digestSvc.CastTrendingSummary); err != nil {
				return err
			}
		}
		if cfg.Scheduler.MemeCron != "" {
			if err := sched.Register("daily-meme", cfg.Scheduler.MemeCron, svc.digestSvc.CastDailyMeme); err != nil {
				return err
			}
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	// Webhook server.
	server := bot.NewServer(cfg.Server.Address, svc.handler, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	logger.Info("mfergpt running",
		"address", cfg.Server.Address,
		"scheduler", sched != nil,
		"tools", len(svc.registry.Names()))

	// Wait for shutdown signal or server failure.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	return server.Stop(shutdownCtx)
}
