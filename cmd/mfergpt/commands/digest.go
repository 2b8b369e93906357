package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newDigestCmd creates the `mfergpt digest` command that runs one digest
// job immediately instead of waiting for its cron slot.
func newDigestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Run a digest job once and exit",
		Long: `Run one of the scheduled digest jobs immediately.

Jobs:
  daily     summarize active threads and cast the daily digest
  trending  cast a recap of the home channel's trending casts
  meme      generate and cast the daily meme

Examples:
  mfergpt digest --job daily
  mfergpt digest --job meme`,
		RunE: runDigest,
	}

	cmd.Flags().String("job", "daily", "digest job to run (daily, trending, meme)")
	cmd.Flags().Duration("timeout", 10*time.Minute, "job timeout")
	return cmd
}

func runDigest(cmd *cobra.Command, _ []string) error {
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

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	job, _ := cmd.Flags().GetString("job")
	switch job {
	case "daily":
		if err := svc.digestSvc.RunDailySummary(ctx); err != nil {
			return err
		}
		return svc.digestSvc.CastDailySummary(ctx)
	case "trending":
		return svc.digestSvc.CastTrendingSummary(ctx)
	case "meme":
		return svc.digestSvc.CastDailyMeme(ctx)
	default:
		return fmt.Errorf("unknown job %q (want daily, trending or meme)", job)
	}
}
