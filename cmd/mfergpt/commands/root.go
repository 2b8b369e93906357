// Package commands implements the mfergpt CLI commands using cobra.
package commands

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/config"
)

// NewRootCmd creates the root command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mfergpt",
		Short: "mferGPT - Farcaster chatbot for the mfers community",
		Long: `mferGPT is a Farcaster chatbot: it answers mentions through an
OpenAI assistant with Farcaster-aware tools, generates images on demand,
and posts daily community digests.

Examples:
  mfergpt serve
  mfergpt serve --config ./config.yaml
  mfergpt digest --job daily
  mfergpt secrets set openai_api_key`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newDigestCmd(),
		newSecretsCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}

// loadConfig loads .env, the YAML config, and resolves secrets.
func loadConfig(cmd *cobra.Command, logger *slog.Logger) (*config.Config, error) {
	// Missing .env is fine; real deployments use the environment directly.
	_ = godotenv.Load()

	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ResolveSecrets(logger)
	return cfg, nil
}

// newLogger builds the slog logger from flags and config.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	level := slog.LevelInfo
	if verbose || (cfg != nil && cfg.Logging.Level == "debug") {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg != nil && cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
