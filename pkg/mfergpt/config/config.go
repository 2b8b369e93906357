// Package config defines all configuration structures for the mfergpt bot
// and loads them from YAML with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full bot configuration.
type Config struct {
	// Name is the bot name shown in digests and logs.
	Name string `yaml:"name"`

	// Server configures the webhook HTTP server.
	Server ServerConfig `yaml:"server"`

	// Neynar configures the Farcaster (Neynar) API client.
	Neynar NeynarConfig `yaml:"neynar"`

	// OpenAI configures the assistant backend.
	OpenAI OpenAIConfig `yaml:"openai"`

	// ImageHost configures the freeimage.host uploader.
	ImageHost ImageHostConfig `yaml:"image_host"`

	// Tips configures the Ham/Floaties and Degen leaderboard APIs.
	Tips TipsConfig `yaml:"tips"`

	// Mfers configures the mfer description service.
	Mfers MfersConfig `yaml:"mfers"`

	// Data configures the flat-file data directory.
	Data DataConfig `yaml:"data"`

	// Bot configures the reply pipeline (chunking, sanitization, dedupe).
	Bot BotConfig `yaml:"bot"`

	// Run configures the assistant run loop (retries, poll intervals).
	Run RunConfig `yaml:"run"`

	// Scheduler configures the digest scheduler.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Logging configures log level and format.
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	// Address is the listen address (e.g. ":3000").
	Address string `yaml:"address"`
}

// NeynarConfig configures the Farcaster REST client.
type NeynarConfig struct {
	// APIKey authenticates against the Neynar API.
	APIKey string `yaml:"api_key"`

	// SignerUUID is the signing identity used to publish casts.
	SignerUUID string `yaml:"signer_uuid"`

	// BaseURL overrides the API endpoint (default https://api.neynar.com).
	BaseURL string `yaml:"base_url"`

	// HomeChannel is the channel digests are published to (e.g. "mfergpt").
	HomeChannel string `yaml:"home_channel"`

	// MemeChannel is the channel the daily meme job pulls trending casts from.
	MemeChannel string `yaml:"meme_channel"`
}

// OpenAIConfig configures the assistant backend.
type OpenAIConfig struct {
	// APIKey authenticates against the assistant API.
	APIKey string `yaml:"api_key"`

	// Organization is the optional OpenAI organization header.
	Organization string `yaml:"organization"`

	// BaseURL overrides the API endpoint (default https://api.openai.com/v1).
	BaseURL string `yaml:"base_url"`

	// AssistantID is the hosted assistant used for runs.
	AssistantID string `yaml:"assistant_id"`

	// Model overrides the assistant's model per run (optional).
	Model string `yaml:"model"`

	// CompletionModel is the chat model used for digests and URL
	// interpretation (default "gpt-4o-mini").
	CompletionModel string `yaml:"completion_model"`

	// ImageModel is the image generation model (default "dall-e-3").
	ImageModel string `yaml:"image_model"`
}

// ImageHostConfig configures image hosting for generated images.
type ImageHostConfig struct {
	// APIKey is the freeimage.host API key.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the upload endpoint.
	BaseURL string `yaml:"base_url"`
}

// TipsConfig configures the tipping/leaderboard APIs.
type TipsConfig struct {
	// HamBaseURL is the Ham/Floaties API endpoint.
	HamBaseURL string `yaml:"ham_base_url"`

	// DegenBaseURL is the Degen airdrop API endpoint.
	DegenBaseURL string `yaml:"degen_base_url"`
}

// MfersConfig configures the mfer description service.
type MfersConfig struct {
	// BaseURL is the description endpoint (default https://gpt.mfers.dev).
	BaseURL string `yaml:"base_url"`
}

// DataConfig configures flat-file persistence.
type DataConfig struct {
	// Dir is the directory holding the JSON data files.
	Dir string `yaml:"dir"`
}

// BotConfig configures the reply pipeline.
type BotConfig struct {
	// ChunkBytes is the per-cast byte budget (Farcaster limit, default 768).
	ChunkBytes int `yaml:"chunk_bytes"`

	// EmojiCap is how many emoji a reply may carry before the rest are
	// replaced with Placeholder.
	EmojiCap int `yaml:"emoji_cap"`

	// TickerCap is the same cap for $TICKER patterns.
	TickerCap int `yaml:"ticker_cap"`

	// Placeholder replaces emoji/ticker instances beyond the caps.
	Placeholder string `yaml:"placeholder"`

	// ApologyText is the fallback reply when a run never completes.
	ApologyText string `yaml:"apology_text"`

	// ImageTrigger bypasses the assistant run and generates an image
	// directly when present in the cast text.
	ImageTrigger string `yaml:"image_trigger"`

	// DedupeCapacity bounds the in-memory replied-message cache.
	DedupeCapacity int `yaml:"dedupe_capacity"`
}

// RunConfig configures the assistant run loop.
type RunConfig struct {
	// MaxAttempts is the retry ceiling for message creation and run driving.
	MaxAttempts int `yaml:"max_attempts"`

	// PollInterval is how often an active run is polled for status.
	PollInterval time.Duration `yaml:"poll_interval"`

	// BusyWait is how long to wait when another run holds the session.
	BusyWait time.Duration `yaml:"busy_wait"`

	// RetryWait is the delay between failed run attempts.
	RetryWait time.Duration `yaml:"retry_wait"`
}

// SchedulerConfig configures the digest scheduler.
type SchedulerConfig struct {
	// Enabled starts the cron scheduler with the serve command.
	Enabled bool `yaml:"enabled"`

	// DatabasePath is the SQLite file persisting job state.
	DatabasePath string `yaml:"database_path"`

	// Timezone is the cron timezone (default "America/Los_Angeles").
	Timezone string `yaml:"timezone"`

	// DailyCron fires the daily summary + digest cast (default "0 16 * * *").
	DailyCron string `yaml:"daily_cron"`

	// TrendingCron fires the trending digest cast (empty = disabled).
	TrendingCron string `yaml:"trending_cron"`

	// MemeCron fires the daily meme cast (empty = disabled).
	MemeCron string `yaml:"meme_cron"`

	// JobTimeout bounds a single job execution.
	JobTimeout time.Duration `yaml:"job_timeout"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// Default returns a config with all defaults applied.
func Default() *Config {
	return &Config{
		Name:   "mfergpt",
		Server: ServerConfig{Address: ":3000"},
		Neynar: NeynarConfig{
			BaseURL:     "https://api.neynar.com",
			HomeChannel: "mfergpt",
			MemeChannel: "mfers",
		},
		OpenAI: OpenAIConfig{
			BaseURL:         "https://api.openai.com/v1",
			CompletionModel: "gpt-4o-mini",
			ImageModel:      "dall-e-3",
		},
		ImageHost: ImageHostConfig{BaseURL: "https://freeimage.host/api/1/upload"},
		Tips: TipsConfig{
			HamBaseURL:   "https://farcaster.dep.dev",
			DegenBaseURL: "https://api.degen.tips",
		},
		Mfers: MfersConfig{BaseURL: "https://gpt.mfers.dev"},
		Data:  DataConfig{Dir: "./data"},
		Bot: BotConfig{
			ChunkBytes:     768,
			EmojiCap:       8,
			TickerCap:      5,
			Placeholder:    "…",
			ApologyText:    "Sorry, I couldn’t complete the request at this time.",
			ImageTrigger:   "#generateimage",
			DedupeCapacity: 4096,
		},
		Run: RunConfig{
			MaxAttempts:  10,
			PollInterval: 2 * time.Second,
			BusyWait:     10 * time.Second,
			RetryWait:    5 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			DatabasePath: "./data/mfergpt.db",
			Timezone:     "America/Los_Angeles",
			DailyCron:    "0 16 * * *",
			JobTimeout:   10 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads a YAML config file, applies defaults for unset fields, then
// applies environment overrides and the keyring/env secret chain.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from the environment. Secrets resolved
// here may still be superseded by the OS keyring (see ResolveSecrets).
func (c *Config) applyEnv() {
	if v := os.Getenv("NEYNAR_API_KEY"); v != "" {
		c.Neynar.APIKey = v
	}
	if v := os.Getenv("SIGNER_UUID"); v != "" {
		c.Neynar.SignerUUID = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_ORG"); v != "" {
		c.OpenAI.Organization = v
	}
	if v := os.Getenv("ASST_MODEL"); v != "" {
		c.OpenAI.AssistantID = v
	}
	if v := os.Getenv("MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("FREEIMAGE_API_KEY"); v != "" {
		c.ImageHost.APIKey = v
	}
	if v := os.Getenv("MFERGPT_DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			c.Server.Address = ":" + v
		}
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Bot.ChunkBytes <= 0 {
		return fmt.Errorf("bot.chunk_bytes must be positive, got %d", c.Bot.ChunkBytes)
	}
	if c.Run.MaxAttempts <= 0 {
		return fmt.Errorf("run.max_attempts must be positive, got %d", c.Run.MaxAttempts)
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	return nil
}
