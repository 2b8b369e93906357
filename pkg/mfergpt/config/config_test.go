package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() config invalid: %v", err)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
name: testbot
server:
  address: ":4000"
neynar:
  home_channel: testchannel
bot:
  chunk_bytes: 320
  emoji_cap: 2
run:
  max_attempts: 4
  retry_wait: 1s
scheduler:
  daily_cron: "30 9 * * *"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "testbot" || cfg.Server.Address != ":4000" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Bot.ChunkBytes != 320 || cfg.Bot.EmojiCap != 2 {
		t.Errorf("bot overrides not applied: %+v", cfg.Bot)
	}
	if cfg.Run.MaxAttempts != 4 || cfg.Run.RetryWait != time.Second {
		t.Errorf("run overrides not applied: %+v", cfg.Run)
	}
	// Untouched fields keep their defaults.
	if cfg.Bot.Placeholder != "…" {
		t.Errorf("placeholder default lost: %q", cfg.Bot.Placeholder)
	}
	if cfg.Scheduler.Timezone != "America/Los_Angeles" {
		t.Errorf("timezone default lost: %q", cfg.Scheduler.Timezone)
	}
	if cfg.Scheduler.DailyCron != "30 9 * * *" {
		t.Errorf("daily cron override lost: %q", cfg.Scheduler.DailyCron)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NEYNAR_API_KEY", "env-neynar")
	t.Setenv("PORT", "5005")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Neynar.APIKey != "env-neynar" {
		t.Errorf("NEYNAR_API_KEY not applied: %q", cfg.Neynar.APIKey)
	}
	if cfg.Server.Address != ":5005" {
		t.Errorf("PORT not applied: %q", cfg.Server.Address)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Bot.ChunkBytes = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject zero chunk_bytes")
	}

	cfg = Default()
	cfg.Run.MaxAttempts = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject negative max_attempts")
	}

	cfg = Default()
	cfg.Data.Dir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should require data.dir")
	}
}
