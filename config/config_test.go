package config

import (
	"os"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telegram.BotToken = "t"
	cfg.Completion.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Mode != "poll" {
		t.Errorf("Mode = %q", cfg.Mode)
	}
}

func TestLoad(t *testing.T) {
	yaml := `
mode: "webhook"
listen: ":9090"
db_path: "/tmp/wl.db"
segment_len: 2000
allowed_users: ["100", "200"]
telegram:
  bot_token: "file-token"
  poll_timeout_s: 20
  parse_mode: "HTML"
completion:
  api_key: "file-key"
  model: "mistral-large-latest"
  temperature: 0.7
  timeout_s: 120
web:
  timeout_s: 30
  max_bytes: 1048576
`
	f, err := os.CreateTemp("", "config_test_*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString(yaml)
	f.Close()

	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "webhook" || cfg.Listen != ":9090" {
		t.Errorf("Mode=%q Listen=%q", cfg.Mode, cfg.Listen)
	}
	if cfg.SegmentLen != 2000 {
		t.Errorf("SegmentLen = %d", cfg.SegmentLen)
	}
	if len(cfg.AllowedUsers) != 2 {
		t.Errorf("AllowedUsers = %v", cfg.AllowedUsers)
	}
	if cfg.Telegram.PollTimeout() != 20*time.Second {
		t.Errorf("PollTimeout = %v", cfg.Telegram.PollTimeout())
	}
	if cfg.Completion.Timeout() != 120*time.Second {
		t.Errorf("completion Timeout = %v", cfg.Completion.Timeout())
	}
	if cfg.Web.MaxBytes != 1048576 {
		t.Errorf("MaxBytes = %d", cfg.Web.MaxBytes)
	}
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("MISTRAL_API_KEY", "env-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("BotToken = %q", cfg.Telegram.BotToken)
	}
	if cfg.Completion.APIKey != "env-key" {
		t.Errorf("APIKey = %q", cfg.Completion.APIKey)
	}
}

func TestValidate_MissingToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Completion.APIKey = "k"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing bot token")
	}
}

func TestValidate_BadMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telegram.BotToken = "t"
	cfg.Completion.APIKey = "k"
	cfg.Mode = "push"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unsupported mode")
	}
}
