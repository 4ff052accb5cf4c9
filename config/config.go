// Package config loads the service configuration: YAML file merged over
// defaults, with secrets overridable from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	// Mode selects the update transport: "poll" (default) or "webhook".
	Mode string `yaml:"mode"`
	// Listen is the HTTP listen address for webhook mode and /healthz.
	Listen string `yaml:"listen"`
	// WebhookPath is the path Telegram posts updates to in webhook mode.
	WebhookPath string `yaml:"webhook_path"`
	// DBPath is the whitelist SQLite database.
	DBPath string `yaml:"db_path"`
	// SegmentLen caps reply message length in runes.
	SegmentLen int `yaml:"segment_len"`
	// AllowedUsers is seeded into the whitelist at startup.
	AllowedUsers []string `yaml:"allowed_users"`
	LogLevel     string   `yaml:"log_level"`

	Telegram   TelegramConfig   `yaml:"telegram"`
	Completion CompletionConfig `yaml:"completion"`
	Web        WebConfig        `yaml:"web"`
}

// TelegramConfig configures the bot transport.
type TelegramConfig struct {
	// BotToken may be left empty in the file and supplied via
	// TELEGRAM_BOT_TOKEN instead.
	BotToken     string `yaml:"bot_token"`
	APIBase      string `yaml:"api_base"`
	PollTimeoutS int    `yaml:"poll_timeout_s"`
	// ParseMode: "HTML" to send sanitized HTML replies, empty for plain text.
	ParseMode string `yaml:"parse_mode"`
}

// CompletionConfig configures the generation endpoint client.
type CompletionConfig struct {
	// APIKey may be left empty in the file and supplied via
	// MISTRAL_API_KEY instead.
	APIKey      string  `yaml:"api_key"`
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	Preamble    string  `yaml:"preamble"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutS    int     `yaml:"timeout_s"`
}

// WebConfig configures link fetching.
type WebConfig struct {
	TimeoutS  int    `yaml:"timeout_s"`
	MaxBytes  int64  `yaml:"max_bytes"`
	UserAgent string `yaml:"user_agent"`
}

// DefaultConfig returns sane defaults. Zero values in nested sections defer
// to the owning packages' own defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:        "poll",
		Listen:      ":8086",
		WebhookPath: "/telegram/webhook",
		DBPath:      "db/whitelist.db",
		LogLevel:    "info",
	}
}

// Load reads and parses a YAML config file over DefaultConfig, then applies
// environment overrides. An empty path skips the file and uses defaults plus
// environment only.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// applyEnv lets secrets live outside the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("MISTRAL_API_KEY"); v != "" {
		c.Completion.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required (or TELEGRAM_BOT_TOKEN)")
	}
	if c.Completion.APIKey == "" {
		return fmt.Errorf("completion.api_key is required (or MISTRAL_API_KEY)")
	}
	switch c.Mode {
	case "poll", "webhook":
	default:
		return fmt.Errorf("unsupported mode %q (use poll or webhook)", c.Mode)
	}
	if c.Mode == "webhook" && c.Listen == "" {
		return fmt.Errorf("listen is required in webhook mode")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.SegmentLen < 0 {
		return fmt.Errorf("segment_len must be >= 0")
	}
	return nil
}

// PollTimeout returns the long-poll wait as a duration.
func (c *TelegramConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutS) * time.Second
}

// Timeout returns the completion round-trip budget as a duration.
func (c *CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutS) * time.Second
}

// Timeout returns the page fetch budget as a duration.
func (c *WebConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutS) * time.Second
}
