// Package telegram is the chat transport: a Telegram Bot API client with
// long-polling and webhook modes, plus the handler that gates users through
// the whitelist and relays their messages through the pipeline.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config configures the bot client.
type Config struct {
	// BotToken is the Telegram bot API token (from @BotFather).
	BotToken string `json:"bot_token" yaml:"bot_token"`
	// APIBase is the Bot API host. Default: https://api.telegram.org.
	// Overridable for tests.
	APIBase string `json:"api_base,omitempty" yaml:"api_base,omitempty"`
	// PollTimeout is the long-poll wait passed to getUpdates. Default: 30s.
	PollTimeout time.Duration `json:"poll_timeout,omitempty" yaml:"poll_timeout,omitempty"`
	// ParseMode, if set to "HTML", sends replies with parse_mode=HTML after
	// sanitizing them to the Telegram-safe tag subset. Empty sends plain text.
	ParseMode string `json:"parse_mode,omitempty" yaml:"parse_mode,omitempty"`
	// Logger for transport messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.APIBase == "" {
		c.APIBase = "https://api.telegram.org"
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Bot is a minimal Telegram Bot API client covering what the relay needs:
// getUpdates, sendMessage, getFile and file download.
type Bot struct {
	client *http.Client
	config Config
	logger *slog.Logger
}

// New creates a Bot. The HTTP client timeout leaves headroom over the
// long-poll wait so getUpdates calls are not cut short.
func New(cfg Config) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}
	cfg.defaults()
	return &Bot{
		client: &http.Client{Timeout: cfg.PollTimeout + 15*time.Second},
		config: cfg,
		logger: cfg.Logger,
	}, nil
}

// --- Bot API wire types ---

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound or outbound Telegram message.
type Message struct {
	MessageID int64     `json:"message_id"`
	From      *User     `json:"from,omitempty"`
	Chat      Chat      `json:"chat"`
	Text      string    `json:"text,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	Document  *Document `json:"document,omitempty"`
}

// User is the message sender.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat is the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// Document is an attached file.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
}

// call issues one Bot API method call and returns the raw result.
func (b *Bot) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", b.config.APIBase, b.config.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("telegram: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &ErrSendFailed{Method: method, Cause: err}
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ErrSendFailed{Method: method, Cause: fmt.Errorf("decode response: %w", err)}
	}
	if !parsed.OK {
		return nil, &ErrSendFailed{Method: method,
			Cause: fmt.Errorf("api error (HTTP %d): %s", resp.StatusCode, parsed.Description)}
	}
	return parsed.Result, nil
}

// GetUpdates long-polls for updates with IDs greater than or equal to offset.
func (b *Bot) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", fmt.Sprintf("%d", offset))
	params.Set("timeout", fmt.Sprintf("%d", int(b.config.PollTimeout.Seconds())))
	params.Set("allowed_updates", `["message"]`)

	raw, err := b.call(ctx, "getUpdates", params)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("telegram: decode updates: %w", err)
	}
	return updates, nil
}

// SendMessage delivers one reply text to a chat.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{}
	params.Set("chat_id", fmt.Sprintf("%d", chatID))
	if strings.EqualFold(b.config.ParseMode, "HTML") {
		params.Set("parse_mode", "HTML")
		text = SanitizeHTML(text)
	}
	params.Set("text", text)

	_, err := b.call(ctx, "sendMessage", params)
	return err
}

// GetFile resolves a file_id to a download path on the Bot API file server.
func (b *Bot) GetFile(ctx context.Context, fileID string) (string, error) {
	params := url.Values{}
	params.Set("file_id", fileID)

	raw, err := b.call(ctx, "getFile", params)
	if err != nil {
		return "", err
	}
	var file struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return "", fmt.Errorf("telegram: decode file: %w", err)
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("telegram: getFile returned no file_path")
	}
	return file.FilePath, nil
}

// DownloadFile fetches a file's bytes into memory. Documents are buffered,
// never written to disk; the Bot API caps bot downloads at 20 MB, which
// bounds the buffer.
func (b *Bot) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/file/bot%s/%s", b.config.APIBase, b.config.BotToken, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: new request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: download %s: %w", filePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram: download %s: HTTP %d", filePath, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
