// Package completion calls a remote chat-completion endpoint and returns
// generated text. All failure modes are values: Complete never panics and
// never returns a Go error, so callers are forced to handle every failure
// kind explicitly.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Fixed request parameters. Endpoint and model follow the Mistral
// chat-completions API; any OpenAI-compatible backend works.
const (
	DefaultEndpoint    = "https://api.mistral.ai/v1/chat/completions"
	DefaultModel       = "mistral-large-latest"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 100000
	DefaultTimeout     = 120 * time.Second
)

// Config configures the client.
type Config struct {
	// Endpoint is the chat-completions URL. Default: DefaultEndpoint.
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// APIKey is sent as a bearer token.
	APIKey string `json:"api_key" yaml:"api_key"`
	// Model name. Default: DefaultModel.
	Model string `json:"model" yaml:"model"`
	// Temperature for sampling. Default: DefaultTemperature.
	Temperature float64 `json:"temperature" yaml:"temperature"`
	// MaxTokens caps the generation. Default: DefaultMaxTokens.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
	// Preamble is a fixed instruction prepended to every prompt.
	Preamble string `json:"preamble" yaml:"preamble"`
	// Timeout bounds the full round trip (connect + send + receive).
	// Default: DefaultTimeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client calls the completion endpoint. The underlying http.Client is
// reused across calls; per-call cancellation runs through the request
// context, which tears down the in-flight connection on deadline expiry.
type Client struct {
	client *http.Client
	config Config
	logger *slog.Logger
}

// New creates a Client with the given configuration.
func New(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		client: &http.Client{},
		config: cfg,
		logger: cfg.Logger,
	}
}

// chatRequest is the JSON body sent to the completions endpoint.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the JSON response (OpenAI chat-completions format).
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt to the completion endpoint and returns the generated
// text. Exactly one request is issued per call; no retries. The whole round
// trip is bounded by the configured timeout, and on expiry the in-flight
// request is cancelled, not abandoned.
func (c *Client) Complete(ctx context.Context, prompt string) Result {
	content := prompt
	if c.config.Preamble != "" {
		content = c.config.Preamble + " " + prompt
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Messages:    []message{{Role: "user", Content: content}},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return protocolFailure(fmt.Sprintf("marshal request: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return protocolFailure(fmt.Sprintf("new request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			c.logger.Warn("completion timed out", "elapsed", time.Since(start))
			return Result{Failure: &Failure{Kind: FailureTimeout}}
		}
		return protocolFailure(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("completion endpoint error",
			"status", resp.StatusCode, "body", string(detail))
		return Result{Failure: &Failure{Kind: FailureHTTP, Status: resp.StatusCode}}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return Result{Failure: &Failure{Kind: FailureTimeout}}
		}
		return protocolFailure(fmt.Sprintf("decode response: %v", err))
	}
	if len(parsed.Choices) == 0 {
		return protocolFailure("no completion choices returned")
	}

	c.logger.Debug("completion done",
		"elapsed", time.Since(start), "chars", len(parsed.Choices[0].Message.Content))
	return Result{Text: parsed.Choices[0].Message.Content}
}
