// Package webpage fetches a URL over HTTP and extracts the page's visible
// text for use as prompt context.
package webpage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vkotelnikov/mistrelay/docpipe"
)

// Config configures the extractor.
type Config struct {
	// Timeout bounds the whole fetch. Default: 30s.
	Timeout time.Duration
	// MaxBytes caps the response body read. Default: 10MB.
	MaxBytes int64
	// UserAgent sent with requests.
	UserAgent string
	// Logger for debug messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024 // 10MB
	}
	if c.UserAgent == "" {
		c.UserAgent = "mistrelay/1.0"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor fetches web pages and reduces them to visible text.
type Extractor struct {
	client *http.Client
	config Config
	logger *slog.Logger
}

// New creates an Extractor with a redirect cap of 5 hops.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		config: cfg,
		logger: cfg.Logger,
	}
}

// Extract issues a single GET to url and returns the page's visible text
// nodes joined by newlines. Script and style content is discarded.
//
// Failure modes: *NetworkError on transport-level failure, *FetchError on a
// non-200 status, *docpipe.MalformedDocumentError when the body cannot be
// parsed as markup.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &NetworkError{URL: url, Cause: err}
	}
	req.Header.Set("User-Agent", e.config.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.config.MaxBytes))
	if err != nil {
		return "", &NetworkError{URL: url, Cause: fmt.Errorf("read body: %w", err)}
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", &docpipe.MalformedDocumentError{Format: docpipe.FormatHTML, Cause: err}
	}

	text := collectPageText(doc)
	e.logger.Debug("page extracted", "url", url, "bytes", len(body), "chars", len(text))
	return text, nil
}

// collectPageText walks the DOM and gathers visible text nodes, one per
// line, skipping script/style subtrees.
func collectPageText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
