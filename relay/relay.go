// Package relay orchestrates one chat request end to end: classify the
// input, normalize any document or web-page content to plain text, call the
// completion endpoint, and chunk the reply for delivery.
//
// The relay holds no cross-request state. Every request's data (payload
// bytes, extracted text) is owned by that request alone and discarded when
// Handle returns, so concurrent requests need no coordination.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/vkotelnikov/mistrelay/chunk"
	"github.com/vkotelnikov/mistrelay/completion"
	"github.com/vkotelnikov/mistrelay/docpipe"
	"github.com/vkotelnikov/mistrelay/kit"
	"github.com/vkotelnikov/mistrelay/webpage"
)

// Completer produces text for a prompt. Satisfied by *completion.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) completion.Result
}

// Request is one normalized inbound chat request.
type Request struct {
	// Text is the user's message (or document caption).
	Text string
	// Attachment, if present, is a document payload to normalize.
	Attachment *Attachment
}

// Attachment is an in-memory document payload with its declared format.
type Attachment struct {
	Data   []byte
	Format docpipe.Format
}

// Config holds the pipeline's collaborators. All of them are explicit
// dependencies so tests can construct an isolated pipeline.
type Config struct {
	// Documents extracts text from attachments. Default: docpipe.New.
	Documents *docpipe.Extractor
	// Web extracts text from linked pages. Default: webpage.New.
	Web *webpage.Extractor
	// Completer generates replies. Required.
	Completer Completer
	// SegmentLen bounds each reply segment. Default: chunk.DefaultMaxLen.
	SegmentLen int
	// Logger for per-request messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Documents == nil {
		c.Documents = docpipe.New(docpipe.Config{Logger: c.Logger})
	}
	if c.Web == nil {
		c.Web = webpage.New(webpage.Config{Logger: c.Logger})
	}
	if c.SegmentLen <= 0 {
		c.SegmentLen = chunk.DefaultMaxLen
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pipeline is the request orchestrator.
type Pipeline struct {
	docs       *docpipe.Extractor
	web        *webpage.Extractor
	llm        Completer
	segmentLen int
	logger     *slog.Logger
}

// New creates a Pipeline. cfg.Completer must be set.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Completer == nil {
		return nil, fmt.Errorf("relay: Config.Completer is required")
	}
	cfg.defaults()
	return &Pipeline{
		docs:       cfg.Documents,
		web:        cfg.Web,
		llm:        cfg.Completer,
		segmentLen: cfg.SegmentLen,
		logger:     cfg.Logger,
	}, nil
}

// urlRe matches the first maximal substring starting with http:// or
// https:// and running through non-whitespace characters.
var urlRe = regexp.MustCompile(`https?://\S+`)

// Handle classifies req, builds the prompt, and calls the completion
// endpoint exactly once. Extraction and fetch failures short-circuit: they
// come back as protocol failures with a human-readable message and the
// completion endpoint is never called. Handle never returns a raw
// extraction error; the only failure shape crossing this boundary is
// completion.Result.
func (p *Pipeline) Handle(ctx context.Context, req Request) completion.Result {
	log := p.logger.With("user_id", kit.GetUserID(ctx))

	prompt, failure := p.buildPrompt(ctx, req, log)
	if failure != nil {
		return completion.Result{Failure: failure}
	}
	return p.llm.Complete(ctx, prompt)
}

// Segments chunks a successful result's text for delivery. A failed result
// yields no segments.
func (p *Pipeline) Segments(res completion.Result) []string {
	if !res.OK() {
		return nil
	}
	return chunk.Split(res.Text, p.segmentLen)
}

// buildPrompt applies the classification rules in priority order:
// attachment, then first embedded URL, then plain text.
func (p *Pipeline) buildPrompt(ctx context.Context, req Request, log *slog.Logger) (string, *completion.Failure) {
	if req.Attachment != nil {
		text, err := p.docs.Extract(req.Attachment.Data, req.Attachment.Format)
		if err != nil {
			log.Warn("attachment extraction failed",
				"format", req.Attachment.Format, "error", err)
			return "", &completion.Failure{
				Kind:    completion.FailureProtocol,
				Message: describeFailure(err),
			}
		}
		if req.Text == "" {
			return text, nil
		}
		return req.Text + "\n\n" + text, nil
	}

	if loc := urlRe.FindStringIndex(req.Text); loc != nil {
		// Only the first URL is followed, even when several are present.
		url := req.Text[loc[0]:loc[1]]
		page, err := p.web.Extract(ctx, url)
		if err != nil {
			log.Warn("page extraction failed", "url", url, "error", err)
			return "", &completion.Failure{
				Kind:    completion.FailureProtocol,
				Message: describeFailure(err),
			}
		}
		remainder := strings.TrimSpace(req.Text[:loc[0]] + req.Text[loc[1]:])
		return remainder + "\n\n" + page, nil
	}

	return req.Text, nil
}

// describeFailure converts extraction errors into user-presentable text.
// Raw error kinds never cross the relay boundary.
func describeFailure(err error) string {
	var (
		unsupported *docpipe.UnsupportedFormatError
		decodeErr   *docpipe.DecodeError
		malformed   *docpipe.MalformedDocumentError
		fetchErr    *webpage.FetchError
		netErr      *webpage.NetworkError
	)
	switch {
	case errors.As(err, &unsupported):
		return fmt.Sprintf("unsupported document format %q", unsupported.Tag)
	case errors.As(err, &decodeErr):
		return "the document is not valid UTF-8 text"
	case errors.As(err, &malformed):
		return fmt.Sprintf("the %s document could not be read", malformed.Format)
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("the page returned HTTP %d", fetchErr.Status)
	case errors.As(err, &netErr):
		return "the page could not be fetched"
	default:
		return "the content could not be processed"
	}
}
