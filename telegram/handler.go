package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vkotelnikov/mistrelay/completion"
	"github.com/vkotelnikov/mistrelay/docpipe"
	"github.com/vkotelnikov/mistrelay/kit"
	"github.com/vkotelnikov/mistrelay/relay"
	"github.com/vkotelnikov/mistrelay/whitelist"
)

// User-facing reply texts. Failures map to short apology messages; the
// typed failure detail stays in the logs.
const (
	greetText       = "Hello! Send me text, a link, or a document (.txt, .pdf, .docx)."
	denyText        = "Sorry, you are not on the allow list."
	timeoutText     = "Sorry, the model took too long to answer. Try again."
	upstreamText    = "Sorry, the generation service returned an error. Try again later."
	unsupportedText = "Unsupported file format. I can read .txt, .pdf and .docx."
)

// HandlerConfig holds the handler's collaborators.
type HandlerConfig struct {
	Bot       *Bot
	Pipeline  *relay.Pipeline
	Whitelist *whitelist.Store
	Logger    *slog.Logger
}

// Handler gates inbound messages through the whitelist and relays them
// through the pipeline. Each message is processed in its own goroutine;
// nothing is shared between in-flight messages.
type Handler struct {
	bot      *Bot
	pipeline *relay.Pipeline
	allow    *whitelist.Store
	logger   *slog.Logger
}

// NewHandler creates a Handler. All collaborators are required.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Bot == nil || cfg.Pipeline == nil || cfg.Whitelist == nil {
		return nil, fmt.Errorf("telegram: Bot, Pipeline and Whitelist are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		bot:      cfg.Bot,
		pipeline: cfg.Pipeline,
		allow:    cfg.Whitelist,
		logger:   cfg.Logger,
	}, nil
}

// Run long-polls getUpdates until ctx is cancelled. Poll errors are logged
// and retried after a short pause; they never stop the loop.
func (h *Handler) Run(ctx context.Context) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := h.bot.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.Error("getUpdates failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil {
				continue
			}
			go h.HandleMessage(ctx, *u.Message)
		}
	}
}

// HandleMessage processes one inbound message end to end: whitelist gate,
// relay, chunked delivery. Every failure ends in a reply; nothing here is
// fatal to the process.
func (h *Handler) HandleMessage(ctx context.Context, msg Message) {
	if msg.From == nil {
		return
	}
	userID := fmt.Sprintf("%d", msg.From.ID)
	ctx = kit.WithUserID(kit.WithTransport(ctx, "telegram"), userID)
	log := h.logger.With("user_id", userID, "chat_id", msg.Chat.ID)

	allowed, err := h.allow.Allowed(ctx, userID)
	if err != nil {
		log.Error("whitelist lookup failed", "error", err)
		allowed = false
	}

	if strings.HasPrefix(msg.Text, "/start") {
		if allowed {
			h.reply(ctx, log, msg.Chat.ID, greetText)
		} else {
			h.reply(ctx, log, msg.Chat.ID, denyText)
		}
		return
	}

	if !allowed {
		log.Warn("message from non-whitelisted user", "text_len", len(msg.Text))
		h.reply(ctx, log, msg.Chat.ID, denyText)
		return
	}

	log.Info("message received", "has_document", msg.Document != nil, "text_len", len(msg.Text))

	var req relay.Request
	if msg.Document != nil {
		attachment, userText, errText := h.fetchDocument(ctx, log, msg)
		if errText != "" {
			h.reply(ctx, log, msg.Chat.ID, errText)
			return
		}
		req = relay.Request{Text: userText, Attachment: attachment}
	} else {
		req = relay.Request{Text: msg.Text}
	}

	res := h.pipeline.Handle(ctx, req)
	if !res.OK() {
		log.Warn("relay failed", "kind", res.Failure.Kind, "error", res.Failure)
		h.reply(ctx, log, msg.Chat.ID, failureText(res.Failure))
		return
	}

	for _, segment := range h.pipeline.Segments(res) {
		if err := h.bot.SendMessage(ctx, msg.Chat.ID, segment); err != nil {
			log.Error("send segment failed", "error", err)
			return
		}
	}
}

// fetchDocument buffers an attached document in memory and derives its
// format tag from the file name extension. Returns a user-facing error text
// when the document cannot be used.
func (h *Handler) fetchDocument(ctx context.Context, log *slog.Logger, msg Message) (*relay.Attachment, string, string) {
	format, err := docpipe.Detect(msg.Document.FileName)
	if err != nil {
		log.Warn("unsupported attachment", "file_name", msg.Document.FileName)
		return nil, "", unsupportedText
	}

	filePath, err := h.bot.GetFile(ctx, msg.Document.FileID)
	if err != nil {
		log.Error("getFile failed", "error", err)
		return nil, "", upstreamText
	}
	data, err := h.bot.DownloadFile(ctx, filePath)
	if err != nil {
		log.Error("file download failed", "error", err)
		return nil, "", upstreamText
	}

	userText := msg.Caption
	if userText == "" {
		userText = msg.Text
	}
	return &relay.Attachment{Data: data, Format: format}, userText, ""
}

func (h *Handler) reply(ctx context.Context, log *slog.Logger, chatID int64, text string) {
	if err := h.bot.SendMessage(ctx, chatID, text); err != nil {
		log.Error("reply failed", "error", err)
	}
}

// failureText maps a typed failure to its user-facing apology.
func failureText(f *completion.Failure) string {
	switch f.Kind {
	case completion.FailureTimeout:
		return timeoutText
	case completion.FailureHTTP:
		return upstreamText
	default:
		return "Sorry, " + f.Message + "."
	}
}
