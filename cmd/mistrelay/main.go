package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/vkotelnikov/mistrelay/completion"
	"github.com/vkotelnikov/mistrelay/config"
	"github.com/vkotelnikov/mistrelay/dbopen"
	"github.com/vkotelnikov/mistrelay/docpipe"
	"github.com/vkotelnikov/mistrelay/relay"
	"github.com/vkotelnikov/mistrelay/telegram"
	"github.com/vkotelnikov/mistrelay/webpage"
	"github.com/vkotelnikov/mistrelay/whitelist"
)

func main() {
	cfg, err := config.Load(env("CONFIG", ""))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Whitelist DB.
	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("whitelist db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	allow := whitelist.New(db)
	if err := allow.Init(ctx); err != nil {
		slog.Error("whitelist init", "error", err)
		os.Exit(1)
	}
	for _, id := range cfg.AllowedUsers {
		if err := allow.Add(ctx, id); err != nil {
			slog.Error("whitelist seed", "user_id", id, "error", err)
			os.Exit(1)
		}
	}

	// Pipeline.
	docs := docpipe.New(docpipe.Config{Logger: logger})
	web := webpage.New(webpage.Config{
		Timeout:   cfg.Web.Timeout(),
		MaxBytes:  cfg.Web.MaxBytes,
		UserAgent: cfg.Web.UserAgent,
		Logger:    logger,
	})
	llm := completion.New(completion.Config{
		Endpoint:    cfg.Completion.Endpoint,
		APIKey:      cfg.Completion.APIKey,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
		Preamble:    cfg.Completion.Preamble,
		Timeout:     cfg.Completion.Timeout(),
		Logger:      logger,
	})
	pipeline, err := relay.New(relay.Config{
		Documents:  docs,
		Web:        web,
		Completer:  llm,
		SegmentLen: cfg.SegmentLen,
		Logger:     logger,
	})
	if err != nil {
		slog.Error("relay pipeline", "error", err)
		os.Exit(1)
	}

	// Telegram transport.
	bot, err := telegram.New(telegram.Config{
		BotToken:    cfg.Telegram.BotToken,
		APIBase:     cfg.Telegram.APIBase,
		PollTimeout: cfg.Telegram.PollTimeout(),
		ParseMode:   cfg.Telegram.ParseMode,
		Logger:      logger,
	})
	if err != nil {
		slog.Error("telegram bot", "error", err)
		os.Exit(1)
	}
	handler, err := telegram.NewHandler(telegram.HandlerConfig{
		Bot:       bot,
		Pipeline:  pipeline,
		Whitelist: allow,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("telegram handler", "error", err)
		os.Exit(1)
	}

	// Optional MCP stdio server exposing the pipeline as tools.
	if env("MCP_TRANSPORT", "") == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "mistrelay",
			Version: "1.0.0",
		}, nil)
		pipeline.RegisterMCP(mcpSrv)
		docs.RegisterMCP(mcpSrv)
		go func() {
			slog.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	// Router: health check, plus the webhook route in webhook mode.
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Mode == "webhook" {
		r.Post(cfg.WebhookPath, handler.WebhookHandler(ctx))
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		slog.Info("server starting", "addr", cfg.Listen, "mode", cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	if cfg.Mode == "poll" {
		go func() {
			slog.Info("long-poll starting")
			if err := handler.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("long-poll stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
