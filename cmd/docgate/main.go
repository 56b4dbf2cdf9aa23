package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/docgate/convert"
	"github.com/hazyhaar/docgate/dbopen"
	"github.com/hazyhaar/docgate/gateway"
	"github.com/hazyhaar/docgate/observability"
	"github.com/hazyhaar/docgate/pipeline"
	"github.com/hazyhaar/docgate/shield"
)

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
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

	// Observability DB: event log, metrics, rate limit rules.
	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("observability db", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := observability.Init(db); err != nil {
		slog.Error("observability init", "error", err)
		os.Exit(1)
	}
	if err := shield.Init(db); err != nil {
		slog.Error("shield init", "error", err)
		os.Exit(1)
	}

	events := observability.NewEventLogger(db)
	metrics := observability.NewMetricsManager(db, 100, 5*time.Second)
	defer metrics.Close()

	// Pipeline.
	engine := convert.NewBuiltin(logger)
	pipe := pipeline.New(engine, pipeline.Config{
		ScratchDir:     cfg.ScratchDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Scrub:          cfg.Scrub,
		Logger:         logger,
	})

	// Optional MCP over stdio.
	if env("MCP_TRANSPORT", "") == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "docgate",
			Version: "1.0.0",
		}, nil)
		pipe.RegisterMCP(mcpSrv)

		slog.Info("MCP stdio starting")
		if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// Router.
	svc := gateway.New(cfg, pipe, logger, events, metrics)
	r := chi.NewRouter()
	rateLimitDB := db
	if !cfg.RateLimit {
		rateLimitDB = nil
	}
	for _, mw := range shield.DefaultStack(rateLimitDB, cfg.MaxUploadBytes(), ctx.Done()) {
		r.Use(mw)
	}
	r.Mount("/", svc.Routes())

	// HTTP server.
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// loadConfig merges the optional YAML config file with environment overrides.
func loadConfig() (*gateway.Config, error) {
	var cfg *gateway.Config
	if path := env("DOCGATE_CONFIG", ""); path != "" {
		loaded, err := gateway.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = gateway.DefaultConfig()
	}

	cfg.Listen = env("LISTEN", cfg.Listen)
	cfg.ScratchDir = env("SCRATCH_DIR", cfg.ScratchDir)
	cfg.DBPath = env("DB_PATH", cfg.DBPath)
	cfg.LogLevel = env("LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		mb, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		cfg.MaxUploadMB = mb
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		cfg.RateLimit = v == "1" || v == "true"
	}

	return cfg, cfg.Validate()
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
