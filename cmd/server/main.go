package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/acapella/riskhunt/internal/config"
	"github.com/acapella/riskhunt/internal/database"
	"github.com/acapella/riskhunt/internal/editor"
	"github.com/acapella/riskhunt/internal/game"
	"github.com/acapella/riskhunt/internal/handler/health"
	"github.com/acapella/riskhunt/internal/migrations"
	"github.com/acapella/riskhunt/internal/server"
	"github.com/acapella/riskhunt/internal/storage"
	"github.com/acapella/riskhunt/internal/telemetry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: "riskhunt",
		Endpoint:    cfg.OTelEndpoint,
		Enabled:     cfg.OTelEnabled,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flushing traces", "error", err)
		}
	}()

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	store := storage.New(db)

	// --- Editing and play ---
	editors := editor.NewManager(store, logger, cfg.HistoryLimit)
	broker := server.NewBroker()
	registry := game.NewRegistry(store, store, store, broker, logger, game.Options{
		TickInterval: cfg.TickInterval,
		Retention:    cfg.SessionRetention,
	})
	defer registry.Close()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Images:   store,
		Games:    store,
		Results:  store,
		Editors:  editors,
		Sessions: registry,
		Clicks:   game.NewDebouncer(registry, cfg.ClickDebounce, nil),
		Broker:   broker,
		SPADir:   cfg.SPADir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, map[string]health.Checker{
			"sqlite":   health.CheckerFunc(db.PingContext),
			"sessions": registry,
		}).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	g.Go(func() error {
		return editors.RunAutosave(gctx, cfg.AutosaveInterval)
	})

	g.Go(func() error {
		return registry.Run(gctx, cfg.JanitorInterval)
	})

	return g.Wait()
}
