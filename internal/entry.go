// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/mirelh/laguz/internal/api"
	"github.com/mirelh/laguz/internal/cryptox"
	"github.com/mirelh/laguz/internal/mcpserver"
	"github.com/mirelh/laguz/internal/noteservice"
	"github.com/mirelh/laguz/internal/search"
	"github.com/mirelh/laguz/internal/sse"
	"github.com/mirelh/laguz/internal/storage"
	"github.com/mirelh/laguz/internal/vault"
)

type services struct {
	svc    *noteservice.Service
	db     *search.DB
	root   *storage.FS
	logger *slog.Logger
}

// buildServices wires the storage root, the note engine, the encryption
// box, and the search index behind the facade.
func buildServices(ctx context.Context, cfg *Config) (*services, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	root, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := search.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init search index: %w", err)
	}

	strategy := vault.New(root)
	if err := strategy.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init vault: %w", err)
	}

	box := cryptox.New(cryptox.Params{
		Time:    cfg.Crypto.Argon2Time,
		MemoryK: cfg.Crypto.Argon2MemoryK,
		Threads: cfg.Crypto.Argon2Threads,
	}, cfg.Crypto.MinPasswordLength)

	// Run initial sync.
	if err := search.Sync(db, root, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return &services{
		svc:    noteservice.New(strategy, db, box, root, logger),
		db:     db,
		root:   root,
		logger: logger,
	}, nil
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	s, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.db.Close()
	logger := s.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker()
	defer broker.Close()

	apiRouter := api.NewRouter(s.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the search index current with external edits and notify clients.
	g.Go(func() error {
		return search.Watch(gCtx, s.db, s.root, cfg.Vault.Path, logger, func() {
			broker.Publish(sse.Event{Type: "vault.changed", Data: map[string]string{}})
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the vault over MCP stdio instead of HTTP.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	s, err := buildServices(ctx, app.config)
	if err != nil {
		return err
	}
	defer s.db.Close()

	return mcpserver.New(s.svc).ServeStdio()
}
