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

	"github.com/starford/ebi/internal/api"
	"github.com/starford/ebi/internal/catalog"
	"github.com/starford/ebi/internal/mcpserver"
	"github.com/starford/ebi/internal/shelf"
	"github.com/starford/ebi/internal/sse"
	"github.com/starford/ebi/internal/storage"
	"github.com/starford/ebi/internal/tag"
	"github.com/starford/ebi/internal/tagservice"
)

// components are the long-lived objects shared by every front end.
type components struct {
	cfg    *Config
	logger *slog.Logger
	db     *catalog.DB
	svc    *tagservice.Service
}

func (c *components) Close() {
	if err := c.db.Close(); err != nil {
		c.logger.Error("Catalog close error", slog.String("error", err.Error()))
	}
}

func setup(opts ...Option) (*components, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("shelf_root", cfg.Shelf.Root),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int("max_query_depth", cfg.Shelf.MaxQueryDepth),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize the scan collaborator.
	fs, err := storage.NewFS(cfg.Shelf.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	// Initialize the SQLite tag catalog.
	db, err := catalog.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	reg, err := tag.NewRegistry(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load tags: %w", err)
	}

	// Build the in-memory tag index.
	started := time.Now()
	sh, err := shelf.New(fs.Root(), fs, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build shelf: %w", err)
	}
	st := sh.Stats()
	logger.Info("Shelf ready",
		slog.String("root", st.Root),
		slog.Int("directories", st.Directories),
		slog.Int("files", st.Files),
		slog.Int("tags", len(reg.List())),
		slog.Duration("took", time.Since(started)))

	svc := tagservice.NewService(reg, sh, tagservice.Options{
		MaxDepth:     cfg.Shelf.MaxQueryDepth,
		Timeout:      cfg.Shelf.OpTimeout,
		DefaultOrder: cfg.Shelf.Order(),
	}, logger)

	return &components{cfg: cfg, logger: logger, db: db, svc: svc}, nil
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	c, err := setup(opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	logger := c.logger
	cfg := c.cfg

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	c.svc.OnEvent(func(e tagservice.Event) {
		broker.PublishChange(e.Kind, e.Tag, e.Path)
	})

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

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
		defer signal.Stop(quit)

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

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	c, err := setup(opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	c.logger.Info("MCP server starting on stdio")
	if err := mcpserver.New(c.svc).ServeStdio(); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
