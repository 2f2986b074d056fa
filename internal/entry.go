// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/nutrilog/internal/achievements"
	"github.com/starford/nutrilog/internal/api"
	"github.com/starford/nutrilog/internal/catalog"
	"github.com/starford/nutrilog/internal/foodlog"
	"github.com/starford/nutrilog/internal/journal"
	"github.com/starford/nutrilog/internal/ledger"
	"github.com/starford/nutrilog/internal/mcpserver"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/pipeline"
	"github.com/starford/nutrilog/internal/recognition"
	"github.com/starford/nutrilog/internal/sse"
	"github.com/starford/nutrilog/internal/storage"
)

// components is the wired service graph shared by the HTTP and MCP modes.
type components struct {
	svc         *foodlog.Service
	db          *journal.DB
	foods       *catalog.Static
	recognition *recognition.Manager
}

func (c *components) Close() {
	c.recognition.Close()
	if err := c.db.Close(); err != nil {
		slog.Warn("close journal", slog.String("error", err.Error()))
	}
}

// build opens storage and wires the food log service. broker may be nil.
func build(cfg *Config, logger *slog.Logger, broker *sse.Broker) (*components, error) {
	foods, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}

	captures, err := storage.NewFS(cfg.Captures.Path)
	if err != nil {
		return nil, fmt.Errorf("init captures: %w", err)
	}

	db, err := journal.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}

	storeOpts := []ledger.StoreOption{
		ledger.WithPersister(db),
		ledger.WithLogger(logger),
	}
	trackerOpts := []achievements.Option{}
	if broker != nil {
		storeOpts = append(storeOpts, ledger.WithListener(func(kind, date string, slot models.MealSlot) {
			broker.PublishLedgerEvent(kind, date, string(slot))
		}))
		trackerOpts = append(trackerOpts, achievements.WithUnlockHandler(func(u achievements.Unlocked) {
			logger.Info("achievement unlocked", slog.String("badge", u.Badge.ID))
			broker.Publish(sse.Event{Type: "achievement.unlocked", Data: u})
		}))
	}

	store := ledger.NewStore(storeOpts...)
	tracker := achievements.NewTracker(trackerOpts...)
	committer := pipeline.NewCommitter(store,
		pipeline.WithHooks(tracker),
		pipeline.WithLogger(logger),
	)
	rec := recognition.NewManager(
		recognition.WithDelay(cfg.Recognition.Delay),
		recognition.WithCaptureStore(captures),
		recognition.WithLogger(logger),
	)
	if n, err := rec.Sweep(); err != nil {
		logger.Warn("sweep captures", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Info("Removed orphan captures", slog.Int("count", n))
	}

	svc := foodlog.NewService(store, committer, foods,
		foodlog.WithRecognition(rec),
		foodlog.WithTracker(tracker),
		foodlog.WithHistory(db),
	)
	return &components{svc: svc, db: db, foods: foods, recognition: rec}, nil
}

func (a *application) output(fallback io.Writer) io.Writer {
	if a.logOutput != nil {
		return a.logOutput
	}
	return fallback
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(app.output(os.Stdout), cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("captures_path", cfg.Captures.Path),
		slog.Duration("recognition_delay", cfg.Recognition.Delay),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := build(cfg, logger, broker)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("Catalog loaded", slog.Int("foods", c.foods.Len()))

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := c.db.PingContext(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
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

	// Reload the catalog file on change.
	if cfg.Catalog.Watch {
		g.Go(func() error {
			err := catalog.Watch(gCtx, c.foods, cfg.Catalog.Path, logger, func(foods int) {
				broker.Publish(sse.Event{Type: "catalog.reloaded", Data: map[string]int{"foods": foods}})
			})
			if err != nil {
				logger.Warn("catalog watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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

		// SSE streams never end on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the catalog watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the food log tools over stdio. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(app.output(os.Stderr), cfg.App.LogLevel)
	slog.SetDefault(logger)

	c, err := build(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("MCP server starting", slog.Int("foods", c.foods.Len()))
	return mcpserver.New(c.svc).ServeStdio()
}
