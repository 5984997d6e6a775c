// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
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

	"github.com/starford/notepress/internal/api"
	"github.com/starford/notepress/internal/apperr"
	"github.com/starford/notepress/internal/mcpserver"
	"github.com/starford/notepress/internal/sse"
	"github.com/starford/notepress/internal/watch"
)

// Run starts the HTTP server, and the vault watcher when enabled.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	cfg, logger, err := app.init()
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("output_path", cfg.Output.Path),
		slog.String("manifest_driver", cfg.Manifest.Driver),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := build(ctx, cfg, logger, broker)
	if err != nil {
		return err
	}
	defer c.Close()

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := c.store.Load(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"manifest unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api, SSE included.
	r.Mount("/api", api.NewRouter(c.service, broker))

	// Everything else is the generated site.
	r.Handle("/*", api.NewSiteHandler(c.site))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Republish on vault changes.
	if cfg.Watch.Enabled {
		g.Go(func() error {
			w := watch.New(cfg.Vault.Path, cfg.Watch.Debounce, logger, func(ctx context.Context, changed []string) {
				logger.Info("Vault changed, republishing", slog.Int("files", len(changed)))
				if _, err := c.service.Publish(ctx, ""); err != nil {
					if errors.Is(err, apperr.ErrPublishInProgress) {
						logger.Info("Republish skipped, a publish is running")
						return
					}
					logger.Error("Republish failed", slog.String("error", err.Error()))
				}
			})
			if err := w.Run(gCtx); err != nil {
				logger.Error("Watcher stopped", slog.String("error", err.Error()))
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

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunPublish publishes the vault once and prints the result as JSON. Logs
// go to stderr unless redirected.
func RunPublish(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app := newApplication(opts)
	cfg, logger, err := app.init()
	if err != nil {
		return err
	}

	c, err := build(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.service.Publish(ctx, "")
	enc := json.NewEncoder(app.out)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		logger.Error("Cannot print publish result", slog.String("error", encErr.Error()))
	}
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// RunMCP serves the MCP tools on stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app := newApplication(opts)
	cfg, logger, err := app.init()
	if err != nil {
		return err
	}

	c, err := build(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(c.service, app.version).ServeStdio()
}

func newApplication(opts []Option) *application {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	return app
}
