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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/bookdesk/internal/api"
	"github.com/starford/bookdesk/internal/bookservice"
	"github.com/starford/bookdesk/internal/sse"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	level := app.level
	if level == nil {
		level = new(slog.LevelVar)
	}
	level.Set(cfg.App.LogLevel)

	logger := NewLogger(level)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("backend_url", cfg.Backend.BaseURL),
		slog.Int("page_size", cfg.View.PageSize),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(cfg.Notify.InvalidateThrottle)
	defer broker.Close()

	core, err := NewCore(cfg, logger, broker, bookservice.WithPublisher(broker))
	if err != nil {
		return err
	}
	svc := core.Service

	// The UI shows the loading state until a later refresh succeeds.
	if err := svc.Refresh(ctx); err != nil {
		logger.Warn("initial refresh failed", slog.String("error", err.Error()))
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRootRouter(svc, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if app.configPath != "" {
		g.Go(func() error {
			err := watchConfig(gCtx, app.configPath, logger, func(next *Config) {
				level.Set(next.App.LogLevel)
				svc.SetPageSize(next.View.PageSize)
				logger.Info("Configuration reloaded",
					slog.String("log_level", next.App.LogLevel.String()),
					slog.Int("page_size", next.View.PageSize))
			})
			if err != nil {
				logger.Warn("config watcher disabled", slog.String("error", err.Error()))
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

		// SSE streams only end when the broker closes.
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

// errShutdown cancels the errgroup context so the config watcher stops
// together with the server.
var errShutdown = errors.New("shutdown")

func newRootRouter(svc *bookservice.Service, broker *sse.Broker) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.MetricsMiddleware)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !svc.Loaded() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		clients := 0
		if broker != nil {
			clients = broker.ClientCount()
		}
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","stream_clients":%d}`, clients)
	})
	r.Handle("/metrics", promhttp.Handler())

	var sseHandler http.Handler
	if broker != nil {
		sseHandler = broker
	}
	r.Mount("/api", api.NewRouter(svc, sseHandler))

	return r
}
