package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kashacker/satellite-tracker-orbitx/internal/api"
	"github.com/kashacker/satellite-tracker-orbitx/internal/app"
	"github.com/kashacker/satellite-tracker-orbitx/internal/auth"
	"github.com/kashacker/satellite-tracker-orbitx/internal/config"
	"github.com/kashacker/satellite-tracker-orbitx/internal/observability"
)

// catalogCheckInterval is how often the background loop looks at catalog age.
const catalogCheckInterval = 10 * time.Minute

func main() {
	configPath := flag.String("config", os.Getenv("ORBITX_CONFIG"), "path to a YAML config file")
	flag.Parse()

	// Until the config is read, log with whatever the environment asks for.
	logger := observability.NewLogger(os.Stdout, observability.LogConfig{
		Level:  os.Getenv("ORBITX_LOG_LEVEL"),
		Format: os.Getenv("ORBITX_LOG_FORMAT"),
	})

	cfg, err := config.Load(*configPath, logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger = observability.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("closing resources failed", "error", err)
		}
	}()

	srv := api.NewServer(api.Options{
		Addr:             cfg.Server.Addr,
		Prefix:           cfg.Server.APIPrefix,
		Auth:             auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token},
		TrustProxy:       cfg.Server.TrustProxy,
		MaxInFlightPerIP: cfg.Server.MaxInFlightPerIP,
		Ready:            a.Ready,
	}, a.Service, logger)

	if cfg.Catalog.Preload {
		go a.KeepWarm(ctx, catalogCheckInterval)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.Server.Addr,
			"api_prefix", cfg.Server.APIPrefix,
			"auth_enabled", cfg.Auth.Enabled,
			"tracing_enabled", cfg.Tracing.Enabled,
			"persistence", cfg.Elements.Persistence.Backend,
			"catalog_sources", len(cfg.Catalog.Sources),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		logger.Error("server listen error", "error", err)
		stop()
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
