package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fieldnotes/internal/config"
	"github.com/JonMunkholm/fieldnotes/internal/core"
	_ "github.com/JonMunkholm/fieldnotes/internal/core/kinds" // Register all importers
	"github.com/JonMunkholm/fieldnotes/internal/logging"
	"github.com/JonMunkholm/fieldnotes/internal/store"
	"github.com/JonMunkholm/fieldnotes/internal/store/memory"
	"github.com/JonMunkholm/fieldnotes/internal/store/postgres"
	"github.com/JonMunkholm/fieldnotes/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"require_api_key", cfg.Security.RequireAPIKey,
	)
	logger.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	repos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	service, err := core.NewService(core.ServiceConfig{
		StagingDir:  cfg.Import.StagingDir,
		ReportDir:   cfg.Import.ReportDir,
		MaxFileSize: cfg.Upload.MaxFileSize,
		Parse: core.ParseOptions{
			Delimiter:     cfg.Import.DelimiterRune(),
			CommentMarker: cfg.Import.CommentMarker,
		},
	}, core.Deps{Repos: repos}, logger)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	logger.Info("importers registered", "count", len(service.Kinds()))

	limiter := web.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	server, err := web.NewServer(service, limiter, cfg)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSweeper(jobCtx, core.SweepConfig{
		Interval: cfg.Import.SweepInterval,
		MinAge:   cfg.Import.OrphanMinAge,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		if active := limiter.ActiveCount(); active > 0 {
			logger.Info("waiting for uploads to be staged", "active", active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				logger.Warn("uploads did not finish staging in time", "error", err)
			}
		}
		if err := service.Wait(shutdownCtx); err != nil {
			logger.Warn("imports still running at shutdown", "error", err)
		} else {
			logger.Info("all imports finished")
		}
	}()

	logger.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}

// openStore builds the repositories selected by DB_DRIVER. The returned
// function releases them.
func openStore(ctx context.Context, cfg *config.Config) (*store.Repositories, func(), error) {
	if cfg.Database.Driver == "memory" {
		slog.Warn("using in-memory store: imported data is lost on exit")
		return memory.NewStores().Repositories(), func() {}, nil
	}

	pool, err := postgres.Connect(ctx, postgres.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return nil, nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	if cfg.Database.EnsureSchema {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return postgres.NewRepositories(pool), pool.Close, nil
}
