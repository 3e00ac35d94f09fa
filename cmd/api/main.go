package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikhilbhutani/voiceagent/internal/api"
	"github.com/nikhilbhutani/voiceagent/internal/api/handlers"
	"github.com/nikhilbhutani/voiceagent/internal/bootstrap"
	"github.com/nikhilbhutani/voiceagent/internal/config"
	"github.com/nikhilbhutani/voiceagent/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	ctx := context.Background()

	svc, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise services", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	deps := api.Deps{
		Pipeline: svc.Orchestrator,
		Blobs:    svc.Blobs,
		Ready:    map[string]handlers.Pinger{},
	}
	if svc.Cache != nil {
		deps.Ready["redis"] = svc
	}

	// Background jobs need Redis; without it the async endpoints report NotConfigured.
	if cfg.Queue.Enabled && svc.Cache != nil {
		qc := queue.NewClient(cfg.Redis, cfg.Queue)
		defer qc.Close()
		deps.Jobs = qc
	} else if cfg.Queue.Enabled {
		slog.Warn("queue enabled but redis unavailable, async jobs disabled")
	}

	router := api.NewRouter(cfg, deps)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.STT.PollInterval*time.Duration(cfg.STT.MaxPollAttempts) + 2*time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
