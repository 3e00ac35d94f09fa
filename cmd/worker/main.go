package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/voiceagent/internal/bootstrap"
	"github.com/nikhilbhutani/voiceagent/internal/config"
	"github.com/nikhilbhutani/voiceagent/internal/queue"
	"github.com/nikhilbhutani/voiceagent/internal/queue/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	svc, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to initialise services", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	srv := queue.NewServer(cfg.Redis, cfg.Queue)

	registry := queue.NewHandlersRegistry()
	echoWorker := workers.NewEchoWorker(svc.Orchestrator)
	registry.Register(queue.TypeEcho, asynq.HandlerFunc(echoWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", cfg.Queue.Concurrency, "tasks", registry.Types())
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
