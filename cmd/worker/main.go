package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockflow/internal/app"
	jobmetrics "github.com/odyssey-erp/stockflow/internal/jobs"
	"github.com/odyssey-erp/stockflow/internal/platform/cache"
	"github.com/odyssey-erp/stockflow/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cache.WithClientName("stockflow-worker"))
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	archiveJob := jobs.NewArchiveJob(redisClient, logger, metrics, cfg.DocumentArchiveTTL)
	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskDocumentArchive, Handler: archiveJob.Handle},
	}
	var cron []jobs.CronRegistration

	backend, closeBackend, err := app.OpenSnapshotBackend(ctx, cfg)
	if err != nil {
		logger.Error("open snapshot backend", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeBackend()
	if backend != nil {
		pruneJob := jobs.NewSnapshotPruneJob(backend, logger, metrics, cfg.SnapshotRetention)
		pruneTask, err := jobs.NewSnapshotPruneTask(cfg.SnapshotRetention)
		if err != nil {
			logger.Error("build prune task", slog.Any("error", err))
			os.Exit(1)
		}
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskSnapshotPrune, Handler: pruneJob.Handle})
		cron = append(cron, jobs.CronRegistration{Spec: cfg.SnapshotPruneCron, Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    handlers,
		Cron:        cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
