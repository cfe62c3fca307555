package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/stockflow/internal/app"
	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/observability"
	"github.com/odyssey-erp/stockflow/internal/snapshot"
	"github.com/odyssey-erp/stockflow/internal/store"
	"github.com/odyssey-erp/stockflow/jobs"
	"github.com/odyssey-erp/stockflow/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("stockflow exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	locations, err := cfg.Locations()
	if err != nil {
		return err
	}
	mem := store.New(locations, store.WithLogger(logger), store.WithItems(cfg.ItemMaster()))

	backend, closeBackend, err := app.OpenSnapshotBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()
	var snapshots *snapshot.Manager
	if backend != nil {
		snapshots = snapshot.NewManager(mem, backend, logger)
		restored, err := snapshots.Restore(ctx)
		if err != nil {
			return err
		}
		if !restored {
			logger.Info("starting with empty state", slog.String("backend", cfg.SnapshotBackend))
		}
	}

	var (
		converter     documents.Converter
		reportHandler *report.Handler
	)
	if cfg.GotenbergURL != "" {
		client := report.NewClient(cfg.GotenbergURL)
		converter = client
		reportHandler = report.NewHandler(client, logger)
	}

	var jobHandler *jobs.Handler
	if cfg.DocumentArchive {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			return err
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		mem.AddDocumentHook(jobs.NewArchiveEnqueuer(jobClient, mem, logger))

		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewAPI(app.APIDeps{
		Logger:        logger,
		Config:        cfg,
		Store:         mem,
		Metrics:       observability.NewMetrics(),
		Converter:     converter,
		ReportHandler: reportHandler,
		JobHandler:    jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if snapshots != nil {
		g.Go(func() error {
			return snapshots.Run(gctx, cfg.SnapshotInterval)
		})
	}
	return g.Wait()
}
