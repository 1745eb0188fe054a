package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lumina-lms/lumina-lms/internal/app"
	"github.com/lumina-lms/lumina-lms/internal/observability"
	"github.com/lumina-lms/lumina-lms/internal/platform/cache"
	"github.com/lumina-lms/lumina-lms/internal/platform/db"
	"github.com/lumina-lms/lumina-lms/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	claimsRefresher := jobs.NewClaimsRefresher(pool, redisClient, logger)
	sessionPruner := jobs.NewSessionPruner(pool, logger)

	instrument := func(task string, fn asynq.HandlerFunc) asynq.HandlerFunc {
		return func(ctx context.Context, t *asynq.Task) error {
			err := fn(ctx, t)
			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.RecordJob(task, status)
			return err
		}
	}

	sweepTask, err := jobs.NewClaimsRefreshTask(jobs.ClaimsRefreshPayload{})
	if err != nil {
		logger.Error("build claims refresh task", slog.Any("error", err))
		os.Exit(1)
	}
	pruneTask, err := jobs.NewSessionPruneTask(time.Now().UTC())
	if err != nil {
		logger.Error("build session prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskClaimsRefresh, Handler: instrument(jobs.TaskClaimsRefresh, claimsRefresher.Handle)},
			{Type: jobs.TaskSessionPrune, Handler: instrument(jobs.TaskSessionPrune, sessionPruner.Handle)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@every 6h", Task: sweepTask},
			{Spec: "@hourly", Task: pruneTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
