package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-registry/meridian-registry/internal/app"
	jobmetrics "github.com/meridian-registry/meridian-registry/internal/jobs"
	"github.com/meridian-registry/meridian-registry/internal/platform/cache"
	"github.com/meridian-registry/meridian-registry/internal/platform/db"
	"github.com/meridian-registry/meridian-registry/internal/poll"
	"github.com/meridian-registry/meridian-registry/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Fail fast if Redis is unreachable; asynq would otherwise retry
	// silently in the background.
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

	metrics := jobmetrics.NewMetrics(nil)
	dispatcher := jobs.NewPollDispatcher(poll.NewRepository(pool), logger, metrics)
	integrity := jobs.NewLedgerIntegrityScan(pool, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypePollDispatch, Handler: dispatcher.Handle},
			{Type: jobs.TaskTypeLedgerIntegrity, Handler: func(ctx context.Context, _ *asynq.Task) error {
				return integrity.Run(ctx)
			}},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewLedgerIntegrityTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}
