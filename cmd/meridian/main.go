package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/meridian-registry/meridian-registry/internal/app"
	"github.com/meridian-registry/meridian-registry/internal/billing"
	"github.com/meridian-registry/meridian-registry/internal/history"
	"github.com/meridian-registry/meridian-registry/internal/observability"
	"github.com/meridian-registry/meridian-registry/internal/platform/db"
	"github.com/meridian-registry/meridian-registry/internal/poll"
	"github.com/meridian-registry/meridian-registry/internal/projection"
	"github.com/meridian-registry/meridian-registry/internal/registrar"
	"github.com/meridian-registry/meridian-registry/internal/registry"
	"github.com/meridian-registry/meridian-registry/internal/resource"
	"github.com/meridian-registry/meridian-registry/internal/transfer"
	transferhttp "github.com/meridian-registry/meridian-registry/internal/transfer/http"
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

	metrics := observability.NewMetrics()

	registryRepo := registry.NewRepository(pool)
	registrarRepo := registrar.NewRepository(pool)
	resourceRepo := resource.NewRepository(pool)
	transferRepo := transfer.NewRepository(pool, cfg.TxMaxAttempts)
	billingRepo := billing.NewRepository(pool)
	pollRepo := poll.NewRepository(pool)
	historyRepo := history.NewRepository(pool)

	transferService := transfer.NewService(transferRepo, registryRepo, registrarRepo, transfer.Policy{
		ExplicitResolveAfterDeadline: cfg.ExplicitResolveAfterDeadline,
	})
	projectionService := projection.NewService(resourceRepo, registryRepo)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Metrics:         metrics,
		TransferHandler: transferhttp.NewHandler(logger, transferService, projectionService, metrics),
		BillingHandler:  billing.NewHandler(logger, billingRepo),
		PollHandler:     poll.NewHandler(logger, pollRepo),
		HistoryHandler:  history.NewHandler(logger, historyRepo),
	})

	if err := app.Serve(ctx, cfg, logger, router); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
