package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/stockbridge/stockbridge/internal/app"
	jobmetrics "github.com/stockbridge/stockbridge/internal/jobs"
	"github.com/stockbridge/stockbridge/internal/ledger"
	"github.com/stockbridge/stockbridge/internal/locations"
	"github.com/stockbridge/stockbridge/internal/platform/cache"
	"github.com/stockbridge/stockbridge/internal/platform/db"
	"github.com/stockbridge/stockbridge/internal/settings"
	"github.com/stockbridge/stockbridge/internal/shopify"
	"github.com/stockbridge/stockbridge/internal/snapshot"
	"github.com/stockbridge/stockbridge/jobs"
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

	shopClient := shopify.NewClient(shopify.ClientConfig{
		Shop:       cfg.ShopifyShop,
		Token:      cfg.ShopifyToken,
		APIVersion: cfg.ShopifyAPIVersion,
		Timeout:    cfg.ShopifyTimeout,
		Logger:     logger,
	})

	metrics := jobmetrics.NewMetrics(nil)

	locationService := locations.NewService(locations.NewRepository(pool))
	ledgerService := ledger.NewService(ledger.NewRepository(pool), locationService, nil, logger)

	var feed snapshot.Feed
	if shopClient != nil {
		feed = shopClient
	}
	feedCache := snapshot.NewFeedCache(redisClient, cfg.SnapshotCacheTTL)
	snapshotService := snapshot.NewService(feed, ledgerService, feedCache, logger)

	auditTask, err := jobs.NewLedgerAuditTask(jobs.LedgerAuditPayload{})
	if err != nil {
		logger.Error("build audit task", slog.Any("error", err))
		os.Exit(1)
	}

	cron := []jobs.CronRegistration{
		{Spec: "0 3 * * *", Task: auditTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
	}
	if shopClient != nil {
		seedCfg, err := settings.NewService(settings.NewRepository(pool), shopClient, logger).Load(ctx)
		if err == nil && seedCfg.HasWarehouse() {
			warmTask, err := jobs.NewSnapshotWarmTask(jobs.SnapshotWarmPayload{WarehouseRef: seedCfg.WarehouseLocationRef})
			if err != nil {
				logger.Error("build warm task", slog.Any("error", err))
				os.Exit(1)
			}
			cron = append(cron, jobs.CronRegistration{Spec: "*/10 * * * *", Task: warmTask, Options: []asynq.Option{asynq.MaxRetry(1)}})
		}
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeLedgerAudit, Handler: jobs.NewLedgerAuditHandler(ledgerService, metrics, logger)},
			{Type: jobs.TaskTypeLedgerRebuild, Handler: jobs.NewLedgerRebuildHandler(ledgerService, metrics, logger)},
			{Type: jobs.TaskTypeSnapshotWarm, Handler: jobs.NewSnapshotWarmHandler(snapshotService, metrics, logger)},
		},
		Cron: cron,
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
	logger.Info("worker stopped")
}
