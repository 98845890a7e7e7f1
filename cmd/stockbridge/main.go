package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockbridge/stockbridge/internal/app"
	"github.com/stockbridge/stockbridge/internal/dashboard"
	"github.com/stockbridge/stockbridge/internal/ledger"
	"github.com/stockbridge/stockbridge/internal/locations"
	"github.com/stockbridge/stockbridge/internal/observability"
	"github.com/stockbridge/stockbridge/internal/platform/cache"
	"github.com/stockbridge/stockbridge/internal/platform/db"
	"github.com/stockbridge/stockbridge/internal/reports"
	"github.com/stockbridge/stockbridge/internal/settings"
	"github.com/stockbridge/stockbridge/internal/shopify"
	"github.com/stockbridge/stockbridge/internal/snapshot"
	"github.com/stockbridge/stockbridge/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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
		// The app degrades to uncached feeds and no background jobs.
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	shopClient := shopify.NewClient(shopify.ClientConfig{
		Shop:       cfg.ShopifyShop,
		Token:      cfg.ShopifyToken,
		APIVersion: cfg.ShopifyAPIVersion,
		Timeout:    cfg.ShopifyTimeout,
		Logger:     logger,
	})
	if shopClient == nil {
		logger.Warn("no shopify shop configured, running ledger-only")
	}

	metrics := observability.NewMetrics()

	locationRepo := locations.NewRepository(pool)
	locationService := locations.NewService(locationRepo)

	var platformLocations settings.PlatformLocations
	if shopClient != nil {
		platformLocations = shopClient
	}
	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(settingsRepo, platformLocations, logger)

	var orderSink ledger.OrderSink
	if shopClient != nil {
		orderSink = shopClient
	}
	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, locationService, orderSink, logger)

	var feedCache *snapshot.FeedCache
	if redisClient != nil {
		feedCache = snapshot.NewFeedCache(redisClient, cfg.SnapshotCacheTTL)
	}
	var feed snapshot.Feed
	if shopClient != nil {
		feed = shopClient
	}
	snapshotService := snapshot.NewService(feed, ledgerService, feedCache, logger)

	var catalog dashboard.Catalog
	if shopClient != nil {
		catalog = shopClient
	}
	dashboardService := dashboard.NewService(snapshotService, ledgerService, locationService, settingsService, catalog, logger)
	reportService := reports.NewService(snapshotService, ledgerService, locationService, settingsService, logger)

	if err := locationService.EnsureDefaults(ctx, locations.DefaultSeeds); err != nil {
		logger.Error("seed locations", slog.Any("error", err))
		os.Exit(1)
	}
	if err := settingsService.Ensure(ctx, cfg.WarehouseLocationRef); err != nil {
		logger.Error("seed settings", slog.Any("error", err))
		os.Exit(1)
	}

	var jobClient *jobs.Client
	var jobHandler *jobs.Handler
	if redisClient != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient = jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(asynq.NewInspector(redisOpts), jobClient, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Middleware: app.MiddlewareStack(app.MiddlewareConfig{
			Logger:  logger,
			Config:  cfg,
			Metrics: metrics,
		}),
		Metrics:   metrics,
		Locations: locations.NewHandler(logger, locationService),
		Ledger:    ledger.NewHandler(logger, ledgerService, settingsService),
		Settings:  settings.NewHandler(logger, settingsService, shopClient),
		Dashboard: dashboard.NewHandler(logger, dashboardService),
		Reports:   reports.NewHandler(logger, reportService),
		Jobs:      jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
