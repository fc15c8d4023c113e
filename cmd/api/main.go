package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/branchops/branch-queue/internal/api/http"
	"github.com/branchops/branch-queue/internal/api/http/handlers"
	"github.com/branchops/branch-queue/internal/config"
	"github.com/branchops/branch-queue/internal/events"
	"github.com/branchops/branch-queue/internal/ledger"
	"github.com/branchops/branch-queue/internal/notify"
	"github.com/branchops/branch-queue/internal/observability"
	"github.com/branchops/branch-queue/internal/persistence"
	"github.com/branchops/branch-queue/internal/service"
	"github.com/branchops/branch-queue/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	store := ledger.NewStore(cfg.Ledger.Path, logger)
	if err := store.Seed(ctx); err != nil {
		logger.Fatal("failed to seed ledger", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	queueService := service.NewQueueService(store, dispatcher, logger)
	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	hub := notify.NewHub(logger, metrics)

	var redis *persistence.Redis
	var relay *notify.Relay
	if cfg.Redis.Enabled() {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		relay = notify.NewRelay(redis, cfg.Redis.Channel, hub, logger)
		relay.Start(ctx)
		defer relay.Stop()
	}

	watcher := notify.NewWatcher(store.Path(), hub, relay, logger)
	if err := watcher.Start(ctx); err != nil {
		logger.Fatal("failed to start ledger watcher", zap.Error(err))
	}
	defer watcher.Stop()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, redis)
	queueHandler := handlers.NewQueueHandler(queueService)
	wsHandler := handlers.NewWSHandler(hub, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: healthHandler,
		Queue:  queueHandler,
		WS:     wsHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
