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

	"github.com/servicehub/sparecrm/internal/app"
	"github.com/servicehub/sparecrm/internal/approval"
	"github.com/servicehub/sparecrm/internal/authz"
	"github.com/servicehub/sparecrm/internal/delivery"
	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/observability"
	"github.com/servicehub/sparecrm/internal/platform/cache"
	"github.com/servicehub/sparecrm/internal/platform/db"
	"github.com/servicehub/sparecrm/internal/shared"
	"github.com/servicehub/sparecrm/internal/spares"
	"github.com/servicehub/sparecrm/internal/store"
	"github.com/servicehub/sparecrm/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PoolOptions())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	st := store.New(pool)
	directory := authz.NewCachedDirectory(st, redisClient, cfg.AuthzCacheTTL, logger)

	metrics := observability.NewMetrics()
	ledger := inventory.NewLedger(logger).OnClamp(metrics.RecordLedgerClamp)
	recorder := movement.NewRecorder()
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	redisOpts := cfg.QueueRedis()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	sparesService := spares.NewService(spares.NewRepository[*store.Tx](st), logger)
	approvalService := approval.NewService(approval.Dependencies{
		Repository: approval.NewRepository[*store.Tx](st),
		Authorizer: authz.NewAuthorizer(directory),
		Ledger:     ledger,
		Recorder:   recorder,
		Locker:     cache.NewLocker(redisClient),
		Audit:      auditLogger,
		Notifier:   jobClient,
		Metrics:    metrics,
		Logger:     logger,
		LockTTL:    cfg.DecisionLockTTL,
	})
	deliveryService := delivery.NewService(delivery.Dependencies{
		Repository:  delivery.NewRepository[*store.Tx](st),
		Ledger:      ledger,
		Recorder:    recorder,
		Idempotency: idempotencyStore,
		Audit:       auditLogger,
		Metrics:     metrics,
		Logger:      logger,
	})
	inventoryService := inventory.NewService(inventory.NewRepository[*store.Tx](st), ledger, recorder, auditLogger, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Authn:            authz.Middleware{Directory: directory, Logger: logger},
		SparesHandler:    spares.NewHandler(logger, sparesService),
		ApprovalHandler:  approval.NewHandler(logger, approvalService),
		DeliveryHandler:  delivery.NewHandler(logger, deliveryService),
		InventoryHandler: inventory.NewHandler(logger, inventoryService),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
		Health:           st,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server starting", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
}
