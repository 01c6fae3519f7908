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

	"github.com/sealworks/seal-erp/internal/app"
	"github.com/sealworks/seal-erp/internal/inventory"
	"github.com/sealworks/seal-erp/internal/invoices"
	jobmetrics "github.com/sealworks/seal-erp/internal/jobs"
	"github.com/sealworks/seal-erp/internal/observability"
	"github.com/sealworks/seal-erp/internal/platform/db"
	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/workorders"
	"github.com/sealworks/seal-erp/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGDatabase)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	inventoryService := inventory.NewService(inventory.NewRepository(pool), shared.NewAuditLogger(pool), logger)
	workOrderService := workorders.NewService(
		workorders.NewRepository(pool),
		invoices.NewOrderSource(invoices.NewRepository(pool)),
		logger,
	)

	tasks := &jobs.Jobs{
		Inventory:  inventoryService,
		Gauge:      metrics,
		WorkOrders: workOrderService,
		Keys:       shared.NewIdempotencyStore(pool),
		Logger:     logger,
		Metrics:    jobmetrics.NewMetrics(metrics.Registerer()),
	}
	schedule, err := jobs.Schedule()
	if err != nil {
		logger.Error("build schedule", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    tasks.Handlers(),
		Cron:        schedule,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("starting worker", slog.Int("tasks", len(tasks.Handlers())), slog.Int("cron", len(schedule)))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
