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

	"github.com/sealworks/seal-erp/internal/app"
	"github.com/sealworks/seal-erp/internal/audit"
	"github.com/sealworks/seal-erp/internal/auth"
	"github.com/sealworks/seal-erp/internal/catalog"
	"github.com/sealworks/seal-erp/internal/compat"
	"github.com/sealworks/seal-erp/internal/customers"
	"github.com/sealworks/seal-erp/internal/expenses"
	"github.com/sealworks/seal-erp/internal/inventory"
	"github.com/sealworks/seal-erp/internal/invoices"
	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/observability"
	"github.com/sealworks/seal-erp/internal/platform/cache"
	"github.com/sealworks/seal-erp/internal/platform/db"
	"github.com/sealworks/seal-erp/internal/platform/httpx"
	"github.com/sealworks/seal-erp/internal/rbac"
	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/suppliers"
	"github.com/sealworks/seal-erp/internal/treasury"
	"github.com/sealworks/seal-erp/internal/users"
	"github.com/sealworks/seal-erp/internal/workorders"
	"github.com/sealworks/seal-erp/jobs"
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
	httpx.HideInternalDetail = cfg.IsProduction()

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGDatabase)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	userService := users.NewService(users.NewRepository(dbpool), 0)
	authService := auth.NewService(
		userService,
		auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		auth.NewDenylist(redisClient, ""),
		logger,
	)

	treasuryService := treasury.NewService(
		treasury.NewRepository(dbpool),
		treasury.NewSources(dbpool),
		idempotencyStore,
		treasury.Options{
			Cache:    cache.NewVersioned(redisClient, "sealerp:treasury", cfg.BalanceCacheTTL),
			Audit:    auditLogger,
			Observer: metrics,
			Logger:   logger,
		},
	)

	customerService := customers.NewService(customers.NewRepository(dbpool))
	supplierService := suppliers.NewService(suppliers.NewRepository(dbpool), treasuryService, logger)
	catalogService := catalog.NewService(catalog.NewRepository(dbpool))
	expenseService := expenses.NewService(expenses.NewRepository(dbpool), treasuryService)
	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), auditLogger, logger)

	materialRepo := materials.NewRepository(dbpool)
	materialService := materials.NewService(materialRepo, inventoryService, auditLogger, logger)
	allocator := materials.NewAllocator(materialRepo, logger)

	invoiceRepo := invoices.NewRepository(dbpool)
	workOrderService := workorders.NewService(workorders.NewRepository(dbpool), invoices.NewOrderSource(invoiceRepo), logger)
	invoiceService := invoices.NewService(invoiceRepo, allocator, treasuryService, invoices.Options{
		Customers:  customerService,
		LocalStock: catalogService,
		Suppliers:  supplierService,
		WorkOrders: workOrderService,
		Audit:      auditLogger,
		Observer:   metrics,
		Logger:     logger,
	})

	compatService := compat.NewService(materialRepo, catalogService, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		Authenticate:      authService.Authenticate,
		RBACMiddleware:    rbacMiddleware,
		AuthHandler:       auth.NewHandler(logger, authService),
		AuditHandler:      audit.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool))),
		UsersHandler:      users.NewHandler(logger, userService, rbacMiddleware),
		InvoicesHandler:   invoices.NewHandler(logger, invoiceService),
		CustomersHandler:  customers.NewHandler(logger, customerService),
		SuppliersHandler:  suppliers.NewHandler(logger, supplierService),
		CatalogHandler:    catalog.NewHandler(logger, catalogService),
		ExpensesHandler:   expenses.NewHandler(expenseService),
		MaterialsHandler:  materials.NewHandler(logger, materialService, rbacMiddleware),
		InventoryHandler:  inventory.NewHandler(logger, inventoryService),
		TreasuryHandler:   treasury.NewHandler(logger, treasuryService, rbacMiddleware),
		WorkOrdersHandler: workorders.NewHandler(logger, workOrderService),
		CompatHandler:     compat.NewHandler(logger, compatService),
		JobHandler:        jobs.NewHandler(inspector, jobClient, logger),
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
