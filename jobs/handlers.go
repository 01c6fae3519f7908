package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sealworks/seal-erp/internal/inventory"
	jobmetrics "github.com/sealworks/seal-erp/internal/jobs"
	"github.com/sealworks/seal-erp/internal/workorders"
)

// LowStockSource lists inventory items at or below their minimum.
type LowStockSource interface {
	LowStock(ctx context.Context) ([]inventory.Item, error)
}

// LowStockGauge publishes the number of low-stock items.
type LowStockGauge interface {
	SetLowStockItems(n int)
}

// DailyOpener upserts the work order of a day.
type DailyOpener interface {
	OpenDaily(ctx context.Context, day time.Time) (workorders.WorkOrder, error)
}

// KeyCleaner removes idempotency keys older than a duration.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Jobs holds the task handlers and their collaborators.
type Jobs struct {
	Inventory  LowStockSource
	Gauge      LowStockGauge
	WorkOrders DailyOpener
	Keys       KeyCleaner
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	clock      func() time.Time
}

func (j *Jobs) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

func (j *Jobs) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

// Handlers lists the task handlers to register on the worker.
func (j *Jobs) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskLowStockScan, Handler: j.HandleLowStockScan},
		{Type: TaskOpenDailyWorkOrder, Handler: j.HandleOpenDaily},
		{Type: TaskIdempotencyCleanup, Handler: j.HandleIdempotencyCleanup},
	}
}

// HandleLowStockScan logs each low item and updates the gauge.
func (j *Jobs) HandleLowStockScan(ctx context.Context, t *asynq.Task) (err error) {
	if j.Inventory == nil {
		return errors.New("low stock scan: inventory not configured")
	}
	tracker := j.Metrics.Track(TaskLowStockScan)
	defer func() { err = tracker.End(err) }()

	items, err := j.Inventory.LowStock(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		j.logger().Warn("low stock",
			slog.String("item_id", it.ID),
			slog.String("material_type", it.MaterialType),
			slog.Float64("inner_diameter", it.InnerDiameter),
			slog.Float64("outer_diameter", it.OuterDiameter),
			slog.Int("available_pieces", it.AvailablePieces),
			slog.Int("min_stock_level", it.MinStockLevel))
	}
	if j.Gauge != nil {
		j.Gauge.SetLowStockItems(len(items))
	}
	j.logger().Info("low stock scan completed", slog.Int("items", len(items)))
	return nil
}

// HandleOpenDaily upserts the daily work order.
func (j *Jobs) HandleOpenDaily(ctx context.Context, t *asynq.Task) (err error) {
	if j.WorkOrders == nil {
		return errors.New("open daily: work orders not configured")
	}
	var payload OpenDailyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskOpenDailyWorkOrder)
	defer func() { err = tracker.End(err) }()

	day := payload.Day
	if day.IsZero() {
		day = j.now()
	}
	order, err := j.WorkOrders.OpenDaily(ctx, day)
	if err != nil {
		return err
	}
	j.logger().Info("daily work order ready", slog.String("work_order_id", order.ID), slog.String("work_date", order.WorkDate))
	return nil
}

// HandleIdempotencyCleanup drops idempotency keys past retention.
func (j *Jobs) HandleIdempotencyCleanup(ctx context.Context, t *asynq.Task) (err error) {
	if j.Keys == nil {
		return errors.New("idempotency cleanup: store not configured")
	}
	var payload CleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	defer func() { err = tracker.End(err) }()

	retention := payload.OlderThan
	if retention <= 0 {
		retention = DefaultIdempotencyRetention
	}
	n, err := j.Keys.Cleanup(ctx, retention)
	if err != nil {
		return err
	}
	j.logger().Info("idempotency keys removed", slog.Int64("deleted", n), slog.Duration("older_than", retention))
	return nil
}
