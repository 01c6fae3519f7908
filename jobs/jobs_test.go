package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealworks/seal-erp/internal/inventory"
	jobmetrics "github.com/sealworks/seal-erp/internal/jobs"
	"github.com/sealworks/seal-erp/internal/workorders"
)

type stubInventory struct {
	items []inventory.Item
	err   error
}

func (s stubInventory) LowStock(context.Context) ([]inventory.Item, error) { return s.items, s.err }

type gauge struct{ n int }

func (g *gauge) SetLowStockItems(n int) { g.n = n }

type opener struct{ days []time.Time }

func (o *opener) OpenDaily(_ context.Context, day time.Time) (workorders.WorkOrder, error) {
	o.days = append(o.days, day)
	return workorders.WorkOrder{ID: "wo-1", WorkDate: day.Format("2006-01-02"), IsDaily: true}, nil
}

type cleaner struct{ olderThan time.Duration }

func (c *cleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	c.olderThan = olderThan
	return 3, nil
}

func TestLowStockScanSetsGauge(t *testing.T) {
	g := &gauge{}
	j := &Jobs{
		Inventory: stubInventory{items: []inventory.Item{
			{ID: "i1", MaterialType: "NBR", AvailablePieces: 1, MinStockLevel: 5},
			{ID: "i2", MaterialType: "VITON", AvailablePieces: 0, MinStockLevel: 2},
		}},
		Gauge:   g,
		Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry()),
	}
	task, err := NewLowStockScanTask()
	require.NoError(t, err)
	require.NoError(t, j.HandleLowStockScan(context.Background(), task))
	assert.Equal(t, 2, g.n)
}

func TestLowStockScanPropagatesError(t *testing.T) {
	j := &Jobs{Inventory: stubInventory{err: errors.New("db down")}}
	task, err := NewLowStockScanTask()
	require.NoError(t, err)
	require.Error(t, j.HandleLowStockScan(context.Background(), task))
}

func TestOpenDailyDefaultsToToday(t *testing.T) {
	fixed := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	o := &opener{}
	j := &Jobs{WorkOrders: o, clock: func() time.Time { return fixed }}

	task, err := NewOpenDailyTask(time.Time{})
	require.NoError(t, err)
	require.NoError(t, j.HandleOpenDaily(context.Background(), task))

	pinned := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	task, err = NewOpenDailyTask(pinned)
	require.NoError(t, err)
	require.NoError(t, j.HandleOpenDaily(context.Background(), task))

	require.Len(t, o.days, 2)
	assert.True(t, o.days[0].Equal(fixed))
	assert.True(t, o.days[1].Equal(pinned))
}

func TestOpenDailyRejectsBadPayload(t *testing.T) {
	j := &Jobs{WorkOrders: &opener{}}
	err := j.HandleOpenDaily(context.Background(), asynq.NewTask(TaskOpenDailyWorkOrder, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestIdempotencyCleanupRetention(t *testing.T) {
	c := &cleaner{}
	j := &Jobs{Keys: c}

	task, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.NoError(t, j.HandleIdempotencyCleanup(context.Background(), task))
	assert.Equal(t, DefaultIdempotencyRetention, c.olderThan)

	task, err = NewIdempotencyCleanupTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, j.HandleIdempotencyCleanup(context.Background(), task))
	assert.Equal(t, time.Hour, c.olderThan)
}

func TestUnconfiguredHandlersFail(t *testing.T) {
	j := &Jobs{}
	for _, h := range j.Handlers() {
		task, err := NewTask(h.Type)
		require.NoError(t, err)
		assert.Error(t, h.Handler(context.Background(), task), h.Type)
	}
}

func TestScheduleAndTasks(t *testing.T) {
	regs, err := Schedule()
	require.NoError(t, err)
	require.Len(t, regs, 3)
	assert.Equal(t, CronLowStockScan, regs[0].Spec)
	assert.Equal(t, TaskLowStockScan, regs[0].Task.Type())
	assert.Equal(t, TaskOpenDailyWorkOrder, regs[1].Task.Type())
	assert.Equal(t, TaskIdempotencyCleanup, regs[2].Task.Type())

	_, err = NewTask("reports:unknown")
	var unknown *UnknownTaskError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "reports:unknown", unknown.Type)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

type stubEnqueuer struct{ types []string }

func (s *stubEnqueuer) Enqueue(_ context.Context, taskType string) (*asynq.TaskInfo, error) {
	if _, err := NewTask(taskType); err != nil {
		return nil, err
	}
	s.types = append(s.types, taskType)
	return &asynq.TaskInfo{ID: "t1", Type: taskType, Queue: QueueDefault}, nil
}

func newJobsRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/jobs", func(r chi.Router) {
		h.MountRoutes(r)
		h.MountAdminRoutes(r)
	})
	return r
}

func TestHealthEndpoint(t *testing.T) {
	h := NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4, Active: 1}}, nil, nil)
	rec := httptest.NewRecorder()
	newJobsRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "default", body["queue"])
	assert.EqualValues(t, 4, body["pending"])
	assert.EqualValues(t, 1, body["active"])

	h = NewHandler(stubInspector{err: errors.New("redis down")}, nil, nil)
	rec = httptest.NewRecorder()
	newJobsRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTriggerEndpoint(t *testing.T) {
	enq := &stubEnqueuer{}
	router := newJobsRouter(NewHandler(nil, enq, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/"+TaskLowStockScan+"/trigger", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{TaskLowStockScan}, enq.types)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/bogus/trigger", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
