package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan reports inventory items at or below their minimum.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskOpenDailyWorkOrder makes sure the day's work order exists.
	TaskOpenDailyWorkOrder = "workorders:open_daily"
	// TaskIdempotencyCleanup removes old idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// DefaultIdempotencyRetention is how long idempotency keys are kept.
const DefaultIdempotencyRetention = 90 * 24 * time.Hour

// Cron specs, evaluated in UTC.
const (
	CronLowStockScan       = "0 6 * * *"
	CronOpenDailyWorkOrder = "5 0 * * *"
	CronIdempotencyCleanup = "30 3 * * 0"
)

// OpenDailyPayload optionally pins the work date; zero means today.
type OpenDailyPayload struct {
	Day time.Time `json:"day,omitempty"`
}

// CleanupPayload optionally overrides the retention window.
type CleanupPayload struct {
	OlderThan time.Duration `json:"older_than,omitempty"`
}

func newTask(taskType string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewLowStockScanTask constructs the low-stock scan task.
func NewLowStockScanTask() (*asynq.Task, error) {
	return newTask(TaskLowStockScan, struct{}{})
}

// NewOpenDailyTask constructs the daily work order task.
func NewOpenDailyTask(day time.Time) (*asynq.Task, error) {
	return newTask(TaskOpenDailyWorkOrder, OpenDailyPayload{Day: day})
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, CleanupPayload{OlderThan: olderThan})
}

// NewTask builds a task by type with default payload, for manual triggering.
func NewTask(taskType string) (*asynq.Task, error) {
	switch taskType {
	case TaskLowStockScan:
		return NewLowStockScanTask()
	case TaskOpenDailyWorkOrder:
		return NewOpenDailyTask(time.Time{})
	case TaskIdempotencyCleanup:
		return NewIdempotencyCleanupTask(0)
	default:
		return nil, &UnknownTaskError{Type: taskType}
	}
}

// UnknownTaskError is returned by NewTask for unsupported task types.
type UnknownTaskError struct {
	Type string
}

func (e *UnknownTaskError) Error() string {
	return "jobs: unknown task type " + e.Type
}

// Schedule lists the cron registrations of the worker.
func Schedule() ([]CronRegistration, error) {
	specs := []struct {
		spec string
		task func() (*asynq.Task, error)
	}{
		{CronLowStockScan, NewLowStockScanTask},
		{CronOpenDailyWorkOrder, func() (*asynq.Task, error) { return NewOpenDailyTask(time.Time{}) }},
		{CronIdempotencyCleanup, func() (*asynq.Task, error) { return NewIdempotencyCleanupTask(0) }},
	}
	out := make([]CronRegistration, 0, len(specs))
	for _, s := range specs {
		task, err := s.task()
		if err != nil {
			return nil, err
		}
		out = append(out, CronRegistration{Spec: s.spec, Task: task})
	}
	return out, nil
}
