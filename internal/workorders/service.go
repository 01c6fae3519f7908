package workorders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository abstracts work-order persistence.
type Repository interface {
	List(ctx context.Context, limit int) ([]WorkOrder, error)
	Get(ctx context.Context, id string) (WorkOrder, error)
	Insert(ctx context.Context, w WorkOrder) error
	Update(ctx context.Context, w WorkOrder) error
	// EnsureDaily creates the daily order for date unless it exists, then returns it.
	EnsureDaily(ctx context.Context, seed WorkOrder) (WorkOrder, error)
	// AppendDaily adds entry to the daily order for seed.WorkDate, creating it from seed when absent.
	AppendDaily(ctx context.Context, seed WorkOrder, entry OrderInvoice) (WorkOrder, error)
	ListContaining(ctx context.Context, invoiceID string) ([]WorkOrder, error)
}

// InvoiceSource resolves invoice ids into work-order snapshots.
type InvoiceSource interface {
	OrderEntries(ctx context.Context, ids []string) ([]OrderInvoice, error)
}

// Service manages work orders.
type Service struct {
	repo     Repository
	invoices InvoiceSource
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, invoices InvoiceSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, invoices: invoices, logger: logger, now: time.Now}
}

func (s *Service) dailySeed(day time.Time) WorkOrder {
	date := day.Format(DateLayout)
	return WorkOrder{
		ID:          uuid.NewString(),
		Title:       fmt.Sprintf("أمر شغل يومي %s", date),
		Description: fmt.Sprintf("جميع فواتير يوم %s", date),
		IsDaily:     true,
		WorkDate:    date,
		Invoices:    []OrderInvoice{},
		Status:      StatusPending,
		CreatedAt:   s.now().UTC(),
	}
}

// Today returns the daily order for the current date, creating it when absent.
func (s *Service) Today(ctx context.Context) (WorkOrder, error) {
	return s.repo.EnsureDaily(ctx, s.dailySeed(s.now()))
}

// OpenDaily makes sure the daily order for day exists.
func (s *Service) OpenDaily(ctx context.Context, day time.Time) (WorkOrder, error) {
	return s.repo.EnsureDaily(ctx, s.dailySeed(day))
}

// EnrollDaily appends an invoice snapshot to today's order.
func (s *Service) EnrollDaily(ctx context.Context, entry OrderInvoice) (WorkOrder, error) {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = s.now().UTC()
	}
	return s.repo.AppendDaily(ctx, s.dailySeed(s.now()), entry)
}

// Create builds an ad-hoc order from existing invoices.
func (s *Service) Create(ctx context.Context, input CreateInput) (WorkOrder, error) {
	w := WorkOrder{
		ID:             uuid.NewString(),
		Title:          input.Title,
		Description:    input.Description,
		SupervisorName: input.SupervisorName,
		Invoices:       []OrderInvoice{},
		Status:         StatusPending,
		CreatedAt:      s.now().UTC(),
	}
	if s.invoices != nil {
		entries, err := s.invoices.OrderEntries(ctx, input.InvoiceIDs)
		if err != nil {
			return WorkOrder{}, err
		}
		for _, e := range entries {
			if e.AddedAt.IsZero() {
				e.AddedAt = w.CreatedAt
			}
			w.Add(e)
		}
	}
	if err := s.repo.Insert(ctx, w); err != nil {
		return WorkOrder{}, err
	}
	return w, nil
}

// List returns orders newest first.
func (s *Service) List(ctx context.Context, limit int) ([]WorkOrder, error) {
	return s.repo.List(ctx, limit)
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id string) (WorkOrder, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus changes the order status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (WorkOrder, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return WorkOrder{}, err
	}
	w.Status = status
	if err := s.repo.Update(ctx, w); err != nil {
		return WorkOrder{}, err
	}
	return w, nil
}

// RemoveInvoice pulls invoiceID out of one order.
func (s *Service) RemoveInvoice(ctx context.Context, orderID, invoiceID string) (WorkOrder, error) {
	w, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return WorkOrder{}, err
	}
	if w.Remove(invoiceID) {
		if err := s.repo.Update(ctx, w); err != nil {
			return WorkOrder{}, err
		}
	}
	return w, nil
}

// Detach pulls invoiceID out of every order holding it and returns how many changed.
func (s *Service) Detach(ctx context.Context, invoiceID string) (int, error) {
	orders, err := s.repo.ListContaining(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, w := range orders {
		if !w.Remove(invoiceID) {
			continue
		}
		if err := s.repo.Update(ctx, w); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
