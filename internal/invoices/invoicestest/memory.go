// Package invoicestest provides an in-memory invoice repository for tests.
package invoicestest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/sealworks/seal-erp/internal/invoices"
	"github.com/sealworks/seal-erp/internal/shared"
)

// Repository is a mutex-guarded invoices.Repository. Invoices are stored as JSON
// so that reads never alias what the caller holds.
type Repository struct {
	mu       sync.Mutex
	seq      int64
	rows     map[string][]byte
	payments []invoices.Payment
}

// NewRepository returns an empty store.
func NewRepository() *Repository {
	return &Repository{rows: make(map[string][]byte)}
}

func decode(raw []byte) invoices.Invoice {
	var inv invoices.Invoice
	_ = json.Unmarshal(raw, &inv)
	return inv
}

func (r *Repository) NextNumber(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *Repository) Insert(ctx context.Context, inv invoices.Invoice) error {
	raw, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[inv.ID] = raw
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (invoices.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.rows[id]
	if !ok {
		return invoices.Invoice{}, invoices.ErrNotFound
	}
	return decode(raw), nil
}

func (r *Repository) GetMany(ctx context.Context, ids []string) ([]invoices.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []invoices.Invoice{}
	for _, id := range ids {
		if raw, ok := r.rows[id]; ok {
			out = append(out, decode(raw))
		}
	}
	return out, nil
}

func (r *Repository) List(ctx context.Context, filter invoices.ListFilter) ([]invoices.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []invoices.Invoice{}
	for _, raw := range r.rows {
		inv := decode(raw)
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.CustomerID != "" && inv.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber > out[j].InvoiceNumber })
	return out, nil
}

func (r *Repository) Update(ctx context.Context, inv invoices.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[inv.ID]; !ok {
		return invoices.ErrNotFound
	}
	raw, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	r.rows[inv.ID] = raw
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return invoices.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Repository) ApplyPayment(ctx context.Context, p invoices.Payment, apply func(*invoices.Invoice) error) (invoices.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.rows[p.InvoiceID]
	if !ok {
		return invoices.Invoice{}, invoices.ErrNotFound
	}
	inv := decode(raw)
	if err := apply(&inv); err != nil {
		return invoices.Invoice{}, err
	}
	updated, err := json.Marshal(inv)
	if err != nil {
		return invoices.Invoice{}, err
	}
	r.rows[inv.ID] = updated
	r.payments = append(r.payments, p)
	return inv, nil
}

func (r *Repository) ListPayments(ctx context.Context, invoiceID string, limit int) ([]invoices.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []invoices.Payment{}
	for i := len(r.payments) - 1; i >= 0; i-- {
		if invoiceID == "" || r.payments[i].InvoiceID == invoiceID {
			out = append(out, r.payments[i])
		}
	}
	return out, nil
}

// DeferredTotal sums invoices currently on credit, as the treasury balance source does.
func (r *Repository) DeferredTotal() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	values := []float64{}
	for _, raw := range r.rows {
		inv := decode(raw)
		if inv.PaymentMethod.IsDeferred() {
			values = append(values, inv.TotalAmount)
		}
	}
	return shared.SumAmounts(values...)
}
