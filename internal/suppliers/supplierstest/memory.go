// Package supplierstest provides an in-memory supplier repository for tests.
package supplierstest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/suppliers"
)

// Repository is a mutex-guarded suppliers.Repository.
type Repository struct {
	mu   sync.Mutex
	rows map[string]suppliers.Supplier
	txs  []suppliers.Transaction
}

// NewRepository seeds the store.
func NewRepository(seed ...suppliers.Supplier) *Repository {
	r := &Repository{rows: make(map[string]suppliers.Supplier)}
	for _, s := range seed {
		r.rows[s.ID] = s
	}
	return r
}

func (r *Repository) List(ctx context.Context, filters shared.ListFilters) ([]suppliers.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []suppliers.Supplier{}
	for _, s := range r.rows {
		if filters.Search == "" || strings.Contains(s.Name, filters.Search) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id string) (suppliers.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return suppliers.Supplier{}, suppliers.ErrNotFound
	}
	return s, nil
}

func (r *Repository) FindByName(ctx context.Context, name string) (suppliers.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.Name == name {
			return s, nil
		}
	}
	return suppliers.Supplier{}, suppliers.ErrNotFound
}

func (r *Repository) Insert(ctx context.Context, s suppliers.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.ID] = s
	return nil
}

func (r *Repository) Update(ctx context.Context, s suppliers.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.ID]; !ok {
		return suppliers.ErrNotFound
	}
	r.rows[s.ID] = s
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return suppliers.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Repository) Apply(ctx context.Context, t suppliers.Transaction) (suppliers.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[t.SupplierID]
	if !ok {
		return suppliers.Supplier{}, suppliers.ErrNotFound
	}
	if t.Type == suppliers.TypePayment {
		s.TotalPaid = shared.SumAmounts(s.TotalPaid, t.Amount)
		s.Balance = shared.SumAmounts(s.Balance, -t.Amount)
	} else {
		s.TotalOwed = shared.SumAmounts(s.TotalOwed, t.Amount)
		s.Balance = shared.SumAmounts(s.Balance, t.Amount)
	}
	r.rows[s.ID] = s
	r.txs = append(r.txs, t)
	return s, nil
}

func (r *Repository) ListTransactions(ctx context.Context, supplierID string, limit int) ([]suppliers.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []suppliers.Transaction{}
	for i := len(r.txs) - 1; i >= 0; i-- {
		if r.txs[i].SupplierID == supplierID {
			out = append(out, r.txs[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Transactions returns every stored movement in insertion order.
func (r *Repository) Transactions() []suppliers.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]suppliers.Transaction(nil), r.txs...)
}
