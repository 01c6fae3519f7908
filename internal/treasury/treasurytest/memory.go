// Package treasurytest provides in-memory ledger collaborators for tests.
package treasurytest

import (
	"context"
	"sync"

	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/treasury"
)

// Repository implements treasury.Repository in memory.
type Repository struct {
	mu  sync.Mutex
	txs []treasury.Transaction
	// FailInsert makes the next Insert return the error.
	FailInsert error
}

// NewRepository returns an empty ledger.
func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, t treasury.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailInsert; err != nil {
		r.FailInsert = nil
		return err
	}
	r.txs = append(r.txs, t)
	return nil
}

func (r *Repository) InsertPair(ctx context.Context, out, in treasury.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, out, in)
	return nil
}

func (r *Repository) List(ctx context.Context, account treasury.AccountID, limit int) ([]treasury.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []treasury.Transaction{}
	for i := len(r.txs) - 1; i >= 0; i-- {
		if account == "" || r.txs[i].AccountID == account {
			out = append(out, r.txs[i])
		}
	}
	return out, nil
}

func (r *Repository) Totals(ctx context.Context) ([]treasury.TypeTotal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]treasury.TypeTotal, 0, len(r.txs))
	for _, t := range r.txs {
		out = append(out, treasury.TypeTotal{AccountID: t.AccountID, TransactionType: t.TransactionType, Amount: t.Amount})
	}
	return out, nil
}

func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.txs))
	r.txs = nil
	return n, nil
}

// All returns every entry in posting order.
func (r *Repository) All() []treasury.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]treasury.Transaction(nil), r.txs...)
}

// ByReference returns entries carrying reference.
func (r *Repository) ByReference(reference string) []treasury.Transaction {
	var out []treasury.Transaction
	for _, t := range r.All() {
		if t.Reference == reference {
			out = append(out, t)
		}
	}
	return out
}

// Idempotency implements treasury.IdempotencyPort in memory.
type Idempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

// NewIdempotency returns an empty key store.
func NewIdempotency() *Idempotency {
	return &Idempotency{keys: make(map[string]string)}
}

func (s *Idempotency) Reserve(ctx context.Context, key, module string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return shared.ErrAlreadyProcessed
	}
	s.keys[key] = module
	return nil
}

func (s *Idempotency) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// Has reports whether key is reserved.
func (s *Idempotency) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

// Sources is a settable treasury.BalanceSources.
type Sources struct {
	Deferred float64
	Expenses float64
	// DeferredFunc overrides Deferred when set.
	DeferredFunc func() float64
}

func (s *Sources) DeferredInvoicesTotal(ctx context.Context) (float64, error) {
	if s.DeferredFunc != nil {
		return s.DeferredFunc(), nil
	}
	return s.Deferred, nil
}

func (s *Sources) ExpensesTotal(ctx context.Context) (float64, error) {
	return s.Expenses, nil
}
