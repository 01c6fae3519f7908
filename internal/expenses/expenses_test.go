package expenses

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sealworks/seal-erp/internal/shared"
)

type memoryRepo struct {
	rows map[string]Expense
}

func (m *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Expense, error) {
	out := []Expense{}
	for _, e := range m.rows {
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id string) (Expense, error) {
	e, ok := m.rows[id]
	if !ok {
		return Expense{}, ErrNotFound
	}
	return e, nil
}

func (m *memoryRepo) Insert(ctx context.Context, e Expense) error {
	m.rows[e.ID] = e
	return nil
}

func (m *memoryRepo) Update(ctx context.Context, e Expense) error {
	if _, ok := m.rows[e.ID]; !ok {
		return ErrNotFound
	}
	m.rows[e.ID] = e
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type countingCache struct{ n int }

func (c *countingCache) Invalidate(context.Context) { c.n++ }

func TestExpenseChangesInvalidateBalances(t *testing.T) {
	cache := &countingCache{}
	svc := NewService(&memoryRepo{rows: map[string]Expense{}}, cache)
	ctx := context.Background()

	e, err := svc.Create(ctx, Input{Description: "كهرباء", Amount: 150.255})
	require.NoError(t, err)
	require.InDelta(t, 150.26, e.Amount, 1e-9)

	_, err = svc.Update(ctx, e.ID, Input{Description: "كهرباء", Amount: 120})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, e.ID))
	require.Equal(t, 3, cache.n)

	require.ErrorIs(t, svc.Delete(ctx, e.ID), shared.ErrNotFound)
	require.Equal(t, 3, cache.n)
}

func TestCreateExpenseRejectsZeroAmount(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(NewService(&memoryRepo{rows: map[string]Expense{}}, nil)).MountRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"description":"x","amount":0}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
