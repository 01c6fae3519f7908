package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealworks/seal-erp/internal/shared"
)

type memoryRepo struct {
	rows map[string]Customer
}

func (r *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Customer, error) {
	out := []Customer{}
	for _, c := range r.rows {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (Customer, error) {
	c, ok := r.rows[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) Insert(ctx context.Context, c Customer) error {
	r.rows[c.ID] = c
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, c Customer) error {
	if _, ok := r.rows[c.ID]; !ok {
		return ErrNotFound
	}
	r.rows[c.ID] = c
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func TestCustomerLifecycle(t *testing.T) {
	svc := NewService(&memoryRepo{rows: map[string]Customer{}})
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Name: "  ورشة النور ", Phone: " 0100 "})
	require.NoError(t, err)
	require.Equal(t, "ورشة النور", c.Name)
	require.Equal(t, "0100", c.Phone)

	name, err := svc.CustomerName(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "ورشة النور", name)

	_, err = svc.Update(ctx, c.ID, Input{Name: " "})
	require.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.CustomerName(ctx, c.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, "customer not found", shared.MessageKeyFor(err))
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(&memoryRepo{rows: map[string]Customer{}})
	_, err := svc.Create(context.Background(), Input{Name: "\t"})
	require.ErrorIs(t, err, shared.ErrValidation)
}
