// Package catalogtest provides an in-memory catalogue repository for tests.
package catalogtest

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/sealworks/seal-erp/internal/catalog"
	"github.com/sealworks/seal-erp/internal/shared"
)

// Repository is a mutex-guarded catalog.Repository.
type Repository struct {
	mu       sync.Mutex
	products map[string]catalog.Product
	local    map[string]catalog.LocalProduct
}

// NewRepository returns an empty store.
func NewRepository() *Repository {
	return &Repository{products: map[string]catalog.Product{}, local: map[string]catalog.LocalProduct{}}
}

// AddProduct seeds a finished product.
func (r *Repository) AddProduct(p catalog.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

// AddLocal seeds a local product.
func (r *Repository) AddLocal(p catalog.LocalProduct) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.local[p.ID] = p
}

func (r *Repository) ListProducts(ctx context.Context, filters shared.ListFilters) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []catalog.Product{}
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (r *Repository) InsertProduct(ctx context.Context, p catalog.Product) error {
	r.AddProduct(p)
	return nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return catalog.ErrProductNotFound
	}
	r.products[p.ID] = p
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *Repository) MatchProducts(ctx context.Context, sealType string, inner, outer, height, tol float64) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []catalog.Product{}
	for _, p := range r.products {
		if p.SealType == sealType && math.Abs(p.InnerDiameter-inner) <= tol &&
			math.Abs(p.OuterDiameter-outer) <= tol && math.Abs(p.Height-height) <= tol {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) ListLocal(ctx context.Context, filters shared.ListFilters) ([]catalog.LocalProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []catalog.LocalProduct{}
	for _, p := range r.local {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repository) GetLocal(ctx context.Context, id string) (catalog.LocalProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.local[id]
	if !ok {
		return catalog.LocalProduct{}, catalog.ErrLocalNotFound
	}
	return p, nil
}

func (r *Repository) FindLocal(ctx context.Context, name, supplierName string) (catalog.LocalProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.local {
		if p.Name == name && (supplierName == "" || p.SupplierName == supplierName) {
			return p, nil
		}
	}
	return catalog.LocalProduct{}, catalog.ErrLocalNotFound
}

func (r *Repository) InsertLocal(ctx context.Context, p catalog.LocalProduct) error {
	r.AddLocal(p)
	return nil
}

func (r *Repository) UpdateLocal(ctx context.Context, p catalog.LocalProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.local[p.ID]; !ok {
		return catalog.ErrLocalNotFound
	}
	r.local[p.ID] = p
	return nil
}

func (r *Repository) DeleteLocal(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.local[id]; !ok {
		return catalog.ErrLocalNotFound
	}
	delete(r.local, id)
	return nil
}

func (r *Repository) RecordSale(ctx context.Context, id string, quantity int) (catalog.LocalProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.local[id]
	if !ok {
		return catalog.LocalProduct{}, catalog.ErrLocalNotFound
	}
	p.TotalSold += quantity
	p.CurrentStock -= quantity
	r.local[id] = p
	return p, nil
}
