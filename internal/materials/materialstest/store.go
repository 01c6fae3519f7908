// Package materialstest provides an in-memory raw-material store for tests.
package materialstest

import (
	"context"
	"sync"

	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/shared"
)

// Store implements materials.Repository in memory.
type Store struct {
	mu    sync.Mutex
	items map[string]materials.RawMaterial
	order []string
}

type stockTx struct {
	store *Store
}

// NewStore seeds a Store with items.
func NewStore(items ...materials.RawMaterial) *Store {
	s := &Store{items: make(map[string]materials.RawMaterial)}
	for _, m := range items {
		s.items[m.ID] = m
		s.order = append(s.order, m.ID)
	}
	return s
}

// Height returns the current length of a material.
func (s *Store) Height(id string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id].Height
}

func (s *Store) WithStockTx(ctx context.Context, fn func(context.Context, materials.StockTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &stockTx{store: s})
}

func (s *Store) List(ctx context.Context) ([]materials.RawMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]materials.RawMaterial, 0, len(s.order))
	for _, id := range s.order {
		if m, ok := s.items[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) Candidates(ctx context.Context, t materials.MaterialType, minHeight float64) ([]materials.RawMaterial, error) {
	all, _ := s.List(ctx)
	out := []materials.RawMaterial{}
	for _, m := range all {
		if m.Height >= minHeight && (t == "" || m.MaterialType == t) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (materials.RawMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.items[id]
	if !ok {
		return materials.RawMaterial{}, shared.NotFound("raw material")
	}
	return m, nil
}

func (s *Store) Insert(ctx context.Context, m materials.RawMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[m.ID] = m
	s.order = append(s.order, m.ID)
	return nil
}

func (s *Store) Update(ctx context.Context, m materials.RawMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[m.ID]; !ok {
		return shared.NotFound("raw material")
	}
	s.items[m.ID] = m
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return shared.NotFound("raw material")
	}
	delete(s.items, id)
	return nil
}

func (s *Store) UnitCodes(ctx context.Context, t materials.MaterialType, inner, outer float64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var codes []string
	for _, m := range s.items {
		if m.MaterialType == t && m.InnerDiameter == inner && m.OuterDiameter == outer {
			codes = append(codes, m.UnitCode)
		}
	}
	return codes, nil
}

func (tx *stockTx) LockByID(ctx context.Context, id string) (materials.RawMaterial, error) {
	m, ok := tx.store.items[id]
	if !ok {
		return materials.RawMaterial{}, shared.NotFound("raw material")
	}
	return m, nil
}

func (tx *stockTx) LockByRef(ctx context.Context, ref materials.Ref) (materials.RawMaterial, error) {
	for _, id := range tx.store.order {
		m, ok := tx.store.items[id]
		if !ok || m.UnitCode != ref.UnitCode {
			continue
		}
		if ref.HasDimensions() && (m.MaterialType != ref.MaterialType || m.InnerDiameter != ref.InnerDiameter || m.OuterDiameter != ref.OuterDiameter) {
			continue
		}
		return m, nil
	}
	return materials.RawMaterial{}, shared.NotFound("raw material")
}

func (tx *stockTx) SetHeight(ctx context.Context, id string, height float64) error {
	m := tx.store.items[id]
	m.Height = height
	tx.store.items[id] = m
	return nil
}
