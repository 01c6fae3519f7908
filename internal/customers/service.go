package customers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sealworks/seal-erp/internal/shared"
)

// Repository abstracts customer persistence.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Customer, error)
	Get(ctx context.Context, id string) (Customer, error)
	Insert(ctx context.Context, c Customer) error
	Update(ctx context.Context, c Customer) error
	Delete(ctx context.Context, id string) error
}

// Service manages customers.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Customer, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	return s.repo.Get(ctx, id)
}

// CustomerName resolves the display name used on invoices.
func (s *Service) CustomerName(ctx context.Context, id string) (string, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

func (s *Service) Create(ctx context.Context, input Input) (Customer, error) {
	c := Customer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Phone:     strings.TrimSpace(input.Phone),
		Address:   input.Address,
		Notes:     input.Notes,
		CreatedAt: s.now().UTC(),
	}
	if c.Name == "" {
		return Customer{}, shared.Invalid("name", "required")
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id string, input Input) (Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	c.Name = strings.TrimSpace(input.Name)
	c.Phone = strings.TrimSpace(input.Phone)
	c.Address = input.Address
	c.Notes = input.Notes
	if c.Name == "" {
		return Customer{}, shared.Invalid("name", "required")
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
