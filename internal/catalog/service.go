package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sealworks/seal-erp/internal/shared"
)

// Repository abstracts catalogue persistence.
type Repository interface {
	ListProducts(ctx context.Context, filters shared.ListFilters) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	InsertProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id string) error
	// MatchProducts returns seal-type matches with every dimension within tol.
	MatchProducts(ctx context.Context, sealType string, inner, outer, height, tol float64) ([]Product, error)

	ListLocal(ctx context.Context, filters shared.ListFilters) ([]LocalProduct, error)
	GetLocal(ctx context.Context, id string) (LocalProduct, error)
	FindLocal(ctx context.Context, name, supplierName string) (LocalProduct, error)
	InsertLocal(ctx context.Context, p LocalProduct) error
	UpdateLocal(ctx context.Context, p LocalProduct) error
	DeleteLocal(ctx context.Context, id string) error
	// RecordSale moves quantity from current_stock to total_sold.
	RecordSale(ctx context.Context, id string, quantity int) (LocalProduct, error)
}

// Service manages finished and local products.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) ListProducts(ctx context.Context, filters shared.ListFilters) ([]Product, error) {
	return s.repo.ListProducts(ctx, filters)
}

func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	p := Product{ID: uuid.NewString(), CreatedAt: s.now().UTC()}
	p.apply(input)
	if err := s.repo.InsertProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, input ProductInput) (Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p.apply(input)
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (p *Product) apply(in ProductInput) {
	p.SealType = strings.TrimSpace(in.SealType)
	p.MaterialType = strings.ToUpper(strings.TrimSpace(in.MaterialType))
	p.InnerDiameter = in.InnerDiameter
	p.OuterDiameter = in.OuterDiameter
	p.Height = in.Height
	p.Quantity = in.Quantity
	p.UnitPrice = in.UnitPrice
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}

// MatchProducts finds stocked seals of sealType within tol mm on every dimension.
func (s *Service) MatchProducts(ctx context.Context, sealType string, inner, outer, height, tol float64) ([]Product, error) {
	return s.repo.MatchProducts(ctx, sealType, inner, outer, height, tol)
}

func (s *Service) ListLocal(ctx context.Context, filters shared.ListFilters) ([]LocalProduct, error) {
	return s.repo.ListLocal(ctx, filters)
}

func (s *Service) GetLocal(ctx context.Context, id string) (LocalProduct, error) {
	return s.repo.GetLocal(ctx, id)
}

func (s *Service) CreateLocal(ctx context.Context, input LocalInput) (LocalProduct, error) {
	p := LocalProduct{ID: uuid.NewString(), CreatedAt: s.now().UTC()}
	p.apply(input)
	if err := s.repo.InsertLocal(ctx, p); err != nil {
		return LocalProduct{}, err
	}
	return p, nil
}

func (s *Service) UpdateLocal(ctx context.Context, id string, input LocalInput) (LocalProduct, error) {
	p, err := s.repo.GetLocal(ctx, id)
	if err != nil {
		return LocalProduct{}, err
	}
	p.apply(input)
	if err := s.repo.UpdateLocal(ctx, p); err != nil {
		return LocalProduct{}, err
	}
	return p, nil
}

func (p *LocalProduct) apply(in LocalInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.SupplierID = in.SupplierID
	p.SupplierName = strings.TrimSpace(in.SupplierName)
	p.PurchasePrice = in.PurchasePrice
	p.SellingPrice = in.SellingPrice
	p.CurrentStock = in.CurrentStock
}

func (s *Service) DeleteLocal(ctx context.Context, id string) error {
	return s.repo.DeleteLocal(ctx, id)
}

// SellLocal books a sale against the matching local product. Stock may go negative.
func (s *Service) SellLocal(ctx context.Context, sale LocalSale) (LocalProduct, error) {
	if sale.Quantity <= 0 {
		return LocalProduct{}, shared.Invalid("quantity", "must be positive")
	}
	id := sale.ProductID
	if id == "" {
		p, err := s.repo.FindLocal(ctx, strings.TrimSpace(sale.Name), strings.TrimSpace(sale.SupplierName))
		if err != nil {
			return LocalProduct{}, err
		}
		id = p.ID
	}
	return s.repo.RecordSale(ctx, id, sale.Quantity)
}
