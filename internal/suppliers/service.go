package suppliers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/treasury"
)

// Repository abstracts supplier persistence.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Supplier, error)
	Get(ctx context.Context, id string) (Supplier, error)
	FindByName(ctx context.Context, name string) (Supplier, error)
	Insert(ctx context.Context, s Supplier) error
	Update(ctx context.Context, s Supplier) error
	Delete(ctx context.Context, id string) error
	// Apply stores t and moves the supplier totals by it in one transaction.
	Apply(ctx context.Context, t Transaction) (Supplier, error)
	ListTransactions(ctx context.Context, supplierID string, limit int) ([]Transaction, error)
}

// Ledger posts supplier payments to treasury.
type Ledger interface {
	Post(ctx context.Context, input treasury.PostInput) (treasury.Transaction, bool, error)
}

// Service manages suppliers and their running balance.
type Service struct {
	repo   Repository
	ledger Ledger
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. ledger may be nil.
func NewService(repo Repository, ledger Ledger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: ledger, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input Input) (Supplier, error) {
	sup := Supplier{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Phone:     strings.TrimSpace(input.Phone),
		Address:   input.Address,
		CreatedAt: s.now().UTC(),
	}
	if sup.Name == "" {
		return Supplier{}, shared.Invalid("name", "required")
	}
	if err := s.repo.Insert(ctx, sup); err != nil {
		return Supplier{}, err
	}
	return sup, nil
}

func (s *Service) Update(ctx context.Context, id string, input Input) (Supplier, error) {
	sup, err := s.repo.Get(ctx, id)
	if err != nil {
		return Supplier{}, err
	}
	sup.Name = strings.TrimSpace(input.Name)
	sup.Phone = strings.TrimSpace(input.Phone)
	sup.Address = input.Address
	if sup.Name == "" {
		return Supplier{}, shared.Invalid("name", "required")
	}
	if err := s.repo.Update(ctx, sup); err != nil {
		return Supplier{}, err
	}
	return sup, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Transactions lists a supplier's movements newest first.
func (s *Service) Transactions(ctx context.Context, supplierID string, limit int) ([]Transaction, error) {
	if _, err := s.repo.Get(ctx, supplierID); err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, supplierID, limit)
}

func (s *Service) resolve(ctx context.Context, id, name string) (Supplier, error) {
	if id != "" {
		return s.repo.Get(ctx, id)
	}
	if strings.TrimSpace(name) == "" {
		return Supplier{}, shared.Invalid("supplier", "supplier id or name required")
	}
	return s.repo.FindByName(ctx, strings.TrimSpace(name))
}

// RecordPurchase adds purchase_price × quantity to what the shop owes the supplier.
func (s *Service) RecordPurchase(ctx context.Context, input PurchaseInput) (Transaction, error) {
	if input.Quantity <= 0 {
		return Transaction{}, shared.Invalid("quantity", "must be positive")
	}
	sup, err := s.resolve(ctx, input.SupplierID, input.SupplierName)
	if err != nil {
		return Transaction{}, err
	}
	amount := shared.Round2(input.UnitPrice * float64(input.Quantity))
	desc := input.Description
	if desc == "" {
		desc = fmt.Sprintf("شراء %d × %s", input.Quantity, input.ProductName)
	}
	t := Transaction{
		ID:                 uuid.NewString(),
		SupplierID:         sup.ID,
		SupplierName:       sup.Name,
		Type:               TypePurchase,
		Amount:             amount,
		Description:        desc,
		ProductName:        input.ProductName,
		Quantity:           input.Quantity,
		UnitPrice:          input.UnitPrice,
		ReferenceInvoiceID: input.ReferenceInvoiceID,
		CreatedAt:          s.now().UTC(),
	}
	if _, err := s.repo.Apply(ctx, t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// RecordPayment lowers the supplier balance and, when the method maps to a cash
// account, posts the matching treasury expense.
func (s *Service) RecordPayment(ctx context.Context, supplierID string, input PaymentInput) (Transaction, error) {
	if input.Amount <= 0 {
		return Transaction{}, &shared.ValidationError{Err: shared.ErrValidation, Field: "amount", Key: shared.MsgInvalidAmount}
	}
	var method treasury.PaymentMethod
	if input.PaymentMethod != "" {
		m, err := treasury.ParsePaymentMethod(input.PaymentMethod)
		if err != nil {
			return Transaction{}, err
		}
		method = m
	}
	sup, err := s.repo.Get(ctx, supplierID)
	if err != nil {
		return Transaction{}, err
	}
	desc := input.Description
	if desc == "" {
		desc = "دفعة للمورد " + sup.Name
	}
	t := Transaction{
		ID:            uuid.NewString(),
		SupplierID:    sup.ID,
		SupplierName:  sup.Name,
		Type:          TypePayment,
		Amount:        shared.Round2(input.Amount),
		Description:   desc,
		PaymentMethod: string(method),
		CreatedAt:     s.now().UTC(),
	}
	if _, err := s.repo.Apply(ctx, t); err != nil {
		return Transaction{}, err
	}
	if s.ledger != nil && method != "" && !method.IsDeferred() {
		key := "supplier_payment_" + t.ID
		if _, _, err := s.ledger.Post(ctx, treasury.PostInput{
			AccountID:      method.Account(),
			Type:           treasury.TypeExpense,
			Amount:         t.Amount,
			Description:    desc,
			Reference:      key,
			IdempotencyKey: key,
		}); err != nil {
			s.logger.Error("supplier payment not posted to treasury", slog.String("supplier_id", sup.ID), slog.Any("error", err))
		}
	}
	return t, nil
}
