package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sealworks/seal-erp/internal/catalog"
	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/suppliers"
	"github.com/sealworks/seal-erp/internal/treasury"
	"github.com/sealworks/seal-erp/internal/workorders"
)

// Repository abstracts invoice and payment persistence.
type Repository interface {
	NextNumber(ctx context.Context) (int64, error)
	Insert(ctx context.Context, inv Invoice) error
	Get(ctx context.Context, id string) (Invoice, error)
	GetMany(ctx context.Context, ids []string) ([]Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	Update(ctx context.Context, inv Invoice) error
	Delete(ctx context.Context, id string) error
	// ApplyPayment locks the invoice, lets apply mutate it, then stores it with p.
	ApplyPayment(ctx context.Context, p Payment, apply func(*Invoice) error) (Invoice, error)
	ListPayments(ctx context.Context, invoiceID string, limit int) ([]Payment, error)
}

// MaterialAllocator deducts and restores raw-material length.
type MaterialAllocator interface {
	Allocate(ctx context.Context, req materials.Request) (materials.Outcome, error)
	Restore(ctx context.Context, consumptions []materials.Consumption) (float64, error)
}

// Ledger posts treasury transactions.
type Ledger interface {
	Post(ctx context.Context, input treasury.PostInput) (treasury.Transaction, bool, error)
	Invalidate(ctx context.Context)
}

// CustomerDirectory resolves customer names.
type CustomerDirectory interface {
	CustomerName(ctx context.Context, id string) (string, error)
}

// LocalStock books sales of bought-in products.
type LocalStock interface {
	SellLocal(ctx context.Context, sale catalog.LocalSale) (catalog.LocalProduct, error)
}

// SupplierPurchases records what is owed to suppliers for resold products.
type SupplierPurchases interface {
	RecordPurchase(ctx context.Context, input suppliers.PurchaseInput) (suppliers.Transaction, error)
}

// WorkOrders keeps the shop-floor view in step with invoices.
type WorkOrders interface {
	EnrollDaily(ctx context.Context, entry workorders.OrderInvoice) (workorders.WorkOrder, error)
	Detach(ctx context.Context, invoiceID string) (int, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Observer is told about allocation shortfalls.
type Observer interface {
	ObserveAllocationShortfall(seals int)
}

// Options carries optional collaborators.
type Options struct {
	Customers  CustomerDirectory
	LocalStock LocalStock
	Suppliers  SupplierPurchases
	WorkOrders WorkOrders
	Audit      AuditPort
	Observer   Observer
	Logger     *slog.Logger
}

// Service is the invoice lifecycle manager. Create, Cancel and ChangePaymentMethod are
// sequences of independent writes; a failure part-way leaves earlier steps applied.
type Service struct {
	repo       Repository
	allocator  MaterialAllocator
	ledger     Ledger
	customers  CustomerDirectory
	localStock LocalStock
	suppliers  SupplierPurchases
	workOrders WorkOrders
	audit      AuditPort
	observer   Observer
	logger     *slog.Logger
	now        func() time.Time
}

// NewService wires the invoice lifecycle.
func NewService(repo Repository, allocator MaterialAllocator, ledger Ledger, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		allocator:  allocator,
		ledger:     ledger,
		customers:  opts.Customers,
		localStock: opts.LocalStock,
		suppliers:  opts.Suppliers,
		workOrders: opts.WorkOrders,
		audit:      opts.Audit,
		observer:   opts.Observer,
		logger:     logger,
		now:        time.Now,
	}
}

// Create prices, allocates, persists and posts a new invoice.
func (s *Service) Create(ctx context.Context, input CreateInput) (Invoice, error) {
	method, err := treasury.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return Invoice{}, err
	}
	discountType, err := ParseDiscountType(input.DiscountType)
	if err != nil {
		return Invoice{}, err
	}
	if len(input.Items) == 0 {
		return Invoice{}, shared.Invalid("items", "at least one item is required")
	}
	items := make([]Item, len(input.Items))
	for i := range input.Items {
		items[i] = input.Items[i]
		if err := items[i].Normalize(); err != nil {
			return Invoice{}, err
		}
	}
	customerName := input.CustomerName
	if input.CustomerID != "" && s.customers != nil {
		name, err := s.customers.CustomerName(ctx, input.CustomerID)
		if err != nil {
			return Invoice{}, err
		}
		if customerName == "" {
			customerName = name
		}
	}

	seq, err := s.repo.NextNumber(ctx)
	if err != nil {
		return Invoice{}, err
	}
	inv := Invoice{
		ID:             uuid.NewString(),
		InvoiceNumber:  FormatNumber(seq),
		CustomerID:     input.CustomerID,
		CustomerName:   customerName,
		InvoiceTitle:   input.InvoiceTitle,
		SupervisorName: input.SupervisorName,
		Items:          items,
		DiscountType:   discountType,
		DiscountValue:  input.DiscountValue,
		PaymentMethod:  method,
		Status:         StatusPending,
		Notes:          input.Notes,
		CreatedAt:      s.now().UTC(),
	}
	inv.Price()
	inv.ResetRemaining()

	if err := s.fulfil(ctx, &inv); err != nil {
		return Invoice{}, err
	}
	if err := s.repo.Insert(ctx, inv); err != nil {
		s.compensate(ctx, inv)
		return Invoice{}, err
	}

	if method.IsDeferred() {
		s.ledger.Invalidate(ctx)
	} else {
		s.postIncome(ctx, inv)
	}
	s.enroll(ctx, inv)
	s.logger.Info("invoice created",
		slog.String("invoice_id", inv.ID),
		slog.String("invoice_number", inv.InvoiceNumber),
		slog.Float64("total_amount", inv.TotalAmount),
		slog.String("payment_method", string(inv.PaymentMethod)))
	return inv, nil
}

// fulfil allocates material for manufactured items and books local ones. Shortfalls
// stay on the item's Allocation; storage failures undo the allocations made so far.
func (s *Service) fulfil(ctx context.Context, inv *Invoice) error {
	for i := range inv.Items {
		it := &inv.Items[i]
		if !it.IsManufactured() {
			s.sellLocal(ctx, *inv, *it)
			continue
		}
		outcome, err := s.allocator.Allocate(ctx, it.MaterialRequest())
		it.Allocation = &outcome
		if err != nil {
			s.compensate(ctx, *inv)
			return fmt.Errorf("allocate item %d: %w", i+1, err)
		}
		if outcome.ShortfallSeals > 0 {
			if s.observer != nil {
				s.observer.ObserveAllocationShortfall(outcome.ShortfallSeals)
			}
			s.logger.Warn("invoice item under-allocated",
				slog.String("invoice_id", inv.ID),
				slog.Int("item", i+1),
				slog.Int("shortfall_seals", outcome.ShortfallSeals),
				slog.Any("warnings", outcome.Warnings))
		}
	}
	return nil
}

func (s *Service) compensate(ctx context.Context, inv Invoice) {
	for _, it := range inv.Items {
		if !it.IsManufactured() || it.Allocation == nil || len(it.Allocation.Consumptions) == 0 {
			continue
		}
		if _, err := s.allocator.Restore(ctx, it.Allocation.Consumptions); err != nil {
			s.logger.Error("undo allocation", slog.String("invoice_id", inv.ID), slog.Any("error", err))
		}
	}
}

func (s *Service) sellLocal(ctx context.Context, inv Invoice, it Item) {
	if it.Local == nil || it.LocalProductDetails == nil {
		return
	}
	d := it.LocalProductDetails
	logger := s.logger.With(slog.String("invoice_id", inv.ID), slog.String("product", d.Name))
	supplierID := d.SupplierID
	if s.localStock != nil {
		product, err := s.localStock.SellLocal(ctx, catalog.LocalSale{
			ProductID:    d.ProductID,
			Name:         d.Name,
			SupplierName: d.Supplier,
			Quantity:     it.Quantity,
		})
		if err != nil {
			logger.Warn("local product sale not recorded", slog.Any("error", err))
		} else if supplierID == "" {
			supplierID = product.SupplierID
		}
	}
	if s.suppliers == nil {
		return
	}
	price := d.PurchasePrice
	if price == 0 {
		price = it.PurchasePrice
	}
	if _, err := s.suppliers.RecordPurchase(ctx, suppliers.PurchaseInput{
		SupplierID:         supplierID,
		SupplierName:       d.Supplier,
		ProductName:        d.Name,
		Quantity:           it.Quantity,
		UnitPrice:          price,
		ReferenceInvoiceID: inv.ID,
		Description:        fmt.Sprintf("بيع %s - فاتورة %s", d.Name, inv.InvoiceNumber),
	}); err != nil {
		logger.Warn("supplier purchase not recorded", slog.Any("error", err))
	}
}

func incomeKey(id string) string { return "invoice_" + id }

func (s *Service) postIncome(ctx context.Context, inv Invoice) {
	if inv.TotalAmount <= 0 {
		return
	}
	key := incomeKey(inv.ID)
	_, _, err := s.ledger.Post(ctx, treasury.PostInput{
		AccountID:      inv.PaymentMethod.Account(),
		Type:           treasury.TypeIncome,
		Amount:         inv.TotalAmount,
		Description:    "فاتورة " + inv.InvoiceNumber,
		Reference:      key,
		IdempotencyKey: key,
	})
	if err != nil {
		s.logger.Error("invoice income not posted", slog.String("invoice_id", inv.ID), slog.Any("error", err))
	}
}

func (s *Service) enroll(ctx context.Context, inv Invoice) {
	if s.workOrders == nil {
		return
	}
	if _, err := s.workOrders.EnrollDaily(ctx, OrderEntry(inv)); err != nil {
		s.logger.Warn("daily work order not updated", slog.String("invoice_id", inv.ID), slog.Any("error", err))
	}
}

// Cancel restores material, reverses the income posting and deletes the invoice.
func (s *Service) Cancel(ctx context.Context, id string) (CancelResult, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return CancelResult{}, err
	}
	result := CancelResult{InvoiceNumber: inv.InvoiceNumber}
	var restored float64
	for _, it := range inv.Items {
		consumptions := it.Consumptions()
		if len(consumptions) == 0 {
			continue
		}
		mm, err := s.allocator.Restore(ctx, consumptions)
		if err != nil {
			return CancelResult{}, fmt.Errorf("restore material: %w", err)
		}
		restored = shared.SumAmounts(restored, mm)
	}
	result.RestoredMM = restored
	result.MaterialsRestored = restored > 0

	if !inv.PaymentMethod.IsDeferred() && inv.TotalAmount > 0 {
		key := "invoice_cancel_" + inv.ID
		_, posted, err := s.ledger.Post(ctx, treasury.PostInput{
			AccountID:      inv.PaymentMethod.Account(),
			Type:           treasury.TypeExpense,
			Amount:         inv.TotalAmount,
			Description:    "إلغاء فاتورة " + inv.InvoiceNumber,
			Reference:      key,
			IdempotencyKey: key,
		})
		if err != nil {
			return CancelResult{}, fmt.Errorf("reverse treasury: %w", err)
		}
		result.TreasuryReversed = posted
	}

	if err := s.repo.Delete(ctx, inv.ID); err != nil {
		return CancelResult{}, err
	}
	if inv.PaymentMethod.IsDeferred() {
		s.ledger.Invalidate(ctx)
	}
	if s.workOrders != nil {
		n, err := s.workOrders.Detach(ctx, inv.ID)
		if err != nil {
			s.logger.Warn("work orders not updated after cancel", slog.String("invoice_id", inv.ID), slog.Any("error", err))
		}
		result.WorkOrdersUpdated = n
	}
	s.record(ctx, "invoice:cancel", inv.ID, map[string]any{
		"invoice_number":    inv.InvoiceNumber,
		"restored_mm":       restored,
		"treasury_reversed": result.TreasuryReversed,
	})
	return result, nil
}

// ChangePaymentMethod re-posts the invoice total between treasury accounts and
// stores the new method. The method on file is taken as authoritative.
func (s *Service) ChangePaymentMethod(ctx context.Context, id, newMethod, username string) (MethodChange, error) {
	target, err := treasury.ParsePaymentMethod(newMethod)
	if err != nil {
		return MethodChange{}, err
	}
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return MethodChange{}, err
	}
	changedBy := username
	if changedBy == "" {
		changedBy = shared.ActorName(ctx, "")
	}
	result := MethodChange{
		MessageKey:          shared.MsgPaymentMethodChanged,
		InvoiceNumber:       inv.InvoiceNumber,
		OldPaymentMethod:    inv.PaymentMethod,
		NewPaymentMethod:    target,
		Amount:              inv.TotalAmount,
		TransactionsCreated: []treasury.Transaction{},
		RemainingAmount:     inv.RemainingAmount,
		ChangedBy:           changedBy,
	}
	old := inv.PaymentMethod
	if old == target {
		result.MessageKey = shared.MsgPaymentMethodUnchanged
		return result, nil
	}

	desc := fmt.Sprintf("تغيير طريقة دفع فاتورة %s من %s إلى %s", inv.InvoiceNumber, old, target)
	if changedBy != "" {
		desc += " بواسطة " + changedBy
	}
	post := func(account treasury.AccountID, t treasury.TransactionType) error {
		if inv.TotalAmount <= 0 {
			return nil
		}
		tx, _, err := s.ledger.Post(ctx, treasury.PostInput{
			AccountID:   account,
			Type:        t,
			Amount:      inv.TotalAmount,
			Description: desc,
			Reference:   "invoice_method_" + inv.ID,
		})
		if err != nil {
			return err
		}
		result.TransactionsCreated = append(result.TransactionsCreated, tx)
		return nil
	}
	if !old.IsDeferred() {
		if err := post(old.Account(), treasury.TypeExpense); err != nil {
			return MethodChange{}, err
		}
	}
	if !target.IsDeferred() {
		if err := post(target.Account(), treasury.TypeIncome); err != nil {
			return MethodChange{}, err
		}
	}

	inv.PaymentMethod = target
	inv.ResetRemaining()
	if err := s.repo.Update(ctx, inv); err != nil {
		s.logger.Error("payment method posted but invoice not updated",
			slog.String("invoice_id", inv.ID), slog.Any("error", err))
		return MethodChange{}, err
	}
	s.ledger.Invalidate(ctx)
	result.RemainingAmount = inv.RemainingAmount
	s.record(ctx, "invoice:change_payment_method", inv.ID, map[string]any{
		"old": string(old), "new": string(target), "amount": inv.TotalAmount, "by": changedBy,
	})
	return result, nil
}

// RecordPayment applies a payment to an invoice and posts it to treasury. Payments
// against deferred invoices also post an expense on the deferred account.
func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (Payment, error) {
	if input.Amount <= 0 {
		return Payment{}, ErrInvalidAmount
	}
	method, err := treasury.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return Payment{}, err
	}
	if method.IsDeferred() {
		return Payment{}, ErrDeferredPayment
	}
	p := Payment{
		ID:            uuid.NewString(),
		InvoiceID:     input.InvoiceID,
		Amount:        shared.Round2(input.Amount),
		PaymentMethod: method,
		Notes:         input.Notes,
		CreatedAt:     s.now().UTC(),
	}
	inv, err := s.repo.ApplyPayment(ctx, p, func(inv *Invoice) error {
		inv.ApplyPayment(p.Amount)
		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	key := "payment_" + p.ID
	_, posted, err := s.ledger.Post(ctx, treasury.PostInput{
		AccountID:      method.Account(),
		Type:           treasury.TypeIncome,
		Amount:         p.Amount,
		Description:    "دفعة على فاتورة " + inv.InvoiceNumber,
		Reference:      key,
		IdempotencyKey: key,
	})
	if err != nil {
		return Payment{}, fmt.Errorf("post payment income: %w", err)
	}
	if posted && inv.PaymentMethod.IsDeferred() {
		if _, _, err := s.ledger.Post(ctx, treasury.PostInput{
			AccountID:   treasury.AccountDeferred,
			Type:        treasury.TypeExpense,
			Amount:      p.Amount,
			Description: "تحصيل آجل فاتورة " + inv.InvoiceNumber,
			Reference:   key + "_deferred",
		}); err != nil {
			return Payment{}, fmt.Errorf("post deferred settlement: %w", err)
		}
	}
	s.logger.Info("payment recorded",
		slog.String("invoice_id", inv.ID),
		slog.Float64("amount", p.Amount),
		slog.String("status", string(inv.Status)))
	return p, nil
}

// UpdateStatus sets the invoice status by hand.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	inv.Status = status
	if err := s.repo.Update(ctx, inv); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// List returns invoices newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	return s.repo.List(ctx, filter)
}

// Get loads one invoice.
func (s *Service) Get(ctx context.Context, id string) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// Payments lists payments, optionally for one invoice.
func (s *Service) Payments(ctx context.Context, invoiceID string, limit int) ([]Payment, error) {
	return s.repo.ListPayments(ctx, invoiceID, limit)
}

func (s *Service) record(ctx context.Context, action, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorName(ctx, "system"),
		Action:   action,
		Entity:   "invoice",
		EntityID: id,
		Meta:     meta,
		At:       s.now().UTC(),
	}); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("audit invoice", slog.String("action", action), slog.Any("error", err))
	}
}
