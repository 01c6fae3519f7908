package invoices

import (
	"fmt"
	"time"

	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/treasury"
)

// ProductType discriminates invoice line items.
type ProductType string

const (
	ProductManufactured ProductType = "manufactured"
	ProductLocal        ProductType = "local"
)

// Status of an invoice.
type Status string

const (
	StatusPending      Status = "pending"
	StatusPaid         Status = "paid"
	StatusPartial      Status = "partial"
	StatusUnpaid       Status = "unpaid"
	StatusCompleted    Status = "completed"
	StatusManufactured Status = "manufactured"
)

// DiscountType selects how DiscountValue is read.
type DiscountType string

const (
	DiscountAmount     DiscountType = "amount"
	DiscountPercentage DiscountType = "percentage"
)

// ParseDiscountType accepts amount, percentage or empty (amount).
func ParseDiscountType(s string) (DiscountType, error) {
	switch DiscountType(s) {
	case "", DiscountAmount:
		return DiscountAmount, nil
	case DiscountPercentage:
		return DiscountPercentage, nil
	}
	return "", &shared.ValidationError{Err: shared.ErrValidation, Field: "discount_type", Details: s, Key: shared.MsgUnsupportedDiscountType}
}

// Item is one invoice line. Exactly one of Manufactured and Local is set after Normalize.
type Item struct {
	ProductType ProductType `json:"product_type"`
	Quantity    int         `json:"quantity" validate:"gt=0"`
	UnitPrice   float64     `json:"unit_price" validate:"gte=0"`
	TotalPrice  float64     `json:"total_price" validate:"gte=0"`
	*Manufactured
	*Local
}

// Manufactured is the payload of a seal cut from raw material.
type Manufactured struct {
	SealType          string                `json:"seal_type,omitempty"`
	MaterialType      string                `json:"material_type,omitempty"`
	InnerDiameter     float64               `json:"inner_diameter,omitempty"`
	OuterDiameter     float64               `json:"outer_diameter,omitempty"`
	Height            float64               `json:"height,omitempty"`
	SelectedMaterials []materials.Selection `json:"selected_materials,omitempty"`
	MaterialDetails   *materials.Ref        `json:"material_details,omitempty"`
	MaterialUsed      string                `json:"material_used,omitempty"`
	Allocation        *materials.Outcome    `json:"allocation,omitempty"`
}

// Local is the payload of a resold bought-in product.
type Local struct {
	ProductName         string        `json:"product_name,omitempty"`
	Supplier            string        `json:"supplier,omitempty"`
	PurchasePrice       float64       `json:"purchase_price,omitempty"`
	SellingPrice        float64       `json:"selling_price,omitempty"`
	LocalProductDetails *LocalDetails `json:"local_product_details,omitempty"`
}

// LocalDetails points at the catalogue product and supplier behind a local item.
type LocalDetails struct {
	ProductID     string  `json:"product_id,omitempty"`
	Name          string  `json:"name"`
	SupplierID    string  `json:"supplier_id,omitempty"`
	Supplier      string  `json:"supplier"`
	PurchasePrice float64 `json:"purchase_price"`
	SellingPrice  float64 `json:"selling_price"`
}

// Normalize settles the variant of the item and checks its payload.
func (it *Item) Normalize() error {
	switch it.ProductType {
	case "", ProductManufactured:
		it.ProductType = ProductManufactured
		it.Local = nil
		if it.Manufactured == nil || it.Height <= 0 {
			return shared.Invalid("height", "manufactured item needs a seal height")
		}
		if it.MaterialType != "" {
			t, err := materials.ParseMaterialType(it.MaterialType)
			if err != nil {
				return err
			}
			it.MaterialType = string(t)
		}
		it.Allocation = nil
	case ProductLocal:
		it.Manufactured = nil
		if it.Local == nil {
			it.Local = &Local{}
		}
	default:
		return shared.Invalid("product_type", fmt.Sprintf("unsupported product type %q", it.ProductType))
	}
	return nil
}

// IsManufactured reports whether the item is cut from raw material.
func (it Item) IsManufactured() bool {
	return it.ProductType != ProductLocal && it.Manufactured != nil
}

// MaterialRequest translates the item into an allocation request.
func (it Item) MaterialRequest() materials.Request {
	if it.Manufactured == nil {
		return materials.Request{Quantity: it.Quantity}
	}
	return materials.Request{
		SealHeight: it.Height,
		Quantity:   it.Quantity,
		Selected:   it.SelectedMaterials,
		Details:    it.MaterialDetails,
		UnitCode:   it.MaterialUsed,
	}
}

// Consumptions returns what the item took from stock: the recorded allocation when
// present, otherwise the quantity × (height + 2) estimate.
func (it Item) Consumptions() []materials.Consumption {
	if !it.IsManufactured() {
		return nil
	}
	if it.Allocation != nil {
		return it.Allocation.Consumptions
	}
	return materials.LegacyConsumptions(it.MaterialRequest())
}

// Invoice is a sale document with its lines embedded.
type Invoice struct {
	ID                 string                 `json:"id"`
	InvoiceNumber      string                 `json:"invoice_number"`
	CustomerID         string                 `json:"customer_id,omitempty"`
	CustomerName       string                 `json:"customer_name"`
	InvoiceTitle       string                 `json:"invoice_title,omitempty"`
	SupervisorName     string                 `json:"supervisor_name,omitempty"`
	Items              []Item                 `json:"items"`
	Subtotal           float64                `json:"subtotal"`
	Discount           float64                `json:"discount"`
	DiscountType       DiscountType           `json:"discount_type"`
	DiscountValue      float64                `json:"discount_value"`
	TotalAfterDiscount float64                `json:"total_after_discount"`
	TotalAmount        float64                `json:"total_amount"`
	PaidAmount         float64                `json:"paid_amount"`
	RemainingAmount    float64                `json:"remaining_amount"`
	PaymentMethod      treasury.PaymentMethod `json:"payment_method"`
	Status             Status                 `json:"status"`
	Notes              string                 `json:"notes,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

// FormatNumber renders the n-th invoice number.
func FormatNumber(n int64) string {
	return fmt.Sprintf("INV-%06d", n)
}

// Price fills subtotal, discount and totals from the items and discount spec.
func (inv *Invoice) Price() {
	totals := make([]float64, 0, len(inv.Items))
	for _, it := range inv.Items {
		totals = append(totals, it.TotalPrice)
	}
	inv.Subtotal = shared.SumAmounts(totals...)
	if inv.DiscountType == DiscountPercentage {
		inv.Discount = shared.Percent(inv.Subtotal, inv.DiscountValue)
	} else {
		inv.Discount = shared.Round2(inv.DiscountValue)
	}
	inv.TotalAfterDiscount = shared.SumAmounts(inv.Subtotal, -inv.Discount)
	inv.TotalAmount = inv.TotalAfterDiscount
}

// ResetRemaining applies the payment-method rule: deferred invoices owe their total.
func (inv *Invoice) ResetRemaining() {
	if inv.PaymentMethod.IsDeferred() {
		inv.RemainingAmount = inv.TotalAmount
		return
	}
	inv.RemainingAmount = 0
}

// ApplyPayment records amount against the invoice.
func (inv *Invoice) ApplyPayment(amount float64) {
	inv.PaidAmount = shared.SumAmounts(inv.PaidAmount, amount)
	remaining := shared.SumAmounts(inv.TotalAmount, -inv.PaidAmount)
	if remaining <= 0 {
		inv.RemainingAmount = 0
		inv.Status = StatusPaid
		return
	}
	inv.RemainingAmount = remaining
	inv.Status = StatusPartial
}

// CreateInput is the body of POST /invoices.
type CreateInput struct {
	CustomerID     string  `json:"customer_id"`
	CustomerName   string  `json:"customer_name"`
	InvoiceTitle   string  `json:"invoice_title"`
	SupervisorName string  `json:"supervisor_name"`
	Items          []Item  `json:"items" validate:"required,min=1,dive"`
	PaymentMethod  string  `json:"payment_method" validate:"required"`
	DiscountType   string  `json:"discount_type"`
	DiscountValue  float64 `json:"discount_value" validate:"gte=0"`
	Notes          string  `json:"notes"`
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Status     Status
	CustomerID string
	Limit      int
	Offset     int
}

// StatusInput changes the invoice status by hand.
type StatusInput struct {
	Status Status `json:"status" validate:"required,oneof=pending paid partial unpaid completed manufactured"`
}

// CancelResult summarises what a cancellation undid.
type CancelResult struct {
	InvoiceNumber     string  `json:"invoice_number"`
	MaterialsRestored bool    `json:"materials_restored"`
	RestoredMM        float64 `json:"restored_mm"`
	TreasuryReversed  bool    `json:"treasury_reversed"`
	WorkOrdersUpdated int     `json:"work_orders_updated"`
}

// MethodChange summarises a payment-method conversion.
type MethodChange struct {
	MessageKey          string                 `json:"-"`
	InvoiceNumber       string                 `json:"invoice_number"`
	OldPaymentMethod    treasury.PaymentMethod `json:"old_payment_method"`
	NewPaymentMethod    treasury.PaymentMethod `json:"new_payment_method"`
	Amount              float64                `json:"amount"`
	TransactionsCreated []treasury.Transaction `json:"transactions_created"`
	RemainingAmount     float64                `json:"remaining_amount"`
	ChangedBy           string                 `json:"changed_by,omitempty"`
}

// Payment is money received against an invoice.
type Payment struct {
	ID            string                 `json:"id"`
	InvoiceID     string                 `json:"invoice_id"`
	Amount        float64                `json:"amount"`
	PaymentMethod treasury.PaymentMethod `json:"payment_method"`
	Notes         string                 `json:"notes,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// PaymentInput is the body of POST /payments.
type PaymentInput struct {
	InvoiceID     string  `json:"invoice_id" validate:"required"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
	Notes         string  `json:"notes"`
}

var (
	// ErrNotFound is returned for unknown invoice ids.
	ErrNotFound = shared.NotFound("invoice")
	// ErrInvalidAmount rejects non-positive payments.
	ErrInvalidAmount = &shared.ValidationError{Err: shared.ErrValidation, Field: "amount", Key: shared.MsgInvalidAmount}
	// ErrDeferredPayment rejects recording a payment "on credit".
	ErrDeferredPayment = &shared.ValidationError{Err: shared.ErrValidation, Field: "payment_method", Details: "a payment cannot be deferred", Key: shared.MsgUnsupportedPaymentMethod}
)
