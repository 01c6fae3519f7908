package suppliers

import (
	"time"

	"github.com/sealworks/seal-erp/internal/shared"
)

// Supplier sells bought-in products. Balance is what the shop still owes.
type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	TotalOwed float64   `json:"total_owed"`
	TotalPaid float64   `json:"total_paid"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionType distinguishes purchases from payments.
type TransactionType string

const (
	TypePurchase TransactionType = "purchase"
	TypePayment  TransactionType = "payment"
)

// Transaction is one movement on a supplier account.
type Transaction struct {
	ID                 string          `json:"id"`
	SupplierID         string          `json:"supplier_id"`
	SupplierName       string          `json:"supplier_name"`
	Type               TransactionType `json:"type"`
	Amount             float64         `json:"amount"`
	Description        string          `json:"description"`
	ProductName        string          `json:"product_name,omitempty"`
	Quantity           int             `json:"quantity,omitempty"`
	UnitPrice          float64         `json:"unit_price,omitempty"`
	PaymentMethod      string          `json:"payment_method,omitempty"`
	ReferenceInvoiceID string          `json:"reference_invoice_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// delta is the change a transaction makes to supplier totals.
func (t Transaction) delta() (owed, paid float64) {
	if t.Type == TypePayment {
		return 0, t.Amount
	}
	return t.Amount, 0
}

// Input creates or replaces a supplier.
type Input struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address"`
}

// PurchaseInput books goods taken from a supplier. SupplierID wins over SupplierName.
type PurchaseInput struct {
	SupplierID         string
	SupplierName       string
	ProductName        string
	Quantity           int
	UnitPrice          float64
	ReferenceInvoiceID string
	Description        string
}

// PaymentInput settles part of a supplier balance.
type PaymentInput struct {
	Amount        float64 `json:"amount" validate:"gt=0"`
	PaymentMethod string  `json:"payment_method"`
	Description   string  `json:"description"`
}

// ErrNotFound is returned for unknown suppliers.
var ErrNotFound = shared.NotFound("supplier")
