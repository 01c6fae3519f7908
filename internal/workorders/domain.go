package workorders

import (
	"time"

	"github.com/sealworks/seal-erp/internal/shared"
)

// Status tracks shop-floor progress.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// DateLayout formats work dates.
const DateLayout = "2006-01-02"

// WorkOrder groups invoices for production.
type WorkOrder struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	SupervisorName string         `json:"supervisor_name"`
	IsDaily        bool           `json:"is_daily"`
	WorkDate       string         `json:"work_date,omitempty"`
	Invoices       []OrderInvoice `json:"invoices"`
	TotalAmount    float64        `json:"total_amount"`
	TotalItems     int            `json:"total_items"`
	Status         Status         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// OrderInvoice is the snapshot of an invoice kept on a work order.
type OrderInvoice struct {
	InvoiceID      string      `json:"invoice_id"`
	InvoiceNumber  string      `json:"invoice_number"`
	CustomerName   string      `json:"customer_name"`
	SupervisorName string      `json:"supervisor_name,omitempty"`
	TotalAmount    float64     `json:"total_amount"`
	Items          []OrderItem `json:"items"`
	AddedAt        time.Time   `json:"added_at"`
}

// OrderItem annotates a line with the length it needs cut.
type OrderItem struct {
	ProductType           string  `json:"product_type"`
	ProductName           string  `json:"product_name,omitempty"`
	SealType              string  `json:"seal_type,omitempty"`
	MaterialType          string  `json:"material_type,omitempty"`
	InnerDiameter         float64 `json:"inner_diameter,omitempty"`
	OuterDiameter         float64 `json:"outer_diameter,omitempty"`
	Height                float64 `json:"height,omitempty"`
	Quantity              int     `json:"quantity"`
	UnitCode              string  `json:"unit_code,omitempty"`
	MaterialConsumptionMM float64 `json:"material_consumption_mm"`
}

// Add appends entry and accumulates totals.
func (w *WorkOrder) Add(entry OrderInvoice) {
	w.Invoices = append(w.Invoices, entry)
	w.TotalAmount = shared.SumAmounts(w.TotalAmount, entry.TotalAmount)
	w.TotalItems += len(entry.Items)
}

// Remove drops invoiceID and subtracts its totals. It reports whether anything changed.
func (w *WorkOrder) Remove(invoiceID string) bool {
	kept := w.Invoices[:0]
	removed := false
	for _, inv := range w.Invoices {
		if inv.InvoiceID == invoiceID {
			w.TotalAmount = shared.SumAmounts(w.TotalAmount, -inv.TotalAmount)
			w.TotalItems -= len(inv.Items)
			removed = true
			continue
		}
		kept = append(kept, inv)
	}
	w.Invoices = kept
	if w.TotalItems < 0 {
		w.TotalItems = 0
	}
	return removed
}

// CreateInput describes an ad-hoc work order.
type CreateInput struct {
	Title          string   `json:"title" validate:"required"`
	Description    string   `json:"description"`
	SupervisorName string   `json:"supervisor_name"`
	InvoiceIDs     []string `json:"invoice_ids" validate:"required,min=1"`
}

// StatusInput changes the status of an order.
type StatusInput struct {
	Status Status `json:"status" validate:"required,oneof=pending in_progress completed"`
}

// ErrNotFound is returned for unknown work orders.
var ErrNotFound = shared.NotFound("work order")
