package invoices

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sealworks/seal-erp/internal/platform/httpx"
	"github.com/sealworks/seal-erp/internal/shared"
)

// Handler exposes invoice and payment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}/status", h.updateStatus)
	r.Delete("/{id}/cancel", h.cancel)
	r.Put("/{id}/change-payment-method", h.changePaymentMethod)
}

// MountPaymentRoutes registers payment routes.
func (h *Handler) MountPaymentRoutes(r chi.Router) {
	r.Get("/", h.payments)
	r.Post("/", h.recordPayment)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := shared.ParseListFilters(r)
	invoices, err := h.service.List(r.Context(), ListFilter{
		Status:     Status(q.Get("status")),
		CustomerID: q.Get("customer_id"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if supervisor := r.URL.Query().Get("supervisor_name"); supervisor != "" {
		input.SupervisorName = supervisor
	}
	inv, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var input StatusInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	inv, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), input.Status)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.Message(w, r, http.StatusOK, shared.MsgInvoiceCancelled, map[string]any{
		"invoice_number":      result.InvoiceNumber,
		"materials_restored":  result.MaterialsRestored,
		"restored_mm":         result.RestoredMM,
		"treasury_reversed":   result.TreasuryReversed,
		"work_orders_updated": result.WorkOrdersUpdated,
	})
}

func (h *Handler) changePaymentMethod(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.service.ChangePaymentMethod(r.Context(), chi.URLParam(r, "id"), q.Get("new_payment_method"), q.Get("username"))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.Message(w, r, http.StatusOK, result.MessageKey, map[string]any{
		"invoice_number":       result.InvoiceNumber,
		"old_payment_method":   result.OldPaymentMethod,
		"new_payment_method":   result.NewPaymentMethod,
		"amount":               result.Amount,
		"transactions_created": result.TransactionsCreated,
		"remaining_amount":     result.RemainingAmount,
		"changed_by":           result.ChangedBy,
	})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var input PaymentInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	p, err := h.service.RecordPayment(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) payments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	payments, err := h.service.Payments(r.Context(), r.URL.Query().Get("invoice_id"), limit)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}
