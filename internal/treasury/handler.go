package treasury

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sealworks/seal-erp/internal/platform/httpx"
	"github.com/sealworks/seal-erp/internal/rbac"
	"github.com/sealworks/seal-erp/internal/shared"
)

// Handler exposes treasury endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers treasury routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/balances", h.balances)
	r.Get("/transactions", h.transactions)
	r.Post("/transactions", h.post)
	r.Post("/transfer", h.transfer)
	r.With(h.rbac.RequireAdmin()).Delete("/reset", h.reset)
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.Balances(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balances)
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txs, err := h.service.Transactions(r.Context(), r.URL.Query().Get("account_id"), limit)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txs)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var input ManualPostInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	t, err := h.service.PostManual(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var input TransferInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	result, err := h.service.Transfer(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.Message(w, r, http.StatusCreated, shared.MsgTransferCompleted, map[string]any{
		"transfer_out": result.Out,
		"transfer_in":  result.In,
	})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Reset(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.Message(w, r, http.StatusOK, shared.MsgTreasuryReset, map[string]any{"deleted_transactions": n})
}
