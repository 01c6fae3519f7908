package compat

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sealworks/seal-erp/internal/platform/httpx"
)

// Handler exposes the compatibility check.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers POST /compatibility-check.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/compatibility-check", h.check)
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	var q Query
	if err := httpx.DecodeJSON(w, r, &q); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	res, err := h.service.Search(r.Context(), q)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
