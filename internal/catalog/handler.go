package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sealworks/seal-erp/internal/platform/httpx"
	"github.com/sealworks/seal-erp/internal/shared"
)

// Handler exposes finished and local product endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountProductRoutes registers finished-product routes.
func (h *Handler) MountProductRoutes(r chi.Router) {
	r.Get("/", h.listProducts)
	r.Post("/", h.createProduct)
	r.Get("/{id}", h.getProduct)
	r.Put("/{id}", h.updateProduct)
	r.Delete("/{id}", h.deleteProduct)
}

// MountLocalRoutes registers local-product routes.
func (h *Handler) MountLocalRoutes(r chi.Router) {
	r.Get("/", h.listLocal)
	r.Post("/", h.createLocal)
	r.Get("/{id}", h.getLocal)
	r.Put("/{id}", h.updateLocal)
	r.Delete("/{id}", h.deleteLocal)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListProducts(r.Context(), shared.ParseListFilters(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if items == nil {
		items = []Product{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.Message(w, r, http.StatusOK, shared.MsgDeleted, nil)
}

func (h *Handler) listLocal(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListLocal(r.Context(), shared.ParseListFilters(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if items == nil {
		items = []LocalProduct{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createLocal(w http.ResponseWriter, r *http.Request) {
	var input LocalInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	p, err := h.service.CreateLocal(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) getLocal(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetLocal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) updateLocal(w http.ResponseWriter, r *http.Request) {
	var input LocalInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	p, err := h.service.UpdateLocal(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteLocal(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteLocal(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.Message(w, r, http.StatusOK, shared.MsgDeleted, nil)
}
