package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sealworks/seal-erp/internal/audit"
	"github.com/sealworks/seal-erp/internal/auth"
	"github.com/sealworks/seal-erp/internal/catalog"
	"github.com/sealworks/seal-erp/internal/compat"
	"github.com/sealworks/seal-erp/internal/customers"
	"github.com/sealworks/seal-erp/internal/expenses"
	"github.com/sealworks/seal-erp/internal/inventory"
	"github.com/sealworks/seal-erp/internal/invoices"
	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/observability"
	"github.com/sealworks/seal-erp/internal/rbac"
	"github.com/sealworks/seal-erp/internal/suppliers"
	"github.com/sealworks/seal-erp/internal/treasury"
	"github.com/sealworks/seal-erp/internal/users"
	"github.com/sealworks/seal-erp/internal/workorders"
	"github.com/sealworks/seal-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	// Authenticate guards every route outside /api/auth/login and /healthz.
	Authenticate   func(http.Handler) http.Handler
	RBACMiddleware rbac.Middleware

	AuthHandler       *auth.Handler
	AuditHandler      *audit.Handler
	UsersHandler      *users.Handler
	InvoicesHandler   *invoices.Handler
	CustomersHandler  *customers.Handler
	SuppliersHandler  *suppliers.Handler
	CatalogHandler    *catalog.Handler
	ExpensesHandler   *expenses.Handler
	MaterialsHandler  *materials.Handler
	InventoryHandler  *inventory.Handler
	TreasuryHandler   *treasury.Handler
	WorkOrdersHandler *workorders.Handler
	CompatHandler     *compat.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	authenticate := params.Authenticate
	if authenticate == nil {
		authenticate = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", func(r chi.Router) {
				r.With(LoginRateLimit()).Group(params.AuthHandler.MountRoutes)
				r.Group(func(r chi.Router) {
					r.Use(authenticate)
					params.AuthHandler.MountProtectedRoutes(r)
				})
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(params.RBACMiddleware.RequireAny())

			if h := params.UsersHandler; h != nil {
				r.Route("/users", h.MountRoutes)
			}
			if h := params.CustomersHandler; h != nil {
				r.Route("/customers", h.MountRoutes)
			}
			if h := params.SuppliersHandler; h != nil {
				r.Route("/suppliers", h.MountRoutes)
			}
			if h := params.ExpensesHandler; h != nil {
				r.Route("/expenses", h.MountRoutes)
			}
			if h := params.MaterialsHandler; h != nil {
				r.Route("/raw-materials", h.MountRoutes)
			}
			if h := params.TreasuryHandler; h != nil {
				r.Route("/treasury", h.MountRoutes)
			}
			if h := params.WorkOrdersHandler; h != nil {
				r.Route("/work-orders", h.MountRoutes)
			}
			if h := params.InvoicesHandler; h != nil {
				r.Route("/invoices", h.MountRoutes)
				r.Route("/payments", h.MountPaymentRoutes)
			}
			if h := params.CatalogHandler; h != nil {
				r.Route("/products", h.MountProductRoutes)
				r.Route("/local-products", h.MountLocalRoutes)
			}
			if h := params.InventoryHandler; h != nil {
				r.Route("/inventory", h.MountRoutes)
				r.Route("/inventory-transactions", h.MountTransactionRoutes)
			}
			if h := params.AuditHandler; h != nil {
				r.With(params.RBACMiddleware.RequireAdmin()).Route("/audit-logs", h.MountRoutes)
			}
			if h := params.CompatHandler; h != nil {
				h.MountRoutes(r)
			}
			if h := params.JobHandler; h != nil {
				r.Route("/jobs", func(r chi.Router) {
					h.MountRoutes(r)
					r.With(params.RBACMiddleware.RequireAdmin()).Group(h.MountAdminRoutes)
				})
			}
		})
	})

	return r
}
