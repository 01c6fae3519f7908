// Package rbac gates handlers on the role of the authenticated principal.
package rbac

import (
	"log/slog"
	"net/http"

	"github.com/sealworks/seal-erp/internal/platform/httpx"
	"github.com/sealworks/seal-erp/internal/shared"
)

// Middleware wires role authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current principal holds at least one of roles.
// With no roles any authenticated principal passes.
func (m Middleware) RequireAny(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := shared.PrincipalFromContext(r.Context())
			if p == nil {
				httpx.RespondError(w, r, shared.ErrUnauthorized)
				return
			}
			if hasAnyRole(p.Role, roles) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac denied", slog.String("user", p.Username), slog.String("role", string(p.Role)), slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, r, shared.ErrForbidden)
		})
	}
}

// RequireAdmin is RequireAny(shared.RoleAdmin).
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return m.RequireAny(shared.RoleAdmin)
}

func hasAnyRole(granted shared.Role, required []shared.Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == granted {
			return true
		}
	}
	return false
}
