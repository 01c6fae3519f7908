package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealworks/seal-erp/internal/shared"
)

func serve(t *testing.T, p *shared.Principal) int {
	t.Helper()
	h := Middleware{}.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodDelete, "/api/treasury/reset", nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireAdmin(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, serve(t, nil))
	require.Equal(t, http.StatusForbidden, serve(t, &shared.Principal{Username: "clerk", Role: shared.RoleUser}))
	require.Equal(t, http.StatusNoContent, serve(t, &shared.Principal{Username: "owner", Role: shared.RoleAdmin}))
}

func TestRequireAnyWithoutRoles(t *testing.T) {
	h := Middleware{}.RequireAny()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{Role: shared.RoleUser}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
