package auth

import (
	"net/http"
	"strings"

	"github.com/sealworks/seal-erp/internal/platform/httpx"
	"github.com/sealworks/seal-erp/internal/shared"
)

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, TokenType) {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate rejects requests without a valid bearer token and stores the
// principal on the request context.
func (s *Service) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := BearerToken(r)
		if raw == "" {
			httpx.RespondError(w, r, shared.ErrUnauthorized)
			return
		}
		p, err := s.Verify(r.Context(), raw)
		if err != nil {
			httpx.RespondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), p)))
	})
}
