// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/sealworks/seal-erp/internal/shared"
)

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// HideInternalDetail suppresses raw error text on 500 responses. Set once at startup.
var HideInternalDetail bool

// RespondError writes err as an RFC7807 problem with a localized message.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError && HideInternalDetail {
		detail = ""
	}
	lang := shared.LanguageFromRequest(r)
	Problem(w, status, http.StatusText(status), detail, shared.Translate(lang, shared.MessageKeyFor(err)))
}
