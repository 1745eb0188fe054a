// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. A
// permission denial surfaces as 404 by default so resource existence does
// not leak; RespondDenialAsForbidden is available for endpoints where the
// resource is already public knowledge.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, authz.ErrForbidden):
		Problem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// RespondDenialAsForbidden is RespondError with denials surfaced as 403.
func RespondDenialAsForbidden(w http.ResponseWriter, err error) {
	if errors.Is(err, authz.ErrForbidden) {
		Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	RespondError(w, err)
}
