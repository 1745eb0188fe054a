package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/platform/httpx"
	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// PrincipalLoader builds the request principal from the session and
// attaches it to the request context. Routes behind RequirePrincipal see a
// non-nil principal or never run at all.
type PrincipalLoader struct {
	Service *Service
	Logger  *slog.Logger
}

// Middleware loads the principal for authenticated sessions. Requests
// without a logged-in session pass through without a principal; the
// fail-closed decision paths treat that as denied.
func (l PrincipalLoader) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		userID := strings.TrimSpace(sess.User())
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := l.Service.BuildPrincipal(r.Context(), userID)
		if err != nil {
			if l.Logger != nil {
				l.Logger.Error("build principal", slog.String("user_id", userID), slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequirePrincipal rejects requests that carry no principal.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authz.PrincipalFromContext(r.Context()) == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
