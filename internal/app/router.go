package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lumina-lms/lumina-lms/internal/auth"
	"github.com/lumina-lms/lumina-lms/internal/courses"
	"github.com/lumina-lms/lumina-lms/internal/observability"
	"github.com/lumina-lms/lumina-lms/internal/orgs"
	"github.com/lumina-lms/lumina-lms/internal/shared"
	"github.com/lumina-lms/lumina-lms/internal/users"
	"github.com/lumina-lms/lumina-lms/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthService    *auth.Service
	AuthHandler    *auth.Handler
	CoursesHandler *courses.Handler
	UsersHandler   *users.Handler
	OrgsHandler    *orgs.Handler
	JobsHandler    *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Lumina defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	loader := auth.PrincipalLoader{Service: params.AuthService, Logger: params.Logger}
	r.Group(func(r chi.Router) {
		r.Use(loader.Middleware)
		r.Use(auth.RequirePrincipal)

		r.Route("/courses", params.CoursesHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/orgs", params.OrgsHandler.MountRoutes)
		r.Route("/course-roles", params.OrgsHandler.MountCatalogRoutes)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
