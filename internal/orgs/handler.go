package orgs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/platform/httpx"
)

// Handler wires HTTP endpoints for organizations and the role catalog.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers organization routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listOrganizations)
	r.Post("/", h.createOrganization)
	r.Get("/{orgID}", h.getOrganization)
}

// MountCatalogRoutes registers the course role catalog routes.
func (h *Handler) MountCatalogRoutes(r chi.Router) {
	r.Get("/", h.listCourseRoles)
}

func (h *Handler) listOrganizations(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	list, err := h.service.ListOrganizations(r.Context(), p)
	if err != nil {
		httpx.RespondDenialAsForbidden(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"organizations": list})
}

func (h *Handler) getOrganization(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	org, err := h.service.GetOrganization(r.Context(), p, chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, org)
}

type organizationRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required,max=80,lowercase"`
}

func (h *Handler) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	org, err := h.service.CreateOrganization(r.Context(), p, req.Name, req.Slug)
	if err != nil {
		httpx.RespondDenialAsForbidden(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, org)
}

func (h *Handler) listCourseRoles(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	roles, err := h.service.CourseRoles(r.Context(), p)
	if err != nil {
		httpx.RespondDenialAsForbidden(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"course_roles": roles})
}
