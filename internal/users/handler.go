package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/platform/httpx"
	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// Handler wires HTTP endpoints for the user directory.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers user routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Get("/{userID}", h.getUser)
	r.Put("/{userID}", h.updateProfile)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	list, err := h.service.ListUsers(r.Context(), p)
	if err != nil {
		httpx.RespondDenialAsForbidden(w, err)
		return
	}
	page, perPage := httpx.PageParams(r)
	pg := shared.NewPagination(page, perPage, len(list))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users":      shared.PageSlice(list, pg),
		"pagination": pg,
	})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	user, err := h.service.GetUser(r.Context(), p, chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type profileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=120"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	user, err := h.service.UpdateProfile(r.Context(), p, chi.URLParam(r, "userID"), req.DisplayName)
	if err != nil {
		httpx.RespondDenialAsForbidden(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
