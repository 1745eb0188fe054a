package courses

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/platform/httpx"
	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// Handler wires HTTP endpoints for courses, contents and memberships.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers course routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listCourses)
	r.Post("/", h.createCourse)
	r.Get("/{courseID}", h.getCourse)
	r.Put("/{courseID}", h.updateCourse)
	r.Post("/{courseID}/archive", h.archiveCourse)
	r.Get("/{courseID}/contents", h.listCourseContents)
	r.Post("/{courseID}/contents", h.createContent)
	r.Post("/{courseID}/members", h.addMember)
	r.Delete("/{courseID}/members/{userID}", h.removeMember)
}

func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	list, err := h.service.ListCourses(r.Context(), p)
	if err != nil {
		httpx.RespondDenialAsForbidden(w, err)
		return
	}
	page, perPage := httpx.PageParams(r)
	pg := shared.NewPagination(page, perPage, len(list))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"courses":    shared.PageSlice(list, pg),
		"pagination": pg,
	})
}

func (h *Handler) getCourse(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	course, err := h.service.GetCourse(r.Context(), p, chi.URLParam(r, "courseID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

type courseRequest struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description" validate:"max=2000"`
}

func (h *Handler) createCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	course, err := h.service.CreateCourse(r.Context(), p, req.OrganizationID, req.Title, req.Description)
	if err != nil {
		httpx.RespondDenialAsForbidden(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, course)
}

type courseUpdateRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (h *Handler) updateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	course, err := h.service.UpdateCourse(r.Context(), p, chi.URLParam(r, "courseID"), req.Title, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

func (h *Handler) archiveCourse(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.ArchiveCourse(r.Context(), p, chi.URLParam(r, "courseID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCourseContents(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	contents, err := h.service.ListCourseContents(r.Context(), p, chi.URLParam(r, "courseID"))
	if err != nil {
		httpx.RespondDenialAsForbidden(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"contents": contents})
}

type contentRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Kind     string `json:"kind" validate:"required,oneof=page quiz assignment video"`
	Position int    `json:"position" validate:"gte=0"`
}

func (h *Handler) createContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	content, err := h.service.CreateContent(r.Context(), p, chi.URLParam(r, "courseID"), req.Title, req.Kind, req.Position)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, content)
}

type memberRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	CourseRole string `json:"course_role" validate:"required"`
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p := authz.PrincipalFromContext(r.Context())
	member, err := h.service.AddMember(r.Context(), p, chi.URLParam(r, "courseID"), req.UserID, authz.CourseRole(req.CourseRole))
	if err != nil {
		if errors.Is(err, ErrDuplicateMember) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "user already enrolled")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, member)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	if err := h.service.RemoveMember(r.Context(), p, chi.URLParam(r, "courseID"), chi.URLParam(r, "userID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
