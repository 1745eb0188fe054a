package authz

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler decides permissions and builds scoped queries for one entity
// type or category. Implementations are stateless: every call is a pure
// function of the principal, the entity and the action.
type Handler interface {
	// CanPerform is the single yes/no gate used for non-listing
	// operations on one instance. It must be side-effect free.
	CanPerform(p *Principal, entity Entity, action Action, resourceID string) bool

	// BuildQuery returns a query scoped so that every row it can return
	// is permitted for action. It returns ErrForbidden when the action is
	// fundamentally unavailable to the principal, as opposed to merely
	// matching no rows right now.
	BuildQuery(ctx context.Context, p *Principal, entity Entity, action Action, db *pgxpool.Pool) (*Query, error)
}

// CourseScopedHandler covers the course table itself and every entity with
// a direct or transitive course link. Thresholds are table-driven so new
// entity types reuse the same rules.
type CourseScopedHandler struct {
	thresholds ActionRoles
}

// NewCourseScopedHandler builds a handler around the given threshold
// table. Pass DefaultCourseThresholds() unless an entity category needs
// stricter rules.
func NewCourseScopedHandler(thresholds ActionRoles) *CourseScopedHandler {
	return &CourseScopedHandler{thresholds: thresholds}
}

func (h *CourseScopedHandler) CanPerform(p *Principal, entity Entity, action Action, resourceID string) bool {
	if p == nil {
		return false
	}
	if p.Admin {
		return true
	}
	minimum, ok := h.thresholds.MinimumRole(action)
	if !ok {
		return false
	}
	if entity.Link == LinkSelf && resourceID != "" {
		return p.Permitted(entity.Name, string(action), OnResource(resourceID), WithMinimumRole(minimum))
	}
	if resourceID != "" && p.Permitted(entity.Name, string(action), OnResource(resourceID)) {
		return true
	}
	return p.Permitted(entity.Name, string(action))
}

func (h *CourseScopedHandler) BuildQuery(ctx context.Context, p *Principal, entity Entity, action Action, db *pgxpool.Pool) (*Query, error) {
	q := NewQuery(entity.Table)
	if p != nil && p.Admin {
		return q, nil
	}
	if p == nil {
		return nil, ErrForbidden
	}
	if p.Permitted(entity.Name, string(action)) {
		// A general claim grants the action across the whole resource.
		return q, nil
	}
	minimum, ok := h.thresholds.MinimumRole(action)
	if !ok {
		return nil, ErrForbidden
	}
	if err := FilterByCourseMembership(q, entity, p.UserID, minimum); err != nil {
		return nil, err
	}
	return q, nil
}

// OrgScopedHandler covers entities whose natural visibility boundary is
// the organization reachable from a course membership rather than one
// course.
type OrgScopedHandler struct {
	thresholds ActionRoles
}

// NewOrgScopedHandler builds an organization-scoped handler.
func NewOrgScopedHandler(thresholds ActionRoles) *OrgScopedHandler {
	return &OrgScopedHandler{thresholds: thresholds}
}

func (h *OrgScopedHandler) CanPerform(p *Principal, entity Entity, action Action, resourceID string) bool {
	if p == nil {
		return false
	}
	if p.Admin {
		return true
	}
	if _, ok := h.thresholds.MinimumRole(action); !ok {
		return false
	}
	if resourceID != "" && p.Permitted(entity.Name, string(action), OnResource(resourceID)) {
		return true
	}
	return p.Permitted(entity.Name, string(action))
}

func (h *OrgScopedHandler) BuildQuery(ctx context.Context, p *Principal, entity Entity, action Action, db *pgxpool.Pool) (*Query, error) {
	q := NewQuery(entity.Table)
	if p != nil && p.Admin {
		return q, nil
	}
	if p == nil {
		return nil, ErrForbidden
	}
	if p.Permitted(entity.Name, string(action)) {
		return q, nil
	}
	minimum, ok := h.thresholds.MinimumRole(action)
	if !ok {
		return nil, ErrForbidden
	}
	FilterByOrganization(q, entity, p.UserID, minimum)
	return q, nil
}

// UserVisibilityHandler scopes the users table: a principal always sees
// itself, plus every user it shares a course with where it holds at least
// a tutor role. Mutations are limited to the principal's own row.
type UserVisibilityHandler struct{}

// NewUserVisibilityHandler builds the users handler.
func NewUserVisibilityHandler() *UserVisibilityHandler {
	return &UserVisibilityHandler{}
}

func (h *UserVisibilityHandler) CanPerform(p *Principal, entity Entity, action Action, resourceID string) bool {
	if p == nil {
		return false
	}
	if p.Admin {
		return true
	}
	switch action {
	case ActionList, ActionGet:
		return true
	case ActionUpdate:
		return resourceID != "" && resourceID == p.UserID
	default:
		return p.Permitted(entity.Name, string(action))
	}
}

func (h *UserVisibilityHandler) BuildQuery(ctx context.Context, p *Principal, entity Entity, action Action, db *pgxpool.Pool) (*Query, error) {
	q := NewQuery(entity.Table)
	if p != nil && p.Admin {
		return q, nil
	}
	if p == nil {
		return nil, ErrForbidden
	}
	switch action {
	case ActionList, ActionGet:
		FilterVisibleUsers(q, p.UserID)
		return q, nil
	case ActionUpdate:
		q.Where(entity.Table+".id = ?", p.UserID)
		return q, nil
	default:
		if p.Permitted(entity.Name, string(action)) {
			return q, nil
		}
		return nil, ErrForbidden
	}
}

// ReadOnlyHandler grants read actions to every authenticated principal and
// reserves all mutations for admins. Used for small administratively
// managed reference tables such as the course role catalog.
type ReadOnlyHandler struct{}

// NewReadOnlyHandler builds the reference-table handler.
func NewReadOnlyHandler() *ReadOnlyHandler {
	return &ReadOnlyHandler{}
}

func (h *ReadOnlyHandler) CanPerform(p *Principal, entity Entity, action Action, resourceID string) bool {
	if p == nil {
		return false
	}
	if p.Admin {
		return true
	}
	return ReadAction(action)
}

func (h *ReadOnlyHandler) BuildQuery(ctx context.Context, p *Principal, entity Entity, action Action, db *pgxpool.Pool) (*Query, error) {
	if p == nil {
		return nil, ErrForbidden
	}
	if p.Admin || ReadAction(action) {
		return NewQuery(entity.Table), nil
	}
	return nil, ErrForbidden
}

// AdminOnlyHandler is the fail-closed default: every action requires an
// admin. The registry falls back to it for entity types with no registered
// handler and no matching category.
type AdminOnlyHandler struct{}

// NewAdminOnlyHandler builds the default handler.
func NewAdminOnlyHandler() *AdminOnlyHandler {
	return &AdminOnlyHandler{}
}

func (h *AdminOnlyHandler) CanPerform(p *Principal, entity Entity, action Action, resourceID string) bool {
	return p != nil && p.Admin
}

func (h *AdminOnlyHandler) BuildQuery(ctx context.Context, p *Principal, entity Entity, action Action, db *pgxpool.Pool) (*Query, error) {
	if p != nil && p.Admin {
		return NewQuery(entity.Table), nil
	}
	return nil, ErrForbidden
}
