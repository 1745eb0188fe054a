package courses

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// AuditRecorder captures the audit surface the service needs.
type AuditRecorder interface {
	RecordDenial(ctx context.Context, actorID, entity, action string) error
}

// Store is the persistence surface the service depends on. *Repository is
// the PostgreSQL implementation; tests substitute an in-memory stub.
type Store interface {
	Pool() *pgxpool.Pool
	ListCourses(ctx context.Context, q *authz.Query) ([]Course, error)
	GetCourse(ctx context.Context, q *authz.Query, id string) (*Course, error)
	CreateCourse(ctx context.Context, organizationID, title, description string) (*Course, error)
	UpdateCourse(ctx context.Context, id, title, description string) (*Course, error)
	ArchiveCourse(ctx context.Context, id string) error
	ListContents(ctx context.Context, q *authz.Query) ([]CourseContent, error)
	GetContent(ctx context.Context, q *authz.Query, id string) (*CourseContent, error)
	CreateContent(ctx context.Context, courseID, title, kind string, position int) (*CourseContent, error)
	UpdateContentTitle(ctx context.Context, id, title string) (*CourseContent, error)
	AddMember(ctx context.Context, courseID, userID string, role authz.CourseRole) (*CourseMember, error)
	RemoveMember(ctx context.Context, courseID, userID string) error
}

// ClaimsRefreshEnqueuer schedules a background sweep of stale permission
// claims after roster changes.
type ClaimsRefreshEnqueuer interface {
	EnqueueClaimsRefresh(ctx context.Context, courseID string) error
}

// Service orchestrates course operations. Every read path goes through a
// registry-scoped query; every mutation passes a single-action gate first.
type Service struct {
	repo     Store
	registry *authz.Registry
	audit    AuditRecorder
	refresh  ClaimsRefreshEnqueuer
	logger   *slog.Logger
}

// NewService constructs a Service. audit may be nil.
func NewService(repo Store, registry *authz.Registry, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, registry: registry, audit: audit, logger: logger}
}

// SetClaimsRefresher wires the background queue. Without it roster changes
// still succeed; the periodic sweep catches up later.
func (s *Service) SetClaimsRefresher(r ClaimsRefreshEnqueuer) {
	s.refresh = r
}

func (s *Service) deny(ctx context.Context, p *authz.Principal, entity authz.Entity, action authz.Action) error {
	if s.audit != nil {
		actorID := ""
		if p != nil {
			actorID = p.UserID
		}
		if err := s.audit.RecordDenial(ctx, actorID, entity.Name, string(action)); err != nil && s.logger != nil {
			s.logger.Warn("record denial", slog.Any("error", err))
		}
	}
	return authz.ErrForbidden
}

// ListCourses returns every course the principal may see.
func (s *Service) ListCourses(ctx context.Context, p *authz.Principal) ([]Course, error) {
	q, err := s.registry.CheckPermissions(ctx, p, EntityCourse, authz.ActionList, s.repo.Pool())
	if err != nil {
		return nil, err
	}
	return s.repo.ListCourses(ctx, q)
}

// GetCourse returns one course if visible; a course outside the
// principal's scope reads as not found so its existence never leaks.
func (s *Service) GetCourse(ctx context.Context, p *authz.Principal, id string) (*Course, error) {
	q, err := s.registry.CheckPermissions(ctx, p, EntityCourse, authz.ActionGet, s.repo.Pool())
	if err != nil {
		return nil, err
	}
	return s.repo.GetCourse(ctx, q, id)
}

// CreateCourse creates a course inside an organization. Reserved for
// admins and principals holding a general create claim.
func (s *Service) CreateCourse(ctx context.Context, p *authz.Principal, organizationID, title, description string) (*Course, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: course title required", shared.ErrValidation)
	}
	if !s.registry.CheckAdmin(p) && !p.Permitted(EntityCourse.Name, string(authz.ActionCreate)) {
		return nil, s.deny(ctx, p, EntityCourse, authz.ActionCreate)
	}
	return s.repo.CreateCourse(ctx, organizationID, title, description)
}

// UpdateCourse updates course metadata for lecturers and above.
func (s *Service) UpdateCourse(ctx context.Context, p *authz.Principal, id, title, description string) (*Course, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: course title required", shared.ErrValidation)
	}
	if !s.registry.CanPerform(p, EntityCourse, authz.ActionUpdate, id) {
		return nil, s.deny(ctx, p, EntityCourse, authz.ActionUpdate)
	}
	return s.repo.UpdateCourse(ctx, id, title, description)
}

// ArchiveCourse archives a course for lecturers and above.
func (s *Service) ArchiveCourse(ctx context.Context, p *authz.Principal, id string) error {
	if !s.registry.CanPerform(p, EntityCourse, authz.ActionArchive, id) {
		return s.deny(ctx, p, EntityCourse, authz.ActionArchive)
	}
	return s.repo.ArchiveCourse(ctx, id)
}

// ListContents returns the course contents visible to the principal,
// across all their courses.
func (s *Service) ListContents(ctx context.Context, p *authz.Principal) ([]CourseContent, error) {
	q, err := s.registry.CheckPermissions(ctx, p, EntityCourseContent, authz.ActionList, s.repo.Pool())
	if err != nil {
		return nil, err
	}
	return s.repo.ListContents(ctx, q)
}

// ListCourseContents narrows the scoped content listing to one course.
func (s *Service) ListCourseContents(ctx context.Context, p *authz.Principal, courseID string) ([]CourseContent, error) {
	q, err := s.registry.CheckPermissions(ctx, p, EntityCourseContent, authz.ActionList, s.repo.Pool())
	if err != nil {
		return nil, err
	}
	q.Where("course_contents.course_id = ?", courseID)
	return s.repo.ListContents(ctx, q)
}

// GetContent returns one content row if visible.
func (s *Service) GetContent(ctx context.Context, p *authz.Principal, id string) (*CourseContent, error) {
	q, err := s.registry.CheckPermissions(ctx, p, EntityCourseContent, authz.ActionGet, s.repo.Pool())
	if err != nil {
		return nil, err
	}
	return s.repo.GetContent(ctx, q, id)
}

// CreateContent adds content to a course. The gate is the owning course:
// creating content requires the create threshold role there.
func (s *Service) CreateContent(ctx context.Context, p *authz.Principal, courseID, title, kind string, position int) (*CourseContent, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: content title required", shared.ErrValidation)
	}
	if !s.registry.CanPerform(p, EntityCourse, authz.ActionCreate, courseID) {
		return nil, s.deny(ctx, p, EntityCourseContent, authz.ActionCreate)
	}
	return s.repo.CreateContent(ctx, courseID, title, kind, position)
}

// UpdateContent updates one content row. Permitted through an instance
// claim on the content or the update threshold role on its course.
func (s *Service) UpdateContent(ctx context.Context, p *authz.Principal, id, title string) (*CourseContent, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: content title required", shared.ErrValidation)
	}
	// A row outside the principal's scope reads as not found here, so
	// existence never leaks through the update path either.
	content, err := s.GetContent(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !s.registry.CanPerform(p, EntityCourseContent, authz.ActionUpdate, id) &&
		!s.registry.CanPerform(p, EntityCourse, authz.ActionUpdate, content.CourseID) {
		return nil, s.deny(ctx, p, EntityCourseContent, authz.ActionUpdate)
	}
	return s.repo.UpdateContentTitle(ctx, id, title)
}

// AddMember enrols a user into a course with a role. Requires the update
// threshold role on the course; the role code must be a known course role.
func (s *Service) AddMember(ctx context.Context, p *authz.Principal, courseID, userID string, role authz.CourseRole) (*CourseMember, error) {
	if !authz.ValidCourseRole(string(role)) {
		return nil, fmt.Errorf("%w: unknown course role %q", shared.ErrValidation, role)
	}
	if !s.registry.CanPerform(p, EntityCourse, authz.ActionUpdate, courseID) {
		return nil, s.deny(ctx, p, EntityCourseMember, authz.ActionCreate)
	}
	return s.repo.AddMember(ctx, courseID, userID, role)
}

// RemoveMember removes a user from a course.
func (s *Service) RemoveMember(ctx context.Context, p *authz.Principal, courseID, userID string) error {
	if !s.registry.CanPerform(p, EntityCourse, authz.ActionUpdate, courseID) {
		return s.deny(ctx, p, EntityCourseMember, authz.ActionDelete)
	}
	if err := s.repo.RemoveMember(ctx, courseID, userID); err != nil {
		return err
	}
	if s.refresh != nil {
		if err := s.refresh.EnqueueClaimsRefresh(ctx, courseID); err != nil && s.logger != nil {
			s.logger.Warn("enqueue claims refresh", slog.Any("error", err))
		}
	}
	return nil
}
