package orgs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// Store is the persistence surface the service depends on.
type Store interface {
	Pool() *pgxpool.Pool
	ListOrganizations(ctx context.Context, q *authz.Query) ([]Organization, error)
	GetOrganization(ctx context.Context, q *authz.Query, id string) (*Organization, error)
	CreateOrganization(ctx context.Context, name, slug string) (*Organization, error)
	ListCourseRoles(ctx context.Context, q *authz.Query) ([]RoleInfo, error)
}

// Service exposes organizations and the course role catalog. Organization
// visibility follows course membership; the catalog is readable by every
// authenticated principal and cached in memory since it changes only on
// administrative edits.
type Service struct {
	repo     Store
	registry *authz.Registry
	logger   *slog.Logger

	catalogGroup singleflight.Group
	catalogMu    sync.RWMutex
	catalog      []RoleInfo

	collator *collate.Collator
}

// NewService constructs a Service.
func NewService(repo Store, registry *authz.Registry, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		logger:   logger,
		collator: collate.New(language.English, collate.IgnoreCase),
	}
}

// ListOrganizations returns the organizations visible to the principal,
// ordered by name with locale-aware collation.
func (s *Service) ListOrganizations(ctx context.Context, p *authz.Principal) ([]Organization, error) {
	q, err := s.registry.CheckPermissions(ctx, p, EntityOrganization, authz.ActionList, s.repo.Pool())
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListOrganizations(ctx, q)
	if err != nil {
		return nil, err
	}
	s.collator.Sort(orgsByName(list))
	return list, nil
}

// GetOrganization returns one organization if visible.
func (s *Service) GetOrganization(ctx context.Context, p *authz.Principal, id string) (*Organization, error) {
	q, err := s.registry.CheckPermissions(ctx, p, EntityOrganization, authz.ActionGet, s.repo.Pool())
	if err != nil {
		return nil, err
	}
	return s.repo.GetOrganization(ctx, q, id)
}

// CreateOrganization creates an organization. Admin only.
func (s *Service) CreateOrganization(ctx context.Context, p *authz.Principal, name, slug string) (*Organization, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)
	if name == "" || slug == "" {
		return nil, fmt.Errorf("%w: organization name and slug required", shared.ErrValidation)
	}
	if !s.registry.CheckAdmin(p) {
		return nil, authz.ErrForbidden
	}
	return s.repo.CreateOrganization(ctx, name, slug)
}

// CourseRoles returns the role catalog. The first call per process loads
// it from the database behind a singleflight gate; later calls serve the
// cached copy. The permission check still runs on every call.
func (s *Service) CourseRoles(ctx context.Context, p *authz.Principal) ([]RoleInfo, error) {
	q, err := s.registry.CheckPermissions(ctx, p, EntityCourseRole, authz.ActionList, s.repo.Pool())
	if err != nil {
		return nil, err
	}

	s.catalogMu.RLock()
	cached := s.catalog
	s.catalogMu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	result, err, _ := s.catalogGroup.Do("course_roles", func() (any, error) {
		roles, err := s.repo.ListCourseRoles(ctx, q)
		if err != nil {
			return nil, err
		}
		s.catalogMu.Lock()
		s.catalog = roles
		s.catalogMu.Unlock()
		return roles, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]RoleInfo), nil
}

// InvalidateCatalog drops the cached role catalog, forcing a reload on the
// next read. Called after administrative catalog edits.
func (s *Service) InvalidateCatalog() {
	s.catalogMu.Lock()
	s.catalog = nil
	s.catalogMu.Unlock()
}

type orgsByName []Organization

func (o orgsByName) Len() int           { return len(o) }
func (o orgsByName) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }
func (o orgsByName) Bytes(i int) []byte { return []byte(o[i].Name) }
