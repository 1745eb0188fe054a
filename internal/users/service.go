package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// Store is the persistence surface the service depends on.
type Store interface {
	Pool() *pgxpool.Pool
	ListUsers(ctx context.Context, q *authz.Query) ([]User, error)
	GetUser(ctx context.Context, q *authz.Query, id string) (*User, error)
	UpdateProfile(ctx context.Context, id, displayName string) (*User, error)
}

// Service exposes the user directory. Visibility follows course
// co-membership: a principal sees itself plus the participants of courses
// where it holds at least a tutor role.
type Service struct {
	repo     Store
	registry *authz.Registry
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Store, registry *authz.Registry, logger *slog.Logger) *Service {
	return &Service{repo: repo, registry: registry, logger: logger}
}

// ListUsers returns every user visible to the principal.
func (s *Service) ListUsers(ctx context.Context, p *authz.Principal) ([]User, error) {
	q, err := s.registry.CheckPermissions(ctx, p, EntityUser, authz.ActionList, s.repo.Pool())
	if err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx, q)
}

// GetUser returns one user if visible; anyone outside the principal's
// courses reads as not found.
func (s *Service) GetUser(ctx context.Context, p *authz.Principal, id string) (*User, error) {
	q, err := s.registry.CheckPermissions(ctx, p, EntityUser, authz.ActionGet, s.repo.Pool())
	if err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, q, id)
}

// UpdateProfile changes a user's display name. Only the user itself, or an
// admin, may do so.
func (s *Service) UpdateProfile(ctx context.Context, p *authz.Principal, id, displayName string) (*User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name required", shared.ErrValidation)
	}
	if !s.registry.CanPerform(p, EntityUser, authz.ActionUpdate, id) {
		return nil, authz.ErrForbidden
	}
	return s.repo.UpdateProfile(ctx, id, displayName)
}
