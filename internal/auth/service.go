package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// Service wraps authentication business rules and the per-request
// principal construction.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// BuildPrincipal assembles the request-scoped principal for an
// authenticated user id: the account flags plus its claims, parsed once.
// The principal lives for exactly one request and is never persisted.
func (s *Service) BuildPrincipal(ctx context.Context, userID string) (*authz.Principal, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth: load user %s: %w", userID, err)
	}
	if !user.IsActive {
		return nil, shared.ErrUnauthenticated
	}
	pairs, err := s.repo.ListClaims(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth: load claims for %s: %w", userID, err)
	}
	return authz.NewPrincipal(user.ID, user.IsAdmin, user.Roles, authz.BuildClaims(pairs)), nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
