package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// Repository provides PostgreSQL backed persistence. Read paths execute
// pre-scoped authz queries, so every row they return is permitted by
// construction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Pool exposes the underlying pool for query building.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

const userColumns = `users.id, users.email, users.display_name, users.is_active, users.created_at, users.updated_at`

// ListUsers executes the scoped query and returns the visible users.
func (r *Repository) ListUsers(ctx context.Context, q *authz.Query) ([]User, error) {
	sql, args := q.SelectSQL(userColumns, "ORDER BY users.display_name, users.id")
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUser narrows the scoped query to one id. A user outside the scope is
// indistinguishable from a missing one.
func (r *Repository) GetUser(ctx context.Context, q *authz.Query, id string) (*User, error) {
	q.Where("users.id = ?", id)
	sql, args := q.SelectSQL(userColumns, "LIMIT 1")
	var u User
	err := r.pool.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Email, &u.DisplayName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateProfile updates the mutable profile fields of one user row.
func (r *Repository) UpdateProfile(ctx context.Context, id, displayName string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET display_name = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, email, display_name, is_active, created_at, updated_at`,
		id, displayName,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
