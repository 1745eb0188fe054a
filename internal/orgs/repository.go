package orgs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
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

const orgColumns = `organizations.id, organizations.name, organizations.slug, organizations.created_at, organizations.updated_at`

// ListOrganizations executes the scoped query and returns the visible
// organizations. Ordering is left to the caller.
func (r *Repository) ListOrganizations(ctx context.Context, q *authz.Query) ([]Organization, error) {
	sql, args := q.SelectSQL(orgColumns, "")
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetOrganization narrows the scoped query to one id.
func (r *Repository) GetOrganization(ctx context.Context, q *authz.Query, id string) (*Organization, error) {
	q.Where("organizations.id = ?", id)
	sql, args := q.SelectSQL(orgColumns, "LIMIT 1")
	var o Organization
	err := r.pool.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// CreateOrganization inserts a new organization.
func (r *Repository) CreateOrganization(ctx context.Context, name, slug string) (*Organization, error) {
	id := uuid.NewString()
	var o Organization
	err := r.pool.QueryRow(ctx, `
		INSERT INTO organizations (id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, name, slug, created_at, updated_at`,
		id, name, slug,
	).Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListCourseRoles returns the role catalog through the scoped query.
func (r *Repository) ListCourseRoles(ctx context.Context, q *authz.Query) ([]RoleInfo, error) {
	sql, args := q.SelectSQL("course_roles.code, course_roles.rank, course_roles.description", "ORDER BY course_roles.rank")
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RoleInfo
	for rows.Next() {
		var ri RoleInfo
		if err := rows.Scan(&ri.Code, &ri.Rank, &ri.Description); err != nil {
			return nil, err
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}
