package courses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/platform/db"
	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// ErrDuplicateMember indicates the user already holds a role in the course.
var ErrDuplicateMember = errors.New("courses: duplicate course member")

// Repository provides PostgreSQL backed persistence. Listing and lookup
// paths execute pre-scoped authz queries, so every row they return is
// permitted by construction.
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

const courseColumns = `courses.id, courses.organization_id, courses.title, courses.description, courses.archived, courses.created_at, courses.updated_at`

// ListCourses executes the scoped query and returns the visible courses.
func (r *Repository) ListCourses(ctx context.Context, q *authz.Query) ([]Course, error) {
	sql, args := q.SelectSQL(courseColumns, "ORDER BY courses.title")
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Title, &c.Description, &c.Archived, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCourse narrows the scoped query to one id. A row outside the scope is
// indistinguishable from a missing row.
func (r *Repository) GetCourse(ctx context.Context, q *authz.Query, id string) (*Course, error) {
	q.Where("courses.id = ?", id)
	sql, args := q.SelectSQL(courseColumns, "LIMIT 1")
	var c Course
	err := r.pool.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.OrganizationID, &c.Title, &c.Description, &c.Archived, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateCourse inserts a new course.
func (r *Repository) CreateCourse(ctx context.Context, organizationID, title, description string) (*Course, error) {
	id := uuid.NewString()
	var c Course
	err := r.pool.QueryRow(ctx, `
INSERT INTO courses (id, organization_id, title, description, archived, created_at, updated_at)
VALUES ($1, $2, $3, $4, FALSE, NOW(), NOW())
RETURNING `+courseColumns, id, organizationID, title, description).
		Scan(&c.ID, &c.OrganizationID, &c.Title, &c.Description, &c.Archived, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCourse updates title and description.
func (r *Repository) UpdateCourse(ctx context.Context, id, title, description string) (*Course, error) {
	var c Course
	err := r.pool.QueryRow(ctx, `
UPDATE courses SET title = $2, description = $3, updated_at = NOW()
WHERE id = $1
RETURNING `+courseColumns, id, title, description).
		Scan(&c.ID, &c.OrganizationID, &c.Title, &c.Description, &c.Archived, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ArchiveCourse marks a course archived.
func (r *Repository) ArchiveCourse(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE courses SET archived = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const contentColumns = `course_contents.id, course_contents.course_id, course_contents.title, course_contents.kind, course_contents.position, course_contents.created_at, course_contents.updated_at`

// ListContents executes the scoped query over course contents.
func (r *Repository) ListContents(ctx context.Context, q *authz.Query) ([]CourseContent, error) {
	sql, args := q.SelectSQL(contentColumns, "ORDER BY course_contents.position")
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CourseContent
	for rows.Next() {
		var cc CourseContent
		if err := rows.Scan(&cc.ID, &cc.CourseID, &cc.Title, &cc.Kind, &cc.Position, &cc.CreatedAt, &cc.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

// GetContent narrows the scoped query to one content id.
func (r *Repository) GetContent(ctx context.Context, q *authz.Query, id string) (*CourseContent, error) {
	q.Where("course_contents.id = ?", id)
	sql, args := q.SelectSQL(contentColumns, "LIMIT 1")
	var cc CourseContent
	err := r.pool.QueryRow(ctx, sql, args...).Scan(&cc.ID, &cc.CourseID, &cc.Title, &cc.Kind, &cc.Position, &cc.CreatedAt, &cc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cc, nil
}

// CreateContent inserts content into a course.
func (r *Repository) CreateContent(ctx context.Context, courseID, title, kind string, position int) (*CourseContent, error) {
	id := uuid.NewString()
	var cc CourseContent
	err := r.pool.QueryRow(ctx, `
INSERT INTO course_contents (id, course_id, title, kind, position, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
RETURNING `+contentColumns, id, courseID, title, kind, position).
		Scan(&cc.ID, &cc.CourseID, &cc.Title, &cc.Kind, &cc.Position, &cc.CreatedAt, &cc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cc, nil
}

// UpdateContentTitle renames one content row.
func (r *Repository) UpdateContentTitle(ctx context.Context, id, title string) (*CourseContent, error) {
	var cc CourseContent
	err := r.pool.QueryRow(ctx, `
UPDATE course_contents SET title = $2, updated_at = NOW()
WHERE id = $1
RETURNING `+contentColumns, id, title).
		Scan(&cc.ID, &cc.CourseID, &cc.Title, &cc.Kind, &cc.Position, &cc.CreatedAt, &cc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cc, nil
}

// AddMember records a user's role in a course.
func (r *Repository) AddMember(ctx context.Context, courseID, userID string, role authz.CourseRole) (*CourseMember, error) {
	id := uuid.NewString()
	var m CourseMember
	err := r.pool.QueryRow(ctx, `
INSERT INTO course_members (id, course_id, user_id, course_role, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING id, course_id, user_id, course_role, created_at`,
		id, courseID, userID, string(role)).
		Scan(&m.ID, &m.CourseID, &m.UserID, &m.CourseRole, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_course_members_course_user" {
			return nil, ErrDuplicateMember
		}
		return nil, err
	}
	return &m, nil
}

// RemoveMember deletes a membership row and revokes the user's personal
// grants on the course and its contents in the same transaction.
func (r *Repository) RemoveMember(ctx context.Context, courseID, userID string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM course_members WHERE course_id = $1 AND user_id = $2`, courseID, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM user_claims
			WHERE user_id = $1
			  AND (split_part(value, ':', 3) = $2
			   OR split_part(value, ':', 3) IN (SELECT id::text FROM course_contents WHERE course_id = $2))`,
			userID, courseID); err != nil {
			return err
		}
		return nil
	})
}
