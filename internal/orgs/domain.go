package orgs

import (
	"time"

	"github.com/lumina-lms/lumina-lms/internal/authz"
)

// Organization groups courses under one institution or department.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleInfo is one row of the course role catalog. The catalog is
// administratively managed reference data; rank mirrors the role ordering
// used by permission checks.
type RoleInfo struct {
	Code        string `json:"code"`
	Rank        int    `json:"rank"`
	Description string `json:"description"`
}

// Entity declarations consumed by the authz registry. The organizations
// table scopes by its own id rather than a foreign key, hence OrgColumn.
var (
	EntityOrganization = authz.Entity{
		Name:      "organizations",
		Table:     "organizations",
		OrgColumn: "id",
		Bases:     []string{authz.CategoryOrgScoped},
	}
	EntityCourseRole = authz.Entity{
		Name:  "course_role",
		Table: "course_roles",
		Bases: []string{authz.CategoryReadOnly},
	}
)
