package courses

import (
	"time"

	"github.com/lumina-lms/lumina-lms/internal/authz"
)

// Course is a unit of teaching owned by an organization.
type Course struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Archived       bool      `json:"archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CourseContent is a single material or activity inside a course.
type CourseContent struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CourseMember records one user's role in one course.
type CourseMember struct {
	ID         string           `json:"id"`
	CourseID   string           `json:"course_id"`
	UserID     string           `json:"user_id"`
	CourseRole authz.CourseRole `json:"course_role"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Entity declarations consumed by the authz registry. The course table is
// its own boundary; contents and members reach it through course_id.
var (
	EntityCourse = authz.Entity{
		Name:  "course",
		Table: "courses",
		Link:  authz.LinkSelf,
		Bases: []string{authz.CategoryCourseScoped},
	}
	EntityCourseContent = authz.Entity{
		Name:  "course_content",
		Table: "course_contents",
		Link:  authz.LinkDirect,
		Bases: []string{authz.CategoryCourseScoped},
	}
	EntityCourseMember = authz.Entity{
		Name:  "course_member",
		Table: "course_members",
		Link:  authz.LinkDirect,
		Bases: []string{authz.CategoryCourseScoped},
	}
)
