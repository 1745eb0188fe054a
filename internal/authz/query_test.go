package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryRendering(t *testing.T) {
	q := NewQuery("courses")
	q.Where("courses.archived = ?", false)
	q.Where("courses.organization_id = ?", "org-1")

	sql, args := q.SelectSQL("courses.id, courses.title", "ORDER BY courses.title")
	assert.Equal(t, "SELECT courses.id, courses.title FROM courses WHERE courses.archived = $1 AND courses.organization_id = $2 ORDER BY courses.title", sql)
	assert.Equal(t, []any{false, "org-1"}, args)
}

func TestQueryUnfiltered(t *testing.T) {
	q := NewQuery("courses")
	assert.True(t, q.Unfiltered())
	sql, args := q.SelectSQL("*", "")
	assert.Equal(t, "SELECT * FROM courses", sql)
	assert.Empty(t, args)

	q.Where("id = ?", "x")
	assert.False(t, q.Unfiltered())
}

func TestUserCoursesSubquery(t *testing.T) {
	sub, args := UserCoursesSubquery("user-1", RoleLecturer)
	assert.Equal(t, "SELECT cm.course_id FROM course_members cm WHERE cm.user_id = ? AND cm.course_role IN (?, ?, ?)", sub)
	assert.Equal(t, []any{"user-1", "_lecturer", "_maintainer", "_owner"}, args)
}

func TestUserCoursesSubqueryUnknownRoleMatchesNothing(t *testing.T) {
	sub, args := UserCoursesSubquery("user-1", CourseRole("bogus"))
	assert.Equal(t, "SELECT course_id FROM course_members WHERE FALSE", sub)
	assert.Empty(t, args)
}

func TestFilterByCourseMembershipDirect(t *testing.T) {
	entity := Entity{Name: "course_content", Table: "course_contents", Link: LinkDirect}
	q := NewQuery(entity.Table)
	require.NoError(t, FilterByCourseMembership(q, entity, "user-1", RoleStudent))

	sql, args := q.SelectSQL("course_contents.id", "")
	assert.Contains(t, sql, "course_contents.course_id IN (SELECT cm.course_id FROM course_members cm")
	assert.Equal(t, "user-1", args[0])
	assert.Len(t, args, 6) // user id plus five allowed roles
}

func TestFilterByCourseMembershipSelf(t *testing.T) {
	entity := Entity{Name: "course", Table: "courses", Link: LinkSelf}
	q := NewQuery(entity.Table)
	require.NoError(t, FilterByCourseMembership(q, entity, "user-1", RoleTutor))

	sql, _ := q.SelectSQL("courses.id", "")
	assert.Contains(t, sql, "courses.id IN (SELECT cm.course_id FROM course_members cm")
}

func TestFilterByCourseMembershipViaContent(t *testing.T) {
	entity := Entity{Name: "submission", Table: "submissions", Link: LinkViaContent}
	q := NewQuery(entity.Table)
	require.NoError(t, FilterByCourseMembership(q, entity, "user-1", RoleTutor))

	sql, _ := q.SelectSQL("submissions.id", "")
	assert.Contains(t, sql, "JOIN course_contents ON submissions.course_content_id = course_contents.id")
	assert.Contains(t, sql, "course_contents.course_id IN (")
}

func TestFilterByCourseMembershipViaMember(t *testing.T) {
	entity := Entity{Name: "progress_record", Table: "progress_records", Link: LinkViaMember}
	q := NewQuery(entity.Table)
	require.NoError(t, FilterByCourseMembership(q, entity, "user-1", RoleTutor))

	sql, _ := q.SelectSQL("progress_records.id", "")
	assert.Contains(t, sql, "JOIN course_members owner_cm ON progress_records.course_member_id = owner_cm.id")
	assert.Contains(t, sql, "owner_cm.course_id IN (")
}

func TestFilterByCourseMembershipNoLink(t *testing.T) {
	entity := Entity{Name: "widget", Table: "widgets", Link: LinkNone}
	err := FilterByCourseMembership(NewQuery(entity.Table), entity, "user-1", RoleStudent)
	assert.ErrorIs(t, err, ErrNoCourseLink)
}

func TestFilterVisibleUsers(t *testing.T) {
	q := NewQuery("users")
	FilterVisibleUsers(q, "user-1")

	sql, args := q.SelectSQL("users.id", "")
	assert.Contains(t, sql, "users.id = $1")
	assert.Contains(t, sql, "SELECT cm.user_id FROM course_members cm")
	// Self id, subquery user id, then the tutor-and-above role codes.
	assert.Equal(t, "user-1", args[0])
	assert.Equal(t, "user-1", args[1])
	assert.Contains(t, args, "_tutor")
	assert.NotContains(t, args, "_student")
}

func TestFilterByOrganization(t *testing.T) {
	entity := Entity{Name: "organizations", Table: "organizations", OrgColumn: "id"}
	q := NewQuery(entity.Table)
	FilterByOrganization(q, entity, "user-1", RoleStudent)

	sql, args := q.SelectSQL("organizations.id", "")
	assert.Contains(t, sql, "organizations.id IN (SELECT c.organization_id FROM courses c")
	assert.Equal(t, "user-1", args[0])
}

func TestFilterByOrganizationDefaultColumn(t *testing.T) {
	entity := Entity{Name: "org_announcement", Table: "org_announcements"}
	q := NewQuery(entity.Table)
	FilterByOrganization(q, entity, "user-1", RoleStudent)

	sql, _ := q.SelectSQL("org_announcements.id", "")
	assert.Contains(t, sql, "org_announcements.organization_id IN (")
}
