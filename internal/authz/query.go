package authz

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoCourseLink indicates that a course-membership filter was requested
// for an entity that declares no path to a course.
var ErrNoCourseLink = errors.New("authz: entity has no course link")

// Query is a filtered query under construction: a base table, joins and
// conjunctive WHERE clauses with `?` placeholders. Executing the rendered
// SQL yields exactly the rows the principal is entitled to see, so no
// second permission check is needed downstream.
type Query struct {
	table string
	joins []string
	where []string
	args  []any
}

// NewQuery starts an unfiltered query over table.
func NewQuery(table string) *Query {
	return &Query{table: table}
}

// Table returns the base table the query selects from.
func (q *Query) Table() string {
	return q.table
}

// Join appends an INNER JOIN clause.
func (q *Query) Join(table, on string) *Query {
	q.joins = append(q.joins, fmt.Sprintf("JOIN %s ON %s", table, on))
	return q
}

// Where appends a conjunctive condition. Placeholders are written as `?`
// and renumbered to `$n` when the query is rendered.
func (q *Query) Where(clause string, args ...any) *Query {
	q.where = append(q.where, clause)
	q.args = append(q.args, args...)
	return q
}

// Unfiltered reports whether the query carries no restrictions.
func (q *Query) Unfiltered() bool {
	return len(q.where) == 0 && len(q.joins) == 0
}

// SelectSQL renders a SELECT over the given column list plus an optional
// tail (ORDER BY, LIMIT), returning positional-parameter SQL and its args.
func (q *Query) SelectSQL(columns, tail string) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(columns)
	b.WriteString(" FROM ")
	b.WriteString(q.table)
	for _, join := range q.joins {
		b.WriteByte(' ')
		b.WriteString(join)
	}
	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.where, " AND "))
	}
	if tail != "" {
		b.WriteByte(' ')
		b.WriteString(tail)
	}
	return renumberPlaceholders(b.String()), q.args
}

// renumberPlaceholders rewrites `?` placeholders into pgx positional $n
// parameters, left to right.
func renumberPlaceholders(sql string) string {
	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(sql[i])
	}
	return b.String()
}

// roleList renders an IN-list of placeholders for the allowed roles.
func roleList(roles []CourseRole) (string, []any) {
	placeholders := make([]string, len(roles))
	args := make([]any, len(roles))
	for i, role := range roles {
		placeholders[i] = "?"
		args[i] = string(role)
	}
	return strings.Join(placeholders, ", "), args
}

// UserCoursesSubquery builds a subquery selecting the ids of all courses
// where the user holds a role at or above minimum. The caller embeds the
// clause in an IN filter. An unknown minimum produces a subquery matching
// nothing, which fails closed.
func UserCoursesSubquery(userID string, minimum CourseRole) (string, []any) {
	roles := AllowedRoles(minimum)
	if len(roles) == 0 {
		return "SELECT course_id FROM course_members WHERE FALSE", nil
	}
	list, args := roleList(roles)
	clause := "SELECT cm.course_id FROM course_members cm WHERE cm.user_id = ? AND cm.course_role IN (" + list + ")"
	return clause, append([]any{userID}, args...)
}

// FilterByCourseMembership scopes q to rows reachable from courses where
// the user holds at least minimum. The filter is driven entirely by the
// course link the entity declares: a direct course_id, or one hop through
// course_contents or course_members. Rows with a dangling link simply do
// not join and stay invisible.
func FilterByCourseMembership(q *Query, entity Entity, userID string, minimum CourseRole) error {
	sub, args := UserCoursesSubquery(userID, minimum)
	switch entity.Link {
	case LinkSelf:
		q.Where(entity.Table+".id IN ("+sub+")", args...)
	case LinkDirect:
		q.Where(entity.Table+".course_id IN ("+sub+")", args...)
	case LinkViaContent:
		q.Join("course_contents", entity.Table+".course_content_id = course_contents.id")
		q.Where("course_contents.course_id IN ("+sub+")", args...)
	case LinkViaMember:
		q.Join("course_members owner_cm", entity.Table+".course_member_id = owner_cm.id")
		q.Where("owner_cm.course_id IN ("+sub+")", args...)
	default:
		return fmt.Errorf("%w: %s", ErrNoCourseLink, entity.Name)
	}
	return nil
}

// FilterByOrganization scopes q to rows whose organization is reachable
// from one of the user's course memberships at or above minimum.
func FilterByOrganization(q *Query, entity Entity, userID string, minimum CourseRole) {
	column := entity.OrgColumn
	if column == "" {
		column = "organization_id"
	}
	sub, args := UserCoursesSubquery(userID, minimum)
	clause := entity.Table + "." + column + " IN (SELECT c.organization_id FROM courses c WHERE c.id IN (" + sub + "))"
	q.Where(clause, args...)
}

// FilterVisibleUsers restricts a users query to the principal itself plus
// every user sharing a course where the principal holds at least a tutor
// role: staff can see their students, students cannot see each other.
func FilterVisibleUsers(q *Query, userID string) {
	sub, args := UserCoursesSubquery(userID, RoleTutor)
	clause := "(" + q.table + ".id = ? OR " + q.table + ".id IN (SELECT cm.user_id FROM course_members cm WHERE cm.course_id IN (" + sub + ")))"
	q.Where(clause, append([]any{userID}, args...)...)
}
