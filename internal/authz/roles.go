package authz

// CourseRole is a named privilege level scoped to a single course. Role
// codes carry an underscore prefix to mark them as system-reserved values
// in the claims store.
type CourseRole string

const (
	RoleStudent    CourseRole = "_student"
	RoleTutor      CourseRole = "_tutor"
	RoleLecturer   CourseRole = "_lecturer"
	RoleMaintainer CourseRole = "_maintainer"
	RoleOwner      CourseRole = "_owner"
)

// courseRoleOrder lists all course roles from lowest to highest privilege.
// The ordering is total: every pair of known roles is comparable.
var courseRoleOrder = []CourseRole{
	RoleStudent,
	RoleTutor,
	RoleLecturer,
	RoleMaintainer,
	RoleOwner,
}

var courseRoleRank = func() map[CourseRole]int {
	ranks := make(map[CourseRole]int, len(courseRoleOrder))
	for i, role := range courseRoleOrder {
		ranks[role] = i
	}
	return ranks
}()

// CourseRoles returns all known course roles ordered from lowest to
// highest privilege.
func CourseRoles() []CourseRole {
	roles := make([]CourseRole, len(courseRoleOrder))
	copy(roles, courseRoleOrder)
	return roles
}

// ValidCourseRole reports whether code names a known course role.
func ValidCourseRole(code string) bool {
	_, ok := courseRoleRank[CourseRole(code)]
	return ok
}

// AllowedRoles returns every course role at or above minimum. An unknown
// minimum yields an empty set: nothing satisfies a role the hierarchy does
// not know about.
func AllowedRoles(minimum CourseRole) []CourseRole {
	rank, ok := courseRoleRank[minimum]
	if !ok {
		return nil
	}
	allowed := make([]CourseRole, 0, len(courseRoleOrder)-rank)
	for _, role := range courseRoleOrder[rank:] {
		allowed = append(allowed, role)
	}
	return allowed
}

// RoleSatisfies reports whether role is at or above minimum in the
// hierarchy. Unknown role codes on either side never satisfy anything.
func RoleSatisfies(role, minimum CourseRole) bool {
	roleRank, ok := courseRoleRank[role]
	if !ok {
		return false
	}
	minRank, ok := courseRoleRank[minimum]
	if !ok {
		return false
	}
	return roleRank >= minRank
}
