package authz

// Action names an operation a principal may attempt on an entity.
type Action string

const (
	ActionList    Action = "list"
	ActionGet     Action = "get"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionArchive Action = "archive"
)

// ReadAction reports whether action only observes state.
func ReadAction(action Action) bool {
	return action == ActionList || action == ActionGet
}

// CourseLink describes how an entity's table reaches its owning course.
// The link drives the generic membership filter; entities never declare
// bespoke joins.
type CourseLink int

const (
	// LinkNone marks entities with no course boundary.
	LinkNone CourseLink = iota
	// LinkSelf marks the course table itself: the row id is the course id.
	LinkSelf
	// LinkDirect marks entities carrying a course_id column.
	LinkDirect
	// LinkViaContent marks entities one hop away through course_content_id.
	LinkViaContent
	// LinkViaMember marks entities one hop away through course_member_id.
	LinkViaMember
)

// Entity declares the authorization-relevant shape of one entity type:
// its canonical resource name (stable lowercase identifier matching the
// table/type name), its table, how it links to a course, and the category
// chain consulted when no handler is registered under the exact name.
type Entity struct {
	Name  string
	Table string
	Link  CourseLink
	Bases []string

	// OrgColumn names the column holding the owning organization id for
	// organization-scoped entities. Empty means "organization_id"; the
	// organizations table itself sets "id".
	OrgColumn string
}

// Category names used for registry fallback resolution.
const (
	CategoryCourseScoped = "course_scoped"
	CategoryOrgScoped    = "organization_scoped"
	CategoryReadOnly     = "read_only"
)

// ActionRoles maps each action to the minimum course role it requires.
// Handlers consult this table instead of hard-coding thresholds, so new
// entity types reuse it unchanged.
type ActionRoles map[Action]CourseRole

// DefaultCourseThresholds is the standard threshold table for
// course-scoped entities: members may read, teaching staff may write,
// maintainers may delete.
func DefaultCourseThresholds() ActionRoles {
	return ActionRoles{
		ActionList:    RoleStudent,
		ActionGet:     RoleStudent,
		ActionCreate:  RoleLecturer,
		ActionUpdate:  RoleLecturer,
		ActionArchive: RoleLecturer,
		ActionDelete:  RoleMaintainer,
	}
}

// MinimumRole returns the role threshold for action. A missing entry means
// the action is not available to non-admins at all.
func (t ActionRoles) MinimumRole(action Action) (CourseRole, bool) {
	role, ok := t[action]
	return role, ok
}
