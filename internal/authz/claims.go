package authz

import "strings"

// ClaimPair is a raw claim tuple as it arrives from the identity store:
// a claim kind (the store bucket, normally "permissions") and a
// colon-delimited encoded value.
type ClaimPair struct {
	Kind  string
	Value string
}

// Claims is the parsed, immutable representation of a principal's granted
// actions. General claims apply to a resource as a whole; dependent claims
// are scoped to one resource instance. Course-role memberships are stored
// as dependent claims on the "course" resource whose values are role codes.
type Claims struct {
	general   map[string]map[string]struct{}
	dependent map[string]map[string]map[string]struct{}
}

// BuildClaims parses raw claim tuples into the general/dependent split.
// Encoding rules:
//
//	"<resource>:<action>"                general claim
//	"<resource>:<action>:<resource_id>"  dependent claim
//	"course:<role_code>:<course_id>"     course-role membership
//
// Parsing happens exactly once here; permission checks never re-parse raw
// strings. Malformed values are dropped, which fails closed.
func BuildClaims(pairs []ClaimPair) Claims {
	claims := Claims{
		general:   make(map[string]map[string]struct{}),
		dependent: make(map[string]map[string]map[string]struct{}),
	}
	for _, pair := range pairs {
		value := strings.TrimSpace(pair.Value)
		if value == "" {
			continue
		}
		parts := strings.SplitN(value, ":", 3)
		switch len(parts) {
		case 2:
			claims.addGeneral(parts[0], parts[1])
		case 3:
			claims.addDependent(parts[0], parts[2], parts[1])
		}
	}
	return claims
}

func (c *Claims) addGeneral(resource, action string) {
	if resource == "" || action == "" {
		return
	}
	actions, ok := c.general[resource]
	if !ok {
		actions = make(map[string]struct{})
		c.general[resource] = actions
	}
	actions[action] = struct{}{}
}

func (c *Claims) addDependent(resource, resourceID, value string) {
	if resource == "" || resourceID == "" || value == "" {
		return
	}
	byID, ok := c.dependent[resource]
	if !ok {
		byID = make(map[string]map[string]struct{})
		c.dependent[resource] = byID
	}
	values, ok := byID[resourceID]
	if !ok {
		values = make(map[string]struct{})
		byID[resourceID] = values
	}
	values[value] = struct{}{}
}

// HasGeneral reports whether action is granted on resource independent of
// any particular instance. A missing resource is a plain "no".
func (c Claims) HasGeneral(resource, action string) bool {
	actions, ok := c.general[resource]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}

// HasDependent reports whether value (an action, or a course-role code for
// the "course" resource) is granted on the given resource instance.
func (c Claims) HasDependent(resource, resourceID, value string) bool {
	byID, ok := c.dependent[resource]
	if !ok {
		return false
	}
	values, ok := byID[resourceID]
	if !ok {
		return false
	}
	_, ok = values[value]
	return ok
}

// HasRoleAtLeast reports whether any dependent claim value on the given
// resource instance is a course role at or above minimum.
func (c Claims) HasRoleAtLeast(resource, resourceID string, minimum CourseRole) bool {
	byID, ok := c.dependent[resource]
	if !ok {
		return false
	}
	values, ok := byID[resourceID]
	if !ok {
		return false
	}
	for value := range values {
		if RoleSatisfies(CourseRole(value), minimum) {
			return true
		}
	}
	return false
}

// CourseRoleOn returns the highest course role recorded for the given
// course instance, or false when the principal holds none.
func (c Claims) CourseRoleOn(courseID string) (CourseRole, bool) {
	byID, ok := c.dependent["course"]
	if !ok {
		return "", false
	}
	values, ok := byID[courseID]
	if !ok {
		return "", false
	}
	best := -1
	var bestRole CourseRole
	for value := range values {
		if rank, ok := courseRoleRank[CourseRole(value)]; ok && rank > best {
			best = rank
			bestRole = CourseRole(value)
		}
	}
	if best < 0 {
		return "", false
	}
	return bestRole, true
}
