package authz

import "sync"

// Principal is the authenticated caller's identity plus its authorization
// claims. It is constructed once per request after authentication succeeds,
// never persisted, and read-only for the lifetime of the request.
type Principal struct {
	UserID string
	Admin  bool
	Roles  []string
	Claims Claims

	mu   sync.Mutex
	memo map[permitKey]bool
}

// NewPrincipal constructs a request-scoped principal. roles is the set of
// named system roles, carried for logging and diagnostics only; decisions
// are made from claims.
func NewPrincipal(userID string, admin bool, roles []string, claims Claims) *Principal {
	return &Principal{
		UserID: userID,
		Admin:  admin,
		Roles:  roles,
		Claims: claims,
	}
}

type permitKey struct {
	resource    string
	action      string
	resourceID  string
	minimumRole CourseRole
}

// PermitOption narrows a Permitted check to a resource instance or a
// minimum course role.
type PermitOption func(*permitKey)

// OnResource scopes the check to one resource instance.
func OnResource(resourceID string) PermitOption {
	return func(k *permitKey) { k.resourceID = resourceID }
}

// WithMinimumRole requires a course role at or above minimum on the
// resource instance.
func WithMinimumRole(minimum CourseRole) PermitOption {
	return func(k *permitKey) { k.minimumRole = minimum }
}

// Permitted decides whether the principal may perform action on resource.
// Decision order:
//
//  1. Admins are always permitted.
//  2. With a minimum role and a resource id, any dependent claim value on
//     (resource, id) that is a role at or above the minimum permits.
//  3. With only a resource id, the action must appear in the dependent
//     claim bucket for (resource, id).
//  4. Otherwise the action must appear in the general claims for resource.
//
// Absence of a claim at any level is a plain "no"; Permitted never fails.
// Results are memoized for the lifetime of the principal, which is one
// request.
func (p *Principal) Permitted(resource, action string, opts ...PermitOption) bool {
	if p == nil {
		return false
	}
	if p.Admin {
		return true
	}

	key := permitKey{resource: resource, action: action}
	for _, opt := range opts {
		opt(&key)
	}

	p.mu.Lock()
	if cached, ok := p.memo[key]; ok {
		p.mu.Unlock()
		return cached
	}
	p.mu.Unlock()

	allowed := p.decide(key)

	p.mu.Lock()
	if p.memo == nil {
		p.memo = make(map[permitKey]bool)
	}
	p.memo[key] = allowed
	p.mu.Unlock()
	return allowed
}

func (p *Principal) decide(key permitKey) bool {
	switch {
	case key.minimumRole != "" && key.resourceID != "":
		return p.Claims.HasRoleAtLeast(key.resource, key.resourceID, key.minimumRole)
	case key.resourceID != "":
		return p.Claims.HasDependent(key.resource, key.resourceID, key.action)
	default:
		return p.Claims.HasGeneral(key.resource, key.action)
	}
}
