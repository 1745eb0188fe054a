package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testPrincipal(admin bool, pairs ...ClaimPair) *Principal {
	return NewPrincipal("user-1", admin, []string{"member"}, BuildClaims(pairs))
}

func TestPermittedAdminAlwaysWins(t *testing.T) {
	p := testPrincipal(true)
	assert.True(t, p.Permitted("course", "delete"))
	assert.True(t, p.Permitted("anything", "whatever", OnResource("x")))
	assert.True(t, p.Permitted("course", "get", OnResource("c-1"), WithMinimumRole(RoleOwner)))
}

func TestPermittedGeneralClaims(t *testing.T) {
	p := testPrincipal(false,
		ClaimPair{Kind: "permissions", Value: "organizations:list"},
	)
	assert.True(t, p.Permitted("organizations", "list"))
	assert.False(t, p.Permitted("organizations", "create"))
	assert.False(t, p.Permitted("users", "list"))
}

func TestPermittedDependentClaimsDoNotLeakAcrossIDs(t *testing.T) {
	p := testPrincipal(false,
		ClaimPair{Kind: "permissions", Value: "course_content:update:cc-1"},
	)
	assert.True(t, p.Permitted("course_content", "update", OnResource("cc-1")))
	assert.False(t, p.Permitted("course_content", "update", OnResource("cc-2")))
	assert.False(t, p.Permitted("course_content", "update"), "instance grant is not a general grant")
}

func TestPermittedMinimumRole(t *testing.T) {
	p := testPrincipal(false,
		ClaimPair{Kind: "permissions", Value: "course:_tutor:course-abc"},
	)
	assert.True(t, p.Permitted("course", "get", OnResource("course-abc"), WithMinimumRole(RoleStudent)))
	assert.True(t, p.Permitted("course", "get", OnResource("course-abc"), WithMinimumRole(RoleTutor)))
	assert.False(t, p.Permitted("course", "get", OnResource("course-abc"), WithMinimumRole(RoleLecturer)))
	assert.False(t, p.Permitted("course", "get", OnResource("course-other"), WithMinimumRole(RoleStudent)))
}

func TestPermittedIdempotent(t *testing.T) {
	p := testPrincipal(false,
		ClaimPair{Kind: "permissions", Value: "course:_lecturer:c-9"},
		ClaimPair{Kind: "permissions", Value: "organizations:list"},
	)
	for i := 0; i < 3; i++ {
		assert.True(t, p.Permitted("organizations", "list"))
		assert.True(t, p.Permitted("course", "update", OnResource("c-9"), WithMinimumRole(RoleLecturer)))
		assert.False(t, p.Permitted("course", "update", OnResource("c-9"), WithMinimumRole(RoleOwner)))
	}
}

func TestPermittedNilPrincipal(t *testing.T) {
	var p *Principal
	assert.False(t, p.Permitted("course", "get"))
}
