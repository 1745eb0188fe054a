package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildClaimsSplit(t *testing.T) {
	claims := BuildClaims([]ClaimPair{
		{Kind: "permissions", Value: "organizations:list"},
		{Kind: "permissions", Value: "user:get"},
		{Kind: "permissions", Value: "course_content:update:cc-1"},
		{Kind: "permissions", Value: "course:_tutor:course-abc"},
	})

	assert.True(t, claims.HasGeneral("organizations", "list"))
	assert.True(t, claims.HasGeneral("user", "get"))
	assert.False(t, claims.HasGeneral("organizations", "create"))
	assert.False(t, claims.HasGeneral("course_content", "update"), "dependent claim must not leak into general")

	assert.True(t, claims.HasDependent("course_content", "cc-1", "update"))
	assert.False(t, claims.HasDependent("course_content", "cc-2", "update"))
	assert.True(t, claims.HasDependent("course", "course-abc", "_tutor"))
}

func TestBuildClaimsMalformedValuesDropped(t *testing.T) {
	claims := BuildClaims([]ClaimPair{
		{Kind: "permissions", Value: ""},
		{Kind: "permissions", Value: "   "},
		{Kind: "permissions", Value: "noseparator"},
		{Kind: "permissions", Value: ":list"},
		{Kind: "permissions", Value: "user:"},
		{Kind: "permissions", Value: "user::u-1"},
	})

	assert.False(t, claims.HasGeneral("noseparator", ""))
	assert.False(t, claims.HasGeneral("", "list"))
	assert.False(t, claims.HasGeneral("user", ""))
	assert.False(t, claims.HasDependent("user", "u-1", ""))
}

func TestClaimsRoleComparisons(t *testing.T) {
	claims := BuildClaims([]ClaimPair{
		{Kind: "permissions", Value: "course:_tutor:course-abc"},
		{Kind: "permissions", Value: "course:_owner:course-xyz"},
	})

	assert.True(t, claims.HasRoleAtLeast("course", "course-abc", RoleStudent))
	assert.True(t, claims.HasRoleAtLeast("course", "course-abc", RoleTutor))
	assert.False(t, claims.HasRoleAtLeast("course", "course-abc", RoleLecturer))
	assert.False(t, claims.HasRoleAtLeast("course", "course-other", RoleStudent))

	role, ok := claims.CourseRoleOn("course-xyz")
	assert.True(t, ok)
	assert.Equal(t, RoleOwner, role)

	_, ok = claims.CourseRoleOn("course-none")
	assert.False(t, ok)
}

func TestClaimsUnknownRoleNeverSatisfies(t *testing.T) {
	claims := BuildClaims([]ClaimPair{
		{Kind: "permissions", Value: "course:_archon:course-abc"},
	})
	assert.False(t, claims.HasRoleAtLeast("course", "course-abc", RoleStudent))
	_, ok := claims.CourseRoleOn("course-abc")
	assert.False(t, ok)
}
