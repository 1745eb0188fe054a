package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedRoles(t *testing.T) {
	tests := []struct {
		name    string
		minimum CourseRole
		want    []CourseRole
	}{
		{
			name:    "student includes everyone",
			minimum: RoleStudent,
			want:    []CourseRole{RoleStudent, RoleTutor, RoleLecturer, RoleMaintainer, RoleOwner},
		},
		{
			name:    "lecturer excludes students and tutors",
			minimum: RoleLecturer,
			want:    []CourseRole{RoleLecturer, RoleMaintainer, RoleOwner},
		},
		{
			name:    "owner is only itself",
			minimum: RoleOwner,
			want:    []CourseRole{RoleOwner},
		},
		{
			name:    "unknown role matches nothing",
			minimum: CourseRole("_principal"),
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedRoles(tt.minimum))
		})
	}
}

func TestRoleSatisfiesMonotonic(t *testing.T) {
	order := CourseRoles()
	require.Len(t, order, 5)
	for i, role := range order {
		for j, minimum := range order {
			got := RoleSatisfies(role, minimum)
			assert.Equal(t, i >= j, got, "role=%s minimum=%s", role, minimum)
		}
	}
}

func TestRoleSatisfiesFailsClosed(t *testing.T) {
	assert.False(t, RoleSatisfies("_superuser", RoleStudent))
	assert.False(t, RoleSatisfies(RoleOwner, "_superuser"))
	assert.False(t, RoleSatisfies("", RoleStudent))
	assert.False(t, RoleSatisfies("student", RoleStudent), "unprefixed code is not a role")
}

func TestValidCourseRole(t *testing.T) {
	assert.True(t, ValidCourseRole("_tutor"))
	assert.False(t, ValidCourseRole("tutor"))
	assert.False(t, ValidCourseRole(""))
}
