package authz

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRecorder struct {
	mu        sync.Mutex
	decisions []string
	allowed   []bool
}

func (r *recordingRecorder) RecordDecision(entity, action string, allowed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, entity+"."+action)
	r.allowed = append(r.allowed, allowed)
}

func newTestRegistry(rec DecisionRecorder) *Registry {
	reg := NewRegistry(slog.Default(), rec)
	reg.Register(CategoryCourseScoped, NewCourseScopedHandler(DefaultCourseThresholds()))
	reg.Register(CategoryOrgScoped, NewOrgScopedHandler(DefaultCourseThresholds()))
	reg.Register(CategoryReadOnly, NewReadOnlyHandler())
	reg.Register("user", NewUserVisibilityHandler())
	reg.Seal()
	return reg
}

func TestRegistryResolveExactThenBaseThenFallback(t *testing.T) {
	reg := newTestRegistry(nil)

	assert.IsType(t, &UserVisibilityHandler{}, reg.Resolve(userEntity))
	assert.IsType(t, &CourseScopedHandler{}, reg.Resolve(contentEntity), "base category match")
	assert.IsType(t, &ReadOnlyHandler{}, reg.Resolve(catalogEntity))
	assert.IsType(t, &AdminOnlyHandler{}, reg.Resolve(Entity{Name: "dummy", Table: "dummies"}))
}

func TestRegistryResolveNeverNil(t *testing.T) {
	reg := NewRegistry(nil, nil)
	reg.Seal()
	for _, entity := range []Entity{{}, {Name: "x"}, {Name: "y", Bases: []string{"missing"}}} {
		assert.NotNil(t, reg.Resolve(entity))
	}
}

func TestRegistryRegisterConflictPanics(t *testing.T) {
	reg := NewRegistry(nil, nil)
	h := NewReadOnlyHandler()
	reg.Register("course_roles", h)
	assert.NotPanics(t, func() { reg.Register("course_roles", h) }, "same handler is idempotent")
	assert.Panics(t, func() { reg.Register("course_roles", NewAdminOnlyHandler()) })
	assert.Panics(t, func() { reg.Register("", h) })

	reg.Seal()
	assert.Panics(t, func() { reg.Register("late", h) })
}

func TestCheckPermissionsUnregisteredEntity(t *testing.T) {
	reg := newTestRegistry(nil)
	dummy := Entity{Name: "dummy", Table: "dummies"}

	q, err := reg.CheckPermissions(context.Background(), testPrincipal(true), dummy, ActionList, nil)
	require.NoError(t, err)
	sql, _ := q.SelectSQL("dummies.id", "")
	assert.Equal(t, "SELECT dummies.id FROM dummies", sql)

	_, err = reg.CheckPermissions(context.Background(), testPrincipal(false), dummy, ActionList, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCheckPermissionsRecordsDecisions(t *testing.T) {
	rec := &recordingRecorder{}
	reg := newTestRegistry(rec)

	_, err := reg.CheckPermissions(context.Background(), testPrincipal(true), contentEntity, ActionList, nil)
	require.NoError(t, err)
	_, err = reg.CheckPermissions(context.Background(), testPrincipal(false), Entity{Name: "dummy", Table: "dummies"}, ActionList, nil)
	require.ErrorIs(t, err, ErrForbidden)

	assert.Equal(t, []string{"course_content.list", "dummy.list"}, rec.decisions)
	assert.Equal(t, []bool{true, false}, rec.allowed)
}

func TestRegistryCanPerform(t *testing.T) {
	reg := newTestRegistry(nil)
	lecturer := testPrincipal(false, ClaimPair{Kind: "permissions", Value: "course:_lecturer:course-abc"})

	assert.True(t, reg.CanPerform(lecturer, courseEntity, ActionUpdate, "course-abc"))
	assert.False(t, reg.CanPerform(lecturer, courseEntity, ActionUpdate, "course-other"))
	assert.False(t, reg.CanPerform(lecturer, Entity{Name: "dummy"}, ActionGet, "x"))
}

func TestCheckAdmin(t *testing.T) {
	reg := newTestRegistry(nil)
	assert.True(t, reg.CheckAdmin(testPrincipal(true)))
	assert.False(t, reg.CheckAdmin(testPrincipal(false)))
	assert.False(t, reg.CheckAdmin(nil))
}

func TestRegistryConcurrentReads(t *testing.T) {
	reg := newTestRegistry(&recordingRecorder{})
	p := testPrincipal(false, ClaimPair{Kind: "permissions", Value: "course:_student:course-x"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = reg.CheckPermissions(context.Background(), p, contentEntity, ActionList, nil)
				_ = reg.Resolve(courseEntity)
			}
		}()
	}
	wg.Wait()
}
