package orgs

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/shared"
	_ "github.com/lumina-lms/lumina-lms/testing"
)

type stubStore struct {
	orgs       []Organization
	roles      []RoleInfo
	roleLoads  int
	lastQuery  *authz.Query
	createdOrg *Organization
}

func (s *stubStore) Pool() *pgxpool.Pool { return nil }

func (s *stubStore) ListOrganizations(ctx context.Context, q *authz.Query) ([]Organization, error) {
	s.lastQuery = q
	return append([]Organization(nil), s.orgs...), nil
}

func (s *stubStore) GetOrganization(ctx context.Context, q *authz.Query, id string) (*Organization, error) {
	s.lastQuery = q
	for i := range s.orgs {
		if s.orgs[i].ID == id {
			return &s.orgs[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubStore) CreateOrganization(ctx context.Context, name, slug string) (*Organization, error) {
	s.createdOrg = &Organization{ID: "new", Name: name, Slug: slug}
	return s.createdOrg, nil
}

func (s *stubStore) ListCourseRoles(ctx context.Context, q *authz.Query) ([]RoleInfo, error) {
	s.roleLoads++
	return s.roles, nil
}

func newTestService(store *stubStore) *Service {
	reg := authz.NewRegistry(slog.Default(), nil)
	reg.Register(authz.CategoryOrgScoped, authz.NewOrgScopedHandler(authz.DefaultCourseThresholds()))
	reg.Register(authz.CategoryReadOnly, authz.NewReadOnlyHandler())
	reg.Seal()
	return NewService(store, reg, slog.Default())
}

func member(userID string) *authz.Principal {
	claims := authz.BuildClaims([]authz.ClaimPair{{Kind: "permissions", Value: "course:_student:c1"}})
	return authz.NewPrincipal(userID, false, nil, claims)
}

func TestListOrganizationsScopedAndSorted(t *testing.T) {
	store := &stubStore{orgs: []Organization{
		{ID: "o2", Name: "zeta institute"},
		{ID: "o1", Name: "Alpha College"},
	}}
	svc := newTestService(store)

	list, err := svc.ListOrganizations(context.Background(), member("u1"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha College", list[0].Name, "case-insensitive name order")

	sql, args := store.lastQuery.SelectSQL("organizations.id", "")
	assert.Contains(t, sql, "organizations.id IN", "scoped by the org's own id")
	assert.Contains(t, args, "u1")
}

func TestListOrganizationsGeneralClaimUnscoped(t *testing.T) {
	store := &stubStore{orgs: []Organization{{ID: "o1", Name: "Alpha College"}}}
	svc := newTestService(store)

	claims := authz.BuildClaims([]authz.ClaimPair{{Kind: "permissions", Value: "organizations:list"}})
	p := authz.NewPrincipal("u1", false, nil, claims)

	list, err := svc.ListOrganizations(context.Background(), p)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// The stored claim resource matches EntityOrganization.Name, so no
	// membership filter is applied.
	sql, _ := store.lastQuery.SelectSQL("organizations.id", "")
	assert.NotContains(t, sql, "organizations.id IN")
}

func TestGetOrganizationOutsideScopeIsNotFound(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store)

	_, err := svc.GetOrganization(context.Background(), member("u1"), "o9")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateOrganizationAdminOnly(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.CreateOrganization(ctx, member("u1"), "Alpha", "alpha")
	assert.ErrorIs(t, err, authz.ErrForbidden)

	admin := authz.NewPrincipal("root", true, nil, authz.BuildClaims(nil))
	org, err := svc.CreateOrganization(ctx, admin, "Alpha", "alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", org.Slug)

	_, err = svc.CreateOrganization(ctx, admin, "", "alpha")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCourseRolesCachedAfterFirstLoad(t *testing.T) {
	store := &stubStore{roles: []RoleInfo{{Code: "_student", Rank: 0}, {Code: "_owner", Rank: 4}}}
	svc := newTestService(store)
	ctx := context.Background()

	first, err := svc.CourseRoles(ctx, member("u1"))
	require.NoError(t, err)
	assert.Len(t, first, 2)

	_, err = svc.CourseRoles(ctx, member("u2"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.roleLoads, "second read serves the cache")

	svc.InvalidateCatalog()
	_, err = svc.CourseRoles(ctx, member("u3"))
	require.NoError(t, err)
	assert.Equal(t, 2, store.roleLoads)
}

func TestCourseRolesDeniedWithoutPrincipal(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store)

	_, err := svc.CourseRoles(context.Background(), nil)
	assert.ErrorIs(t, err, authz.ErrForbidden)
	assert.Zero(t, store.roleLoads)
}
