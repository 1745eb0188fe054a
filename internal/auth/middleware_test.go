package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumina-lms/lumina-lms/internal/auth"
	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/shared"
	_ "github.com/lumina-lms/lumina-lms/testing"
)

type memoryRepo struct {
	user   *auth.User
	claims []authz.ClaimPair
}

func (m *memoryRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return m.user, nil
}

func (m *memoryRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return m.user, nil
}

func (m *memoryRepo) ListClaims(ctx context.Context, userID string) ([]authz.ClaimPair, error) {
	return m.claims, nil
}

func (m *memoryRepo) CreateSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (m *memoryRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func newSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func TestPrincipalLoaderAttachesPrincipal(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &memoryRepo{
		user: &auth.User{ID: "u-1", Email: "a@b.c", PasswordHash: string(hashed), IsActive: true},
		claims: []authz.ClaimPair{
			{Kind: "permissions", Value: "course:_student:course-x"},
		},
	}
	loader := auth.PrincipalLoader{Service: auth.NewService(repo)}
	sm := newSessionManager(t)

	var seen *authz.Principal
	handler := loader.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = authz.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("u-1")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	assert.Equal(t, "u-1", seen.UserID)
	assert.True(t, seen.Permitted("course", "get", authz.OnResource("course-x"), authz.WithMinimumRole(authz.RoleStudent)))
}

func TestPrincipalLoaderAnonymousPassesThrough(t *testing.T) {
	loader := auth.PrincipalLoader{Service: auth.NewService(&memoryRepo{})}
	sm := newSessionManager(t)

	var seen *authz.Principal
	called := false
	handler := loader.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = authz.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
	assert.Nil(t, seen)
}

func TestRequirePrincipal(t *testing.T) {
	blocked := auth.RequirePrincipal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a principal")
	}))
	res := httptest.NewRecorder()
	blocked.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/courses", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	ok := auth.RequirePrincipal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	principal := authz.NewPrincipal("u-1", false, nil, authz.BuildClaims(nil))
	req = req.WithContext(authz.ContextWithPrincipal(req.Context(), principal))
	res = httptest.NewRecorder()
	ok.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}
