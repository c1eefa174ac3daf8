package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-tours-api/internal/user"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newTestMiddleware(t *testing.T) (*Middleware, *mockUserStore, TokenService) {
	t.Helper()

	tokens, err := NewPasetoService(testKey())
	require.NoError(t, err)

	store := newMockUserStore()
	return NewMiddleware(tokens, store), store, tokens
}

func seedUser(t *testing.T, store *mockUserStore, role user.Role) *user.User {
	t.Helper()

	hash, err := HashPassword("pass1234")
	require.NoError(t, err)

	u := &user.User{
		Name:         "Grace Hopper",
		Email:        "grace@example.com",
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	require.NoError(t, store.Create(context.Background(), u))
	return u
}

func TestProtect_MissingToken(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	mw.Protect(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "you are not logged in")
}

func TestProtect_BadAuthorizationHeader(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	mw.Protect(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtect_ValidToken(t *testing.T) {
	mw, store, tokens := newTestMiddleware(t)
	u := seedUser(t, store, user.RoleUser)

	token, err := tokens.CreateToken(u.ID, time.Hour)
	require.NoError(t, err)

	var got Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		require.True(t, ok)
		got = p
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Protect(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, user.RoleUser, got.Role)
}

func TestProtect_TokenFromCookie(t *testing.T) {
	mw, store, tokens := newTestMiddleware(t)
	u := seedUser(t, store, user.RoleUser)

	token, err := tokens.CreateToken(u.ID, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	rec := httptest.NewRecorder()
	mw.Protect(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtect_DeletedUser(t *testing.T) {
	mw, store, tokens := newTestMiddleware(t)
	u := seedUser(t, store, user.RoleUser)

	token, err := tokens.CreateToken(u.ID, time.Hour)
	require.NoError(t, err)

	u.Active = false

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Protect(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "does no longer exist")
}

func TestProtect_StaleTokenAfterPasswordChange(t *testing.T) {
	mw, store, tokens := newTestMiddleware(t)
	u := seedUser(t, store, user.RoleUser)

	token, err := tokens.CreateToken(u.ID, time.Hour)
	require.NoError(t, err)

	changed := time.Now().Add(time.Minute)
	u.PasswordChangedAt = &changed

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Protect(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "recently changed password")
}

func TestRestrictTo(t *testing.T) {
	gate := RestrictTo(user.RoleAdmin, user.RoleLeadGuide)

	// No principal fails closed as unauthenticated, not forbidden
	t.Run("no principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		rec := httptest.NewRecorder()
		gate(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		ctx := context.WithValue(req.Context(), principalContextKey, Principal{Role: user.RoleUser})
		rec := httptest.NewRecorder()
		gate(okHandler()).ServeHTTP(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "you do not have permission")
	})

	t.Run("allowed role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		ctx := context.WithValue(req.Context(), principalContextKey, Principal{Role: user.RoleLeadGuide})
		rec := httptest.NewRecorder()
		gate(okHandler()).ServeHTTP(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestIsLoggedIn_AnonymousOnFailure(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)

	var hasPrincipal bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasPrincipal = GetPrincipal(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "garbage"})
	rec := httptest.NewRecorder()
	mw.IsLoggedIn(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, hasPrincipal)
}
