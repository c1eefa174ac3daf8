package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-tours-api/internal/apperror"
	"github.com/redmonkez12/go-tours-api/internal/httputil"
	"github.com/redmonkez12/go-tours-api/internal/user"
)

// Principal is the authentication result attached to a request after a
// successful Protect. Downstream gates read it instead of re-verifying.
type Principal struct {
	ID   uuid.UUID
	Role user.Role
}

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const principalContextKey ContextKey = "principal"

// GetPrincipal extracts the authenticated principal from the request context.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(Principal)
	return p, ok
}

// WithPrincipal attaches a principal to the context the way Protect does.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// Middleware gates protected routes
type Middleware struct {
	tokens TokenService
	users  UserStore
}

func NewMiddleware(tokens TokenService, users UserStore) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// Protect requires a valid session token bound to a still-existing user whose
// password has not changed since the token was issued. On success the
// principal is attached to the request context.
func (m *Middleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.authenticate(r)
		if err != nil {
			httputil.RespondError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IsLoggedIn is the soft variant of Protect for rendered pages: it attaches
// the principal when the cookie verifies, and proceeds as anonymous on any
// failure. Never use it to guard state-changing routes.
func (m *Middleware) IsLoggedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := GetTokenFromCookie(r); err != nil {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := m.authenticate(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RestrictTo allows only the given roles through. It must run after Protect;
// a request without a principal fails closed as unauthenticated rather than
// slipping past the role check.
func RestrictTo(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r.Context())
			if !ok {
				httputil.RespondError(w, apperror.Unauthenticated("you are not logged in! please log in to get access"))
				return
			}
			if !principal.Role.Authorized(roles...) {
				httputil.RespondError(w, apperror.Forbidden("you do not have permission to perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate runs the full verification chain for one request.
func (m *Middleware) authenticate(r *http.Request) (Principal, error) {
	token, err := extractToken(r)
	if err != nil {
		return Principal{}, err
	}

	claims, err := m.tokens.VerifyToken(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return Principal{}, apperror.Unauthenticated("your token has expired! please log in again")
		}
		return Principal{}, apperror.Unauthenticated("invalid token. please log in again")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Principal{}, apperror.Unauthenticated("invalid token. please log in again")
	}

	current, err := m.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Principal{}, apperror.Unauthenticated("the user belonging to this token does no longer exist")
		}
		return Principal{}, err
	}

	if current.ChangedPasswordAfter(claims.IssuedAt) {
		return Principal{}, apperror.Unauthenticated("user recently changed password! please log in again")
	}

	return Principal{ID: current.ID, Role: current.Role}, nil
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the session cookie for browser clients.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1], nil
		}
		return "", apperror.Unauthenticated("invalid authorization header format")
	}

	token, err := GetTokenFromCookie(r)
	if err != nil || token == "" {
		return "", apperror.Unauthenticated("you are not logged in! please log in to get access")
	}
	return token, nil
}
