package auth

import (
	"net/http"
	"time"
)

const sessionCookieName = "session"

// SetSessionCookie stores the session token in an httpOnly cookie for
// browser clients. API clients keep using the Authorization header.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool, duration time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(duration),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie overwrites the session cookie with a short-lived dummy
// value, logging the browser client out.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "loggedout",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
}

// GetTokenFromCookie extracts the session token from the request cookie.
func GetTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
