package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/go-tours-api/internal/apperror"
	"github.com/redmonkez12/go-tours-api/internal/httputil"
	"github.com/redmonkez12/go-tours-api/internal/logging"
	"github.com/redmonkez12/go-tours-api/internal/ratelimit"
	"github.com/redmonkez12/go-tours-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service        *Service
	rateLimiter    *ratelimit.Limiter
	logger         *logging.Logger
	isProduction   bool
	publicURL      string
	cookieDuration time.Duration
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger, isProduction bool, publicURL string, cookieDuration time.Duration) *Handler {
	return &Handler{
		service:        service,
		rateLimiter:    rateLimiter,
		logger:         logger,
		isProduction:   isProduction,
		publicURL:      publicURL,
		cookieDuration: cookieDuration,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// UpdatePasswordRequest represents the authenticated password change body
type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Signup handles account creation
// @Summary      Create a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      201 {object} httputil.Envelope
// @Router       /api/v1/users/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var in SignupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.RespondError(w, apperror.Validation("invalid request body"))
		return
	}

	newUser, token, err := h.service.Signup(r.Context(), in)
	if err != nil {
		logger.Warn("signup failed", "error", err.Error())
		httputil.RespondError(w, err)
		return
	}

	logger.Info("user signed up", "user_id", newUser.ID)
	h.sendToken(w, token, newUser, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} httputil.Envelope
// @Failure      401 {object} httputil.Envelope "Invalid credentials"
// @Router       /api/v1/users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limited(w, r, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, apperror.Validation("invalid request body"))
		return
	}

	existing, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		logger.Warn("login failed", "email", req.Email, "error", err.Error())
		httputil.RespondError(w, err)
		return
	}

	logger.Info("user logged in", "user_id", existing.ID)
	h.sendToken(w, token, existing, http.StatusOK)
}

// Logout clears the session cookie
// @Summary      User logout
// @Tags         auth
// @Produce      json
// @Success      200 {object} httputil.Envelope
// @Router       /api/v1/users/logout [get]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w)
	httputil.RespondJSON(w, httputil.Envelope{Status: "success"}, http.StatusOK)
}

// ForgotPassword mails a one-time reset token to the account owner
// @Summary      Request a password reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} httputil.Envelope
// @Router       /api/v1/users/forgotPassword [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limited(w, r, "forgot-password") {
		return
	}

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, apperror.Validation("invalid request body"))
		return
	}

	// Per-email cooldown on top of the IP window so one address cannot be
	// flooded with reset mails
	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		httputil.RespondJSON(w, httputil.Envelope{
			Status:  "fail",
			Message: "a reset email was sent recently, please wait before retrying",
		}, http.StatusTooManyRequests)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email, h.publicURL); err != nil {
		logger.Warn("forgot password failed", "error", err.Error())
		httputil.RespondError(w, err)
		return
	}

	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		h.logger.Error("failed to set email cooldown", "error", err.Error())
	}

	httputil.RespondMessage(w, "token sent to email", http.StatusOK)
}

// ResetPassword consumes a reset token and sets a new password
// @Summary      Reset password with a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} httputil.Envelope
// @Router       /api/v1/users/resetPassword/{token} [patch]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	plainToken := chi.URLParam(r, "token")

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, apperror.Validation("invalid request body"))
		return
	}

	existing, token, err := h.service.ResetPassword(r.Context(), plainToken, req.Password, req.PasswordConfirm)
	if err != nil {
		logger.Warn("password reset failed", "error", err.Error())
		httputil.RespondError(w, err)
		return
	}

	logger.Info("password reset", "user_id", existing.ID)
	h.sendToken(w, token, existing, http.StatusOK)
}

// UpdatePassword changes the password of the authenticated user
// @Summary      Change own password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.Envelope
// @Router       /api/v1/users/updateMyPassword [patch]
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	principal, ok := GetPrincipal(r.Context())
	if !ok {
		httputil.RespondError(w, apperror.Unauthenticated("please log in to update password"))
		return
	}

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, apperror.Validation("invalid request body"))
		return
	}

	existing, token, err := h.service.UpdatePassword(r.Context(), principal.ID, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		logger.Warn("password update failed", "user_id", principal.ID, "error", err.Error())
		httputil.RespondError(w, err)
		return
	}

	logger.Info("password updated", "user_id", existing.ID)
	h.sendToken(w, token, existing, http.StatusOK)
}

// sendToken writes the session cookie for browser clients and the token plus
// the account (password hash never serialized) for API clients.
func (h *Handler) sendToken(w http.ResponseWriter, token string, u *user.User, statusCode int) {
	SetSessionCookie(w, token, h.isProduction, h.cookieDuration)
	httputil.RespondToken(w, token, map[string]any{"userObj": u}, statusCode)
}

// limited applies the IP rate limit for the given purpose. Limiter errors
// are logged but never block legitimate requests.
func (h *Handler) limited(w http.ResponseWriter, r *http.Request, purpose string) bool {
	ip := clientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, purpose)
	if err != nil {
		h.logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		h.logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondJSON(w, httputil.Envelope{
			Status:  "fail",
			Message: "too many requests, please try again later",
		}, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, purpose); err != nil {
		h.logger.Error("failed to record IP request", "error", err.Error())
	}
	return false
}

// clientIP extracts the client IP address from the request
func clientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ips := strings.Split(xff, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr format is "IP:port", extract just the IP
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
