package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-tours-api/internal/apperror"
	"github.com/redmonkez12/go-tours-api/internal/httputil"
	"github.com/redmonkez12/go-tours-api/internal/logging"
)

// PrincipalFunc extracts the authenticated user id from the request context.
// Injected from the auth package to keep this package free of a dependency
// cycle.
type PrincipalFunc func(r *http.Request) (uuid.UUID, bool)

// Handler contains HTTP handlers for the self-service account endpoints
type Handler struct {
	repo      *Repository
	principal PrincipalFunc
}

func NewHandler(repo *Repository, principal PrincipalFunc) *Handler {
	return &Handler{repo: repo, principal: principal}
}

// UpdateMeRequest is the allow-listed profile patch. Password fields are
// rejected here; password changes go through /updateMyPassword.
type UpdateMeRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Me returns the authenticated user's own record
// @Summary      Get own account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.Envelope
// @Router       /api/v1/users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := h.principal(r)
	if !ok {
		httputil.RespondError(w, apperror.Unauthenticated("you are not logged in! please log in to get access"))
		return
	}

	u, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondError(w, apperror.NotFound("no user found with that ID"))
			return
		}
		httputil.RespondError(w, err)
		return
	}

	httputil.RespondData(w, map[string]any{"user": u}, http.StatusOK)
}

// UpdateMe applies an allow-listed patch to the authenticated user's profile
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.Envelope
// @Router       /api/v1/users/updateMe [patch]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := h.principal(r)
	if !ok {
		httputil.RespondError(w, apperror.Unauthenticated("you are not logged in! please log in to get access"))
		return
	}

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, apperror.Validation("invalid request body"))
		return
	}

	if req.Password != "" || req.PasswordConfirm != "" {
		httputil.RespondError(w, apperror.Validation("this route is not for password updates. please use /updateMyPassword"))
		return
	}

	updated, err := h.repo.UpdateProfile(r.Context(), id, req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httputil.RespondError(w, apperror.NotFound("no user found with that ID"))
		case errors.Is(err, ErrDuplicateEmail):
			httputil.RespondError(w, apperror.Duplicate("email address already in use"))
		default:
			logger.Error("profile update failed", "user_id", id, "error", err.Error())
			httputil.RespondError(w, err)
		}
		return
	}

	httputil.RespondData(w, map[string]any{"user": updated}, http.StatusOK)
}

// DeleteMe soft-deletes the authenticated user's account
// @Summary      Deactivate own account
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Router       /api/v1/users/deleteMe [delete]
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	id, ok := h.principal(r)
	if !ok {
		httputil.RespondError(w, apperror.Unauthenticated("you are not logged in! please log in to get access"))
		return
	}

	if err := h.repo.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondError(w, apperror.NotFound("no user found with that ID"))
			return
		}
		httputil.RespondError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}

// CreateUserStub points API clients at the signup flow; admin user creation
// is deliberately not supported.
func (h *Handler) CreateUserStub(w http.ResponseWriter, r *http.Request) {
	httputil.RespondError(w, apperror.Validation("this route is not defined. please use /signup instead"))
}
