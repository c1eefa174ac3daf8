package tour

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/go-tours-api/internal/apperror"
	"github.com/redmonkez12/go-tours-api/internal/httputil"
	"github.com/redmonkez12/go-tours-api/internal/logging"
)

// Handler contains the tour endpoints that sit beside the generic CRUD set.
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// AliasTopTours rewrites the request query to the canonical "top 5 cheap"
// listing before the generic list handler runs.
func AliasTopTours(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "-ratings_average,price")
		q.Set("fields", "name,price,ratings_average,summary,difficulty")
		r.URL.RawQuery = q.Encode()
		next(w, r)
	}
}

// GetTourStats returns per-difficulty aggregates over well-rated tours
// @Summary      Tour statistics by difficulty
// @Tags         tours
// @Produce      json
// @Success      200 {object} httputil.Envelope
// @Router       /api/v1/tours/tour-stats [get]
func (h *Handler) GetTourStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats(r.Context(), 4.5)
	if err != nil {
		logger := logging.GetLoggerFromContext(r.Context())
		logger.Error("tour stats failed", "error", err.Error())
		httputil.RespondError(w, err)
		return
	}

	httputil.RespondData(w, map[string]any{"stats": stats}, http.StatusOK)
}

// GetMonthlyPlan breaks a year's tour starts down per month
// @Summary      Monthly tour schedule for a year
// @Tags         tours
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.Envelope
// @Router       /api/v1/tours/monthly-plan/{year} [get]
func (h *Handler) GetMonthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httputil.RespondError(w, apperror.Validation("invalid year"))
		return
	}

	plan, err := h.repo.GetMonthlyPlan(r.Context(), year)
	if err != nil {
		logger := logging.GetLoggerFromContext(r.Context())
		logger.Error("monthly plan failed", "year", year, "error", err.Error())
		httputil.RespondError(w, err)
		return
	}

	httputil.RespondData(w, map[string]any{"plan": plan}, http.StatusOK)
}
