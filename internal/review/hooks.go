package review

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/go-tours-api/internal/apperror"
	"github.com/redmonkez12/go-tours-api/internal/auth"
	"github.com/redmonkez12/go-tours-api/internal/logging"
	"github.com/redmonkez12/go-tours-api/internal/query"
)

// NestedTourScope narrows a review listing to the tour named in the route
// when the request came in through the nested /tours/{tourId}/reviews path.
func NestedTourScope(r *http.Request) []query.Filter {
	tourID, err := uuid.Parse(chi.URLParam(r, "tourId"))
	if err != nil {
		return nil
	}
	return []query.Filter{{Field: "tour_id", Op: query.OpEq, Value: tourID}}
}

// SetTourUserIDs fills in the review's tour from the nested route and its
// author from the authenticated principal when the payload leaves them unset.
func SetTourUserIDs(r *http.Request, rv *Review) error {
	if rv.TourID == uuid.Nil {
		tourID, err := uuid.Parse(chi.URLParam(r, "tourId"))
		if err != nil {
			return apperror.Validation("review must belong to a tour")
		}
		rv.TourID = tourID
	}

	if rv.UserID == uuid.Nil {
		p, ok := auth.GetPrincipal(r.Context())
		if !ok {
			return apperror.Unauthenticated("you are not logged in! please log in to get access")
		}
		rv.UserID = p.ID
	}

	return nil
}

// RecalcRatings returns the post-write hook that keeps the parent tour's
// rating aggregates in step with its reviews.
func RecalcRatings(repo *Repository) func(ctx context.Context, rv *Review) {
	return func(ctx context.Context, rv *Review) {
		if err := repo.RecalcTourRatings(ctx, rv.TourID); err != nil {
			logger := logging.GetLoggerFromContext(ctx)
			logger.Error("ratings recalculation failed", "tour_id", rv.TourID, "error", err.Error())
		}
	}
}
