package review

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-tours-api/internal/tour"
)

// Repository holds the review queries outside the generic store: the
// denormalized rating aggregates on the parent tour.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// RecalcTourRatings recomputes the parent tour's ratings average and count
// from its reviews. With no reviews left the tour falls back to the defaults
// (4.5, 0).
func (r *Repository) RecalcTourRatings(ctx context.Context, tourID uuid.UUID) error {
	var agg struct {
		Count int     `bun:"count"`
		Avg   float64 `bun:"avg"`
	}

	err := r.db.NewSelect().
		Model((*Review)(nil)).
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(AVG(rating), 4.5) AS avg").
		Where("tour_id = ?", tourID).
		Scan(ctx, &agg)

	if err != nil {
		return fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	_, err = r.db.NewUpdate().
		Model((*tour.Tour)(nil)).
		Set("ratings_quantity = ?", agg.Count).
		Set("ratings_average = ?", agg.Avg).
		Set("updated_at = NOW()").
		Where("id = ?", tourID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update tour ratings: %w", err)
	}

	return nil
}
