package tour

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Stats is one per-difficulty aggregate row.
type Stats struct {
	Difficulty string  `bun:"difficulty" json:"difficulty"`
	NumTours   int     `bun:"num_tours" json:"numTours"`
	NumRatings int     `bun:"num_ratings" json:"numRatings"`
	AvgRating  float64 `bun:"avg_rating" json:"avgRating"`
	AvgPrice   float64 `bun:"avg_price" json:"avgPrice"`
	MinPrice   float64 `bun:"min_price" json:"minPrice"`
	MaxPrice   float64 `bun:"max_price" json:"maxPrice"`
}

// MonthlyPlan is one month's share of a year's tour starts.
type MonthlyPlan struct {
	Month         int      `bun:"month" json:"month"`
	NumTourStarts int      `bun:"num_tour_starts" json:"numTourStarts"`
	Tours         []string `bun:"tours,array" json:"tours"`
}

// Repository holds the tour queries that fall outside the generic store:
// aggregate statistics and the yearly schedule breakdown.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// GetStats aggregates non-secret tours by difficulty, tours with an average
// rating of at least minRating.
func (r *Repository) GetStats(ctx context.Context, minRating float64) ([]Stats, error) {
	var stats []Stats
	err := r.db.NewSelect().
		Model((*Tour)(nil)).
		ColumnExpr("difficulty").
		ColumnExpr("COUNT(*) AS num_tours").
		ColumnExpr("SUM(ratings_quantity) AS num_ratings").
		ColumnExpr("AVG(ratings_average) AS avg_rating").
		ColumnExpr("AVG(price) AS avg_price").
		ColumnExpr("MIN(price) AS min_price").
		ColumnExpr("MAX(price) AS max_price").
		Where("secret = ?", false).
		Where("ratings_average >= ?", minRating).
		Group("difficulty").
		OrderExpr("avg_price ASC").
		Scan(ctx, &stats)

	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tour stats: %w", err)
	}

	return stats, nil
}

// GetMonthlyPlan expands every start date of non-secret tours in the given
// year into per-month counts and tour names, busiest months first.
func (r *Repository) GetMonthlyPlan(ctx context.Context, year int) ([]MonthlyPlan, error) {
	var plan []MonthlyPlan
	err := r.db.NewSelect().
		Model((*Tour)(nil)).
		ColumnExpr("EXTRACT(MONTH FROM d.start_date::date)::int AS month").
		ColumnExpr("COUNT(*) AS num_tour_starts").
		ColumnExpr("array_agg(t.name) AS tours").
		Join("CROSS JOIN LATERAL unnest(t.start_dates) AS d(start_date)").
		Where("EXTRACT(YEAR FROM d.start_date::date) = ?", year).
		Where("t.secret = ?", false).
		GroupExpr("month").
		OrderExpr("num_tour_starts DESC, month ASC").
		Scan(ctx, &plan)

	if err != nil {
		return nil, fmt.Errorf("failed to build monthly plan: %w", err)
	}

	return plan, nil
}
