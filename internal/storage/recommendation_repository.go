package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"flowinsight/internal/market"
)

// RecommendationRepository persists daily shortlists. A day's rows are
// only ever replaced as a whole; readers never observe a partial day.
type RecommendationRepository struct {
	pool *pgxpool.Pool
}

func NewRecommendationRepository(pool *pgxpool.Pool) *RecommendationRepository {
	return &RecommendationRepository{pool: pool}
}

// ReplaceForDate deletes the existing shortlist for date and inserts
// entries in their given order, all inside one transaction.
func (r *RecommendationRepository) ReplaceForDate(ctx context.Context, date time.Time, entries []market.Recommendation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM daily_recommendations WHERE recommend_date = $1`, date); err != nil {
		return err
	}

	query := `
		INSERT INTO daily_recommendations (
			recommend_date, stock_code, market_code, stock_name, secid,
			current_price, change_percent, total_main_inflow_10d,
			total_small_inflow_10d, volatility, max_change, min_change,
			recommend_reasons, sort_order
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	for _, e := range entries {
		if _, err := tx.Exec(ctx, query,
			date, e.StockCode, e.MarketCode, e.StockName, e.Secid,
			e.CurrentPrice, e.ChangePercent, e.TotalMainInflow,
			e.TotalSmallInflow, e.Volatility, e.MaxChange, e.MinChange,
			e.Reasons, e.SortOrder,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListByDate returns the stored shortlist for date in rank order.
func (r *RecommendationRepository) ListByDate(ctx context.Context, date time.Time) ([]market.Recommendation, error) {
	query := `
		SELECT recommend_date, stock_code, market_code, stock_name, secid,
			current_price, change_percent, total_main_inflow_10d,
			total_small_inflow_10d, volatility, max_change, min_change,
			recommend_reasons, sort_order
		FROM daily_recommendations
		WHERE recommend_date = $1
		ORDER BY sort_order ASC
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []market.Recommendation
	for rows.Next() {
		var e market.Recommendation
		if err := rows.Scan(
			&e.RecommendDate, &e.StockCode, &e.MarketCode, &e.StockName, &e.Secid,
			&e.CurrentPrice, &e.ChangePercent, &e.TotalMainInflow,
			&e.TotalSmallInflow, &e.Volatility, &e.MaxChange, &e.MinChange,
			&e.Reasons, &e.SortOrder,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LatestDate returns the most recent date with a stored shortlist, or
// the zero time when none exists.
func (r *RecommendationRepository) LatestDate(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(recommend_date) FROM daily_recommendations`).Scan(&latest)
	if err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}
