package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"flowinsight/internal/market"
)

// HealthScoreRepository persists computed health scores, one row per
// (secid, score_date).
type HealthScoreRepository struct {
	pool *pgxpool.Pool
}

func NewHealthScoreRepository(pool *pgxpool.Pool) *HealthScoreRepository {
	return &HealthScoreRepository{pool: pool}
}

// UpsertScore stores a computed score, replacing any previous score
// for the same security and date.
func (r *HealthScoreRepository) UpsertScore(ctx context.Context, s *market.HealthScore) error {
	query := `
		INSERT INTO health_scores (
			secid, score_date, health_score, trend_direction, risk_level,
			main_net_inflow_7d, main_net_inflow_30d,
			inflow_score, trend_score, price_score, turnover_score
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (secid, score_date) DO UPDATE SET
			health_score = EXCLUDED.health_score,
			trend_direction = EXCLUDED.trend_direction,
			risk_level = EXCLUDED.risk_level,
			main_net_inflow_7d = EXCLUDED.main_net_inflow_7d,
			main_net_inflow_30d = EXCLUDED.main_net_inflow_30d,
			inflow_score = EXCLUDED.inflow_score,
			trend_score = EXCLUDED.trend_score,
			price_score = EXCLUDED.price_score,
			turnover_score = EXCLUDED.turnover_score
	`

	_, err := r.pool.Exec(ctx, query,
		s.Secid, s.ScoreDate, s.HealthScore, s.TrendDirection, s.RiskLevel,
		s.MainNetInflow7d, s.MainNetInflow30d,
		s.Details.InflowScore, s.Details.TrendScore,
		s.Details.PriceScore, s.Details.TurnoverScore,
	)
	return err
}

// GetScore returns the stored score for (secid, date), or pgx.ErrNoRows.
func (r *HealthScoreRepository) GetScore(ctx context.Context, secid string, date time.Time) (*market.HealthScore, error) {
	query := `
		SELECT secid, score_date, health_score, trend_direction, risk_level,
			main_net_inflow_7d, main_net_inflow_30d,
			inflow_score, trend_score, price_score, turnover_score
		FROM health_scores
		WHERE secid = $1 AND score_date = $2
	`

	var s market.HealthScore
	err := r.pool.QueryRow(ctx, query, secid, date).Scan(
		&s.Secid, &s.ScoreDate, &s.HealthScore, &s.TrendDirection, &s.RiskLevel,
		&s.MainNetInflow7d, &s.MainNetInflow30d,
		&s.Details.InflowScore, &s.Details.TrendScore,
		&s.Details.PriceScore, &s.Details.TurnoverScore,
	)
	if err != nil {
		return nil, err
	}
	s.Details.MainNetInflow7d = s.MainNetInflow7d
	s.Details.MainNetInflow30d = s.MainNetInflow30d
	return &s, nil
}
