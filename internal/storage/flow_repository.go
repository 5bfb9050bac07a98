package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flowinsight/internal/market"
	"flowinsight/internal/recommend"
)

// FlowRepository persists daily capital-flow history rows, one per
// (secid, trade_date).
type FlowRepository struct {
	pool *pgxpool.Pool
}

func NewFlowRepository(pool *pgxpool.Pool) *FlowRepository {
	return &FlowRepository{pool: pool}
}

const flowColumns = `
	secid, stock_code, market_code, trade_date,
	main_net_inflow, super_large_net_inflow, large_net_inflow,
	medium_net_inflow, small_net_inflow, main_net_inflow_ratio,
	close_price, high_price, low_price, change_percent, turnover_rate`

// Save upserts a single daily row.
func (r *FlowRepository) Save(ctx context.Context, f *market.CapitalFlow) error {
	query := `
		INSERT INTO capital_flow_history (` + flowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (secid, trade_date) DO UPDATE SET
			main_net_inflow = EXCLUDED.main_net_inflow,
			super_large_net_inflow = EXCLUDED.super_large_net_inflow,
			large_net_inflow = EXCLUDED.large_net_inflow,
			medium_net_inflow = EXCLUDED.medium_net_inflow,
			small_net_inflow = EXCLUDED.small_net_inflow,
			main_net_inflow_ratio = EXCLUDED.main_net_inflow_ratio,
			close_price = EXCLUDED.close_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			change_percent = EXCLUDED.change_percent,
			turnover_rate = EXCLUDED.turnover_rate
	`

	_, err := r.pool.Exec(ctx, query,
		f.Secid, f.StockCode, f.MarketCode, f.TradeDate,
		f.MainNetInflow, f.SuperLargeNetInflow, f.LargeNetInflow,
		f.MediumNetInflow, f.SmallNetInflow, f.MainNetInflowRatio,
		f.ClosePrice, f.HighPrice, f.LowPrice, f.ChangePercent, f.TurnoverRate,
	)
	return err
}

// SaveBatch upserts a sync run's rows one by one. The provider sends
// at most ~250 rows per security, so a loop is fine here.
func (r *FlowRepository) SaveBatch(ctx context.Context, flows []*market.CapitalFlow) error {
	for _, f := range flows {
		if err := r.Save(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// RecentFlows returns up to limit rows for secid with trade dates on
// or before asOf, newest first.
func (r *FlowRepository) RecentFlows(ctx context.Context, secid string, asOf time.Time, limit int) ([]market.CapitalFlow, error) {
	query := `
		SELECT ` + flowColumns + `
		FROM capital_flow_history
		WHERE secid = $1 AND trade_date <= $2
		ORDER BY trade_date DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, secid, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlows(rows)
}

// RangeFlows returns rows for secid within [from, to], oldest first.
func (r *FlowRepository) RangeFlows(ctx context.Context, secid string, from, to time.Time) ([]market.CapitalFlow, error) {
	query := `
		SELECT ` + flowColumns + `
		FROM capital_flow_history
		WHERE secid = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, secid, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlows(rows)
}

// WindowStats aggregates every security's window inside [from, to]
// that covers at least minDays distinct trading days. Volatility is
// the population standard deviation of daily change percentages; the
// latest close and change come from each security's newest row via
// DISTINCT ON.
func (r *FlowRepository) WindowStats(ctx context.Context, from, to time.Time, minDays int) ([]recommend.WindowStats, error) {
	query := `
		WITH windowed AS (
			SELECT *
			FROM capital_flow_history
			WHERE trade_date BETWEEN $1 AND $2
		),
		latest AS (
			SELECT DISTINCT ON (secid)
				secid, close_price, change_percent
			FROM windowed
			ORDER BY secid, trade_date DESC
		)
		SELECT
			w.secid,
			MAX(w.stock_code),
			MAX(w.market_code),
			COALESCE(MAX(s.stock_name), ''),
			COUNT(DISTINCT w.trade_date),
			SUM(w.main_net_inflow),
			SUM(w.small_net_inflow),
			MAX(w.change_percent),
			MIN(w.change_percent),
			AVG(w.change_percent),
			COALESCE(STDDEV_POP(w.change_percent), 0),
			MAX(l.close_price),
			MAX(l.change_percent)
		FROM windowed w
		JOIN latest l ON l.secid = w.secid
		LEFT JOIN stock_list s ON s.secid = w.secid
		GROUP BY w.secid
		HAVING COUNT(DISTINCT w.trade_date) >= $3
	`

	rows, err := r.pool.Query(ctx, query, from, to, minDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []recommend.WindowStats
	for rows.Next() {
		var s recommend.WindowStats
		if err := rows.Scan(
			&s.Secid, &s.StockCode, &s.MarketCode, &s.StockName,
			&s.TradingDays, &s.TotalMainInflow, &s.TotalSmallInflow,
			&s.MaxChange, &s.MinChange, &s.AvgChange, &s.Volatility,
			&s.LatestClose, &s.LatestChangePercent,
		); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// LatestTradeDate returns the newest trade date stored for any
// security, or the zero time when the table is empty.
func (r *FlowRepository) LatestTradeDate(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(trade_date) FROM capital_flow_history`).Scan(&latest)
	if err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}

func scanFlows(rows pgx.Rows) ([]market.CapitalFlow, error) {
	var flows []market.CapitalFlow
	for rows.Next() {
		var f market.CapitalFlow
		if err := rows.Scan(
			&f.Secid, &f.StockCode, &f.MarketCode, &f.TradeDate,
			&f.MainNetInflow, &f.SuperLargeNetInflow, &f.LargeNetInflow,
			&f.MediumNetInflow, &f.SmallNetInflow, &f.MainNetInflowRatio,
			&f.ClosePrice, &f.HighPrice, &f.LowPrice, &f.ChangePercent, &f.TurnoverRate,
		); err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}
