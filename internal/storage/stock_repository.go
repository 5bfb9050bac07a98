package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"flowinsight/internal/market"
)

// StockRepository persists the synced security catalog.
type StockRepository struct {
	pool *pgxpool.Pool
}

func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

// Save upserts one catalog row keyed by secid and stamps the sync time.
func (r *StockRepository) Save(ctx context.Context, s *market.Stock) error {
	query := `
		INSERT INTO stock_list (
			stock_code, market_code, stock_name, secid,
			total_market_cap, circulating_market_cap, is_active, last_sync_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
		ON CONFLICT (secid) DO UPDATE SET
			stock_name = EXCLUDED.stock_name,
			total_market_cap = EXCLUDED.total_market_cap,
			circulating_market_cap = EXCLUDED.circulating_market_cap,
			is_active = TRUE,
			last_sync_time = EXCLUDED.last_sync_time
	`

	_, err := r.pool.Exec(ctx, query,
		s.StockCode, s.MarketCode, s.StockName, s.Secid,
		s.TotalMarketCap, s.CirculatingMarketCap, time.Now(),
	)
	return err
}

func (r *StockRepository) SaveBatch(ctx context.Context, stocks []*market.Stock) error {
	for _, s := range stocks {
		if err := r.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// GetBySecid returns one catalog row, or pgx.ErrNoRows.
func (r *StockRepository) GetBySecid(ctx context.Context, secid string) (*market.Stock, error) {
	query := `
		SELECT id, stock_code, market_code, stock_name, secid,
			total_market_cap, circulating_market_cap, is_active, last_sync_time
		FROM stock_list
		WHERE secid = $1
	`

	var s market.Stock
	err := r.pool.QueryRow(ctx, query, secid).Scan(
		&s.ID, &s.StockCode, &s.MarketCode, &s.StockName, &s.Secid,
		&s.TotalMarketCap, &s.CirculatingMarketCap, &s.IsActive, &s.LastSyncTime,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns one page of active securities, optionally filtered by a
// code or name keyword, together with the total match count.
func (r *StockRepository) List(ctx context.Context, page, pageSize int, keyword string) ([]*market.Stock, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	pattern := "%" + keyword + "%"

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM stock_list
		WHERE is_active AND ($1 = '%%' OR stock_code LIKE $1 OR stock_name LIKE $1)
	`, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, stock_code, market_code, stock_name, secid,
			total_market_cap, circulating_market_cap, is_active, last_sync_time
		FROM stock_list
		WHERE is_active AND ($1 = '%%' OR stock_code LIKE $1 OR stock_name LIKE $1)
		ORDER BY stock_code
		LIMIT $2 OFFSET $3
	`, pattern, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var stocks []*market.Stock
	for rows.Next() {
		var s market.Stock
		if err := rows.Scan(
			&s.ID, &s.StockCode, &s.MarketCode, &s.StockName, &s.Secid,
			&s.TotalMarketCap, &s.CirculatingMarketCap, &s.IsActive, &s.LastSyncTime,
		); err != nil {
			return nil, 0, err
		}
		stocks = append(stocks, &s)
	}
	return stocks, total, rows.Err()
}

// ActiveSecids returns every active security's secid, ordered by code.
// The batch sync loop iterates this list.
func (r *StockRepository) ActiveSecids(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT secid FROM stock_list WHERE is_active ORDER BY stock_code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var secids []string
	for rows.Next() {
		var secid string
		if err := rows.Scan(&secid); err != nil {
			return nil, err
		}
		secids = append(secids, secid)
	}
	return secids, rows.Err()
}
