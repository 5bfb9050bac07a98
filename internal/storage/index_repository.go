package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"flowinsight/internal/market"
)

// IndexSnapshotRepository keeps the most recent quote per market index,
// refreshed by the scheduled index sync.
type IndexSnapshotRepository struct {
	pool *pgxpool.Pool
}

func NewIndexSnapshotRepository(pool *pgxpool.Pool) *IndexSnapshotRepository {
	return &IndexSnapshotRepository{pool: pool}
}

// SaveBatch upserts a sync run's quotes keyed by secid.
func (r *IndexSnapshotRepository) SaveBatch(ctx context.Context, quotes []market.IndexQuote) error {
	query := `
		INSERT INTO index_snapshots (secid, name, price, change_percent, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (secid) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			change_percent = EXCLUDED.change_percent,
			fetched_at = EXCLUDED.fetched_at
	`

	for _, q := range quotes {
		if _, err := r.pool.Exec(ctx, query, q.Secid, q.Name, q.Price, q.ChangePercent, q.FetchedAt); err != nil {
			return err
		}
	}
	return nil
}

// List returns every stored index quote ordered by secid.
func (r *IndexSnapshotRepository) List(ctx context.Context) ([]market.IndexQuote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT secid, name, price, change_percent, fetched_at
		FROM index_snapshots
		ORDER BY secid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []market.IndexQuote
	for rows.Next() {
		var q market.IndexQuote
		if err := rows.Scan(&q.Secid, &q.Name, &q.Price, &q.ChangePercent, &q.FetchedAt); err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
