// Package collector orchestrates data syncs from the quote provider
// into storage.
package collector

import (
	"context"
	"fmt"
	"time"

	"flowinsight/internal/market"
	"flowinsight/pkg/logger"
)

// Provider is the slice of the quote client the collector needs.
type Provider interface {
	FetchStockList(ctx context.Context) ([]*market.Stock, error)
	FetchFlowHistory(ctx context.Context, secid string, limit int) ([]*market.CapitalFlow, error)
	FetchIndexQuotes(ctx context.Context) ([]market.IndexQuote, error)
}

type StockStore interface {
	SaveBatch(ctx context.Context, stocks []*market.Stock) error
	ActiveSecids(ctx context.Context) ([]string, error)
}

type FlowStore interface {
	SaveBatch(ctx context.Context, flows []*market.CapitalFlow) error
}

type IndexStore interface {
	SaveBatch(ctx context.Context, quotes []market.IndexQuote) error
}

// Default number of daily rows requested per security. The provider
// caps fund-flow klines around this depth anyway.
const DefaultHistoryDepth = 250

// SyncStats summarizes one sync run.
type SyncStats struct {
	Synced   int           `json:"synced"`
	Failed   int           `json:"failed"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
}

// Collector pulls provider data and persists it. Batch syncs walk the
// catalog sequentially; the provider client's rate limiter sets the
// pace.
type Collector struct {
	provider Provider
	stocks   StockStore
	flows    FlowStore
	indexes  IndexStore
	log      *logger.Logger
}

func New(provider Provider, stocks StockStore, flows FlowStore, indexes IndexStore, log *logger.Logger) *Collector {
	return &Collector{
		provider: provider,
		stocks:   stocks,
		flows:    flows,
		indexes:  indexes,
		log:      log.WithField("component", "collector"),
	}
}

// SyncStockList refreshes the security catalog.
func (c *Collector) SyncStockList(ctx context.Context) (*SyncStats, error) {
	start := time.Now()

	stocks, err := c.provider.FetchStockList(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync stock list: %w", err)
	}
	if err := c.stocks.SaveBatch(ctx, stocks); err != nil {
		return nil, fmt.Errorf("save stock list: %w", err)
	}

	stats := &SyncStats{Synced: len(stocks), Rows: len(stocks), Duration: time.Since(start)}
	c.log.WithFields(map[string]interface{}{
		"stocks":   stats.Synced,
		"duration": stats.Duration.String(),
	}).Info("stock list synced")
	return stats, nil
}

// SyncFlowHistory pulls one security's daily capital-flow history.
func (c *Collector) SyncFlowHistory(ctx context.Context, secid string, limit int) (int, error) {
	flows, err := c.provider.FetchFlowHistory(ctx, secid, limit)
	if err != nil {
		return 0, fmt.Errorf("sync flow history %s: %w", secid, err)
	}
	if err := c.flows.SaveBatch(ctx, flows); err != nil {
		return 0, fmt.Errorf("save flow history %s: %w", secid, err)
	}
	return len(flows), nil
}

// SyncAllFlowHistory walks every active security in sequence. One
// security's failure is logged and counted, not fatal; cancellation
// stops the walk.
func (c *Collector) SyncAllFlowHistory(ctx context.Context, limit int) (*SyncStats, error) {
	start := time.Now()

	secids, err := c.stocks.ActiveSecids(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active securities: %w", err)
	}

	stats := &SyncStats{}
	for _, secid := range secids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rows, err := c.SyncFlowHistory(ctx, secid, limit)
		if err != nil {
			stats.Failed++
			c.log.WithError(err).WithField("secid", secid).Error("flow history sync failed")
			continue
		}
		stats.Synced++
		stats.Rows += rows
	}

	stats.Duration = time.Since(start)
	c.log.WithFields(map[string]interface{}{
		"synced":   stats.Synced,
		"failed":   stats.Failed,
		"rows":     stats.Rows,
		"duration": stats.Duration.String(),
	}).Info("flow history sync finished")
	return stats, nil
}

// SyncIndexes refreshes the stored market index snapshots.
func (c *Collector) SyncIndexes(ctx context.Context) error {
	quotes, err := c.provider.FetchIndexQuotes(ctx)
	if err != nil {
		return fmt.Errorf("sync indexes: %w", err)
	}
	if err := c.indexes.SaveBatch(ctx, quotes); err != nil {
		return fmt.Errorf("save index snapshots: %w", err)
	}
	c.log.WithField("indexes", len(quotes)).Debug("index snapshots synced")
	return nil
}
