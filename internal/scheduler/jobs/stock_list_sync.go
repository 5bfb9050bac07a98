package jobs

import (
	"context"

	"flowinsight/internal/collector"
	"flowinsight/pkg/logger"
)

// StockListSyncJob refreshes the security catalog nightly, picking up
// listings and delistings.
type StockListSyncJob struct {
	collector *collector.Collector
	log       *logger.Logger
}

func NewStockListSyncJob(col *collector.Collector, log *logger.Logger) *StockListSyncJob {
	return &StockListSyncJob{collector: col, log: log}
}

func (j *StockListSyncJob) Name() string {
	return "stock_list_sync"
}

func (j *StockListSyncJob) Schedule() string {
	return "0 0 2 * * *"
}

func (j *StockListSyncJob) Run(ctx context.Context) error {
	_, err := j.collector.SyncStockList(ctx)
	return err
}
