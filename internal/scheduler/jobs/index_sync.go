package jobs

import (
	"context"

	"flowinsight/internal/collector"
	"flowinsight/pkg/logger"
)

// IndexSyncJob refreshes the market index snapshots during trading
// hours.
type IndexSyncJob struct {
	collector *collector.Collector
	log       *logger.Logger
}

func NewIndexSyncJob(col *collector.Collector, log *logger.Logger) *IndexSyncJob {
	return &IndexSyncJob{collector: col, log: log}
}

func (j *IndexSyncJob) Name() string {
	return "index_sync"
}

// Schedule runs every 30 minutes on weekdays. Off-hours runs just
// store the closing quote again, which is harmless.
func (j *IndexSyncJob) Schedule() string {
	return "0 */30 * * * MON-FRI"
}

func (j *IndexSyncJob) Run(ctx context.Context) error {
	return j.collector.SyncIndexes(ctx)
}
