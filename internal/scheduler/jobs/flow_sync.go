// Package jobs holds the concrete scheduled jobs: provider syncs and
// the daily derived-data calculations.
package jobs

import (
	"context"

	"flowinsight/internal/collector"
	"flowinsight/pkg/logger"
)

// FlowSyncJob pulls every active security's daily capital-flow history
// after the market close.
type FlowSyncJob struct {
	collector *collector.Collector
	log       *logger.Logger
}

func NewFlowSyncJob(col *collector.Collector, log *logger.Logger) *FlowSyncJob {
	return &FlowSyncJob{collector: col, log: log}
}

func (j *FlowSyncJob) Name() string {
	return "flow_history_sync"
}

// Schedule runs at 17:30 CST on weekdays, well after the 15:00 close
// so the provider has settled the day's flow data.
func (j *FlowSyncJob) Schedule() string {
	return "0 30 17 * * MON-FRI"
}

func (j *FlowSyncJob) Run(ctx context.Context) error {
	stats, err := j.collector.SyncAllFlowHistory(ctx, collector.DefaultHistoryDepth)
	if err != nil {
		return err
	}
	j.log.WithFields(map[string]interface{}{
		"synced": stats.Synced,
		"failed": stats.Failed,
		"rows":   stats.Rows,
	}).Info("scheduled flow history sync finished")
	return nil
}
