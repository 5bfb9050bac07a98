package jobs

import (
	"context"
	"time"

	"flowinsight/internal/health"
	"flowinsight/pkg/logger"
)

// SecidLister supplies the securities to refresh.
type SecidLister interface {
	ActiveSecids(ctx context.Context) ([]string, error)
}

// HealthRefreshJob recomputes and stores every active security's
// health score once the day's flow data is in.
type HealthRefreshJob struct {
	calc   *health.Calculator
	stocks SecidLister
	log    *logger.Logger
}

func NewHealthRefreshJob(calc *health.Calculator, stocks SecidLister, log *logger.Logger) *HealthRefreshJob {
	return &HealthRefreshJob{calc: calc, stocks: stocks, log: log}
}

func (j *HealthRefreshJob) Name() string {
	return "health_score_refresh"
}

func (j *HealthRefreshJob) Schedule() string {
	return "0 0 19 * * MON-FRI"
}

func (j *HealthRefreshJob) Run(ctx context.Context) error {
	secids, err := j.stocks.ActiveSecids(ctx)
	if err != nil {
		return err
	}

	asOf := time.Now().Truncate(24 * time.Hour)
	failed := 0
	for _, secid := range secids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := j.calc.Refresh(ctx, secid, asOf); err != nil {
			failed++
			j.log.WithError(err).WithField("secid", secid).Warn("health score refresh failed")
		}
	}

	j.log.WithFields(map[string]interface{}{
		"securities": len(secids),
		"failed":     failed,
	}).Info("health scores refreshed")
	return nil
}
