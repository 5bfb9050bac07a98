package jobs

import (
	"context"
	"time"

	"flowinsight/internal/recommend"
	"flowinsight/pkg/logger"
)

// RecommendationJob recalculates and persists the daily shortlist
// after the flow history sync has landed.
type RecommendationJob struct {
	calc       *recommend.Calculator
	windowDays int
	limit      int
	log        *logger.Logger
}

func NewRecommendationJob(calc *recommend.Calculator, windowDays, limit int, log *logger.Logger) *RecommendationJob {
	return &RecommendationJob{calc: calc, windowDays: windowDays, limit: limit, log: log}
}

func (j *RecommendationJob) Name() string {
	return "daily_recommendations"
}

// Schedule runs at 18:30 CST on weekdays, an hour after the flow sync
// starts.
func (j *RecommendationJob) Schedule() string {
	return "0 30 18 * * MON-FRI"
}

func (j *RecommendationJob) Run(ctx context.Context) error {
	asOf := time.Now().Truncate(24 * time.Hour)
	entries, err := j.calc.CalculateAndSave(ctx, asOf, j.windowDays, j.limit)
	if err != nil {
		return err
	}
	j.log.WithField("selected", len(entries)).Info("daily shortlist stored")
	return nil
}
