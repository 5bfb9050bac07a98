package health

import (
	"context"
	"fmt"
	"time"

	"flowinsight/internal/market"
	"flowinsight/pkg/logger"
)

// FlowHistory supplies recent capital-flow rows for one security,
// newest first, at most limit rows with trade dates on or before asOf.
type FlowHistory interface {
	RecentFlows(ctx context.Context, secid string, asOf time.Time, limit int) ([]market.CapitalFlow, error)
}

// ScoreStore persists computed scores keyed by (secid, score date).
type ScoreStore interface {
	UpsertScore(ctx context.Context, score *market.HealthScore) error
}

const historyWindow = 30

// Calculator derives the 0-100 composite health score from recent
// capital-flow history. Every call recomputes from raw rows; nothing
// is carried over between calls.
type Calculator struct {
	flows FlowHistory
	store ScoreStore
	log   *logger.Logger
}

func New(flows FlowHistory, store ScoreStore, log *logger.Logger) *Calculator {
	return &Calculator{
		flows: flows,
		store: store,
		log:   log.WithField("component", "health"),
	}
}

// Score computes the health score for secid as of the given date. A
// security with no history at all yields the degenerate zero score,
// not an error.
func (c *Calculator) Score(ctx context.Context, secid string, asOf time.Time) (*market.HealthScore, error) {
	rows, err := c.flows.RecentFlows(ctx, secid, asOf, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load flow history for %s: %w", secid, err)
	}

	if len(rows) == 0 {
		c.log.WithField("secid", secid).Warn("no capital-flow history, returning zero score")
		return &market.HealthScore{
			Secid:          secid,
			ScoreDate:      asOf,
			HealthScore:    0,
			TrendDirection: market.TrendUnknown,
			RiskLevel:      market.RiskHigh,
			Message:        "no capital-flow history available",
		}, nil
	}

	recent7 := rows
	if len(recent7) > 7 {
		recent7 = recent7[:7]
	}

	var sum7, sum30 float64
	for _, r := range rows {
		sum30 += r.MainNetInflow
	}
	for _, r := range recent7 {
		sum7 += r.MainNetInflow
	}

	details := market.ScoreDetails{
		InflowScore:      inflowScore(sum7),
		TrendScore:       trendScore(recent7),
		PriceScore:       priceScore(recent7),
		TurnoverScore:    turnoverScore(recent7),
		MainNetInflow7d:  sum7,
		MainNetInflow30d: sum30,
	}
	total := details.InflowScore + details.TrendScore + details.PriceScore + details.TurnoverScore

	return &market.HealthScore{
		Secid:            secid,
		ScoreDate:        asOf,
		HealthScore:      total,
		TrendDirection:   trendDirection(sum7),
		RiskLevel:        riskLevel(total),
		MainNetInflow7d:  sum7,
		MainNetInflow30d: sum30,
		Details:          details,
	}, nil
}

// Refresh computes the score and persists it.
func (c *Calculator) Refresh(ctx context.Context, secid string, asOf time.Time) (*market.HealthScore, error) {
	score, err := c.Score(ctx, secid, asOf)
	if err != nil {
		return nil, err
	}
	if err := c.store.UpsertScore(ctx, score); err != nil {
		return nil, fmt.Errorf("persist health score for %s: %w", secid, err)
	}
	return score, nil
}

// inflowScore rates the 7-day main inflow aggregate, max 40.
func inflowScore(sum7 float64) int {
	switch {
	case sum7 > 1e8:
		return 40
	case sum7 > 5e7:
		return 30
	case sum7 > 0:
		return 20
	default:
		return 0
	}
}

// trendScore rates inflow momentum over the recent rows (newest
// first), max 30. Fewer than three days of history earns the benefit
// of the doubt rather than the floor.
func trendScore(recent []market.CapitalFlow) int {
	if len(recent) < 3 {
		return 10
	}

	accelerating := recent[0].MainNetInflow > recent[1].MainNetInflow &&
		recent[1].MainNetInflow > recent[2].MainNetInflow &&
		recent[2].MainNetInflow > 0
	if accelerating {
		return 30
	}

	positive := 0
	for _, r := range recent {
		if r.MainNetInflow > 0 {
			positive++
		}
	}
	switch {
	case positive >= 3:
		return 25
	case positive >= 2:
		return 15
	default:
		return 5
	}
}

// priceScore rates the average daily change over the recent rows, max 20.
func priceScore(recent []market.CapitalFlow) int {
	if len(recent) == 0 {
		return 10
	}
	var sum float64
	for _, r := range recent {
		sum += r.ChangePercent
	}
	avg := sum / float64(len(recent))
	switch {
	case avg > 3:
		return 20
	case avg > 1:
		return 15
	case avg > 0:
		return 10
	default:
		return 5
	}
}

// turnoverScore rates the average turnover rate where known, max 10.
func turnoverScore(recent []market.CapitalFlow) int {
	var sum float64
	n := 0
	for _, r := range recent {
		if r.TurnoverRate != nil {
			sum += *r.TurnoverRate
			n++
		}
	}
	if n == 0 {
		return 5
	}
	avg := sum / float64(n)
	switch {
	case avg > 5:
		return 10
	case avg > 3:
		return 7
	case avg > 1:
		return 5
	default:
		return 2
	}
}

func trendDirection(sum7 float64) market.TrendDirection {
	switch {
	case sum7 > 5e7:
		return market.TrendInflow
	case sum7 < -5e7:
		return market.TrendOutflow
	default:
		return market.TrendStable
	}
}

func riskLevel(score int) market.RiskLevel {
	switch {
	case score >= 80:
		return market.RiskLow
	case score >= 60:
		return market.RiskMedium
	default:
		return market.RiskHigh
	}
}
