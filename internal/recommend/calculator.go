package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"flowinsight/internal/market"
	"flowinsight/pkg/logger"
)

// Defaults for the daily shortlist run.
const (
	DefaultWindowDays = 10
	DefaultLimit      = 10
)

// Reason tags attached to shortlist entries. Non-exclusive; an entry
// carries every tag whose condition holds.
const (
	ReasonLargeFundAccumulation = "sustained large-fund accumulation"
	ReasonShakeoutVolatility    = "shakeout volatility"
	ReasonRetailExit            = "retail exit"
	ReasonInstitutionalInflow   = "pronounced institutional inflow"
)

// WindowStats is one security's aggregated capital-flow window, as
// pre-aggregated by the storage layer. Volatility is the population
// standard deviation of the window's daily change percentages.
type WindowStats struct {
	Secid               string
	StockCode           string
	MarketCode          int
	StockName           string
	TradingDays         int
	TotalMainInflow     float64
	TotalSmallInflow    float64
	MaxChange           float64
	MinChange           float64
	AvgChange           float64
	Volatility          float64
	LatestClose         float64
	LatestChangePercent float64
}

// CandidateSource yields window aggregates for every security with at
// least minDays distinct trading days inside [from, to].
type CandidateSource interface {
	WindowStats(ctx context.Context, from, to time.Time, minDays int) ([]WindowStats, error)
}

// Store replaces a full day's shortlist atomically.
type Store interface {
	ReplaceForDate(ctx context.Context, date time.Time, entries []market.Recommendation) error
}

// Calculator builds the daily recommendation shortlist by scanning
// aggregated capital-flow windows against a fixed rule set.
type Calculator struct {
	source CandidateSource
	store  Store
	log    *logger.Logger
}

func New(source CandidateSource, store Store, log *logger.Logger) *Calculator {
	return &Calculator{
		source: source,
		store:  store,
		log:    log.WithField("component", "recommend"),
	}
}

// Calculate produces the shortlist for asOf over the trailing
// windowDays, ranked by total main inflow and truncated to limit.
// The 60% trading-day floor tolerates weekends and holidays inside
// the calendar window.
func (c *Calculator) Calculate(ctx context.Context, asOf time.Time, windowDays, limit int) ([]market.Recommendation, error) {
	minDays := int(float64(windowDays) * 0.6)
	if minDays < 6 {
		minDays = 6
	}
	from := asOf.AddDate(0, 0, -windowDays)

	stats, err := c.source.WindowStats(ctx, from, asOf, minDays)
	if err != nil {
		return nil, fmt.Errorf("load candidate windows: %w", err)
	}

	entries := make([]market.Recommendation, 0, limit)
	for _, s := range stats {
		if !eligible(s) {
			continue
		}
		entries = append(entries, market.Recommendation{
			RecommendDate:    asOf,
			StockCode:        s.StockCode,
			MarketCode:       s.MarketCode,
			StockName:        s.StockName,
			Secid:            s.Secid,
			CurrentPrice:     s.LatestClose,
			ChangePercent:    s.LatestChangePercent,
			TotalMainInflow:  s.TotalMainInflow,
			TotalSmallInflow: s.TotalSmallInflow,
			Volatility:       s.Volatility,
			MaxChange:        s.MaxChange,
			MinChange:        s.MinChange,
			Reasons:          reasons(s),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalMainInflow > entries[j].TotalMainInflow
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].SortOrder = i + 1
	}

	c.log.WithFields(map[string]interface{}{
		"date":       asOf.Format("2006-01-02"),
		"candidates": len(stats),
		"selected":   len(entries),
	}).Info("recommendation shortlist calculated")
	return entries, nil
}

// CalculateAndSave computes the shortlist and atomically replaces the
// persisted one for asOf, even when the new shortlist is empty.
func (c *Calculator) CalculateAndSave(ctx context.Context, asOf time.Time, windowDays, limit int) ([]market.Recommendation, error) {
	entries, err := c.Calculate(ctx, asOf, windowDays, limit)
	if err != nil {
		return nil, err
	}
	if err := c.store.ReplaceForDate(ctx, asOf, entries); err != nil {
		return nil, fmt.Errorf("persist shortlist for %s: %w", asOf.Format("2006-01-02"), err)
	}
	return entries, nil
}

// eligible applies the inclusion rule set. The inflow band excludes
// both weak accumulation and the kind of outsized inflow that usually
// means the move already happened; the change band keeps out stocks
// that hit limit-up or limit-down inside the window.
func eligible(s WindowStats) bool {
	if s.TotalMainInflow < 5e7 || s.TotalMainInflow >= 5e8 {
		return false
	}
	if s.MaxChange < -8 || s.MaxChange > 8 {
		return false
	}
	if s.MinChange < -8 || s.MinChange > 8 {
		return false
	}
	if s.TotalSmallInflow >= 0 {
		return false
	}
	if s.Volatility <= 1.0 {
		return false
	}
	if s.LatestClose <= 0 || s.LatestClose >= 100 {
		return false
	}
	return true
}

func reasons(s WindowStats) []string {
	var out []string
	if s.TotalMainInflow > 1e8 {
		out = append(out, ReasonLargeFundAccumulation)
	}
	if s.Volatility > 2.0 {
		out = append(out, ReasonShakeoutVolatility)
	}
	if s.TotalSmallInflow < -1e7 {
		out = append(out, ReasonRetailExit)
	}
	if s.TotalMainInflow > 2e8 {
		out = append(out, ReasonInstitutionalInflow)
	}
	return out
}
