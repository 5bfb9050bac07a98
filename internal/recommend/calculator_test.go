package recommend

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowinsight/internal/market"
	"flowinsight/pkg/logger"
)

type stubSource struct {
	stats   []WindowStats
	from    time.Time
	to      time.Time
	minDays int
}

func (s *stubSource) WindowStats(_ context.Context, from, to time.Time, minDays int) ([]WindowStats, error) {
	s.from, s.to, s.minDays = from, to, minDays
	return s.stats, nil
}

type stubStore struct {
	date    time.Time
	entries []market.Recommendation
	calls   int
}

func (s *stubStore) ReplaceForDate(_ context.Context, date time.Time, entries []market.Recommendation) error {
	s.date, s.entries = date, entries
	s.calls++
	return nil
}

var asOf = time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)

// goodStats returns a candidate that passes every inclusion rule.
func goodStats(secid string, mainInflow float64) WindowStats {
	return WindowStats{
		Secid:            secid,
		StockCode:        "600519",
		MarketCode:       market.MarketSH,
		StockName:        "demo",
		TradingDays:      8,
		TotalMainInflow:  mainInflow,
		TotalSmallInflow: -5e6,
		MaxChange:        4.2,
		MinChange:        -3.1,
		Volatility:       1.8,
		LatestClose:      42.5,
	}
}

func newTestCalculator(stats []WindowStats) (*Calculator, *stubSource, *stubStore) {
	source := &stubSource{stats: stats}
	store := &stubStore{}
	return New(source, store, logger.NewWriter(io.Discard)), source, store
}

func TestCalculateWindowBounds(t *testing.T) {
	calc, source, _ := newTestCalculator(nil)

	_, err := calc.Calculate(context.Background(), asOf, 10, 10)
	require.NoError(t, err)

	assert.Equal(t, asOf.AddDate(0, 0, -10), source.from)
	assert.Equal(t, asOf, source.to)
	assert.Equal(t, 6, source.minDays)
}

func TestCalculateMinDaysFloor(t *testing.T) {
	calc, source, _ := newTestCalculator(nil)

	_, err := calc.Calculate(context.Background(), asOf, 20, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, source.minDays)

	_, err = calc.Calculate(context.Background(), asOf, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, 6, source.minDays)
}

func TestCalculateInclusionRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WindowStats)
		want   bool
	}{
		{name: "baseline passes", mutate: func(*WindowStats) {}, want: true},
		{name: "inflow below band", mutate: func(s *WindowStats) { s.TotalMainInflow = 4e7 }, want: false},
		{name: "inflow at upper bound excluded", mutate: func(s *WindowStats) { s.TotalMainInflow = 5e8 }, want: false},
		{name: "oversized inflow excluded", mutate: func(s *WindowStats) { s.TotalMainInflow = 6e8 }, want: false},
		{name: "inflow at lower bound included", mutate: func(s *WindowStats) { s.TotalMainInflow = 5e7 }, want: true},
		{name: "limit-up day excluded", mutate: func(s *WindowStats) { s.MaxChange = 9.9 }, want: false},
		{name: "limit-down day excluded", mutate: func(s *WindowStats) { s.MinChange = -9.5 }, want: false},
		{name: "retail still buying excluded", mutate: func(s *WindowStats) { s.TotalSmallInflow = 1e6 }, want: false},
		{name: "flat retail excluded", mutate: func(s *WindowStats) { s.TotalSmallInflow = 0 }, want: false},
		{name: "too calm excluded", mutate: func(s *WindowStats) { s.Volatility = 0.8 }, want: false},
		{name: "volatility boundary excluded", mutate: func(s *WindowStats) { s.Volatility = 1.0 }, want: false},
		{name: "price too high excluded", mutate: func(s *WindowStats) { s.LatestClose = 120 }, want: false},
		{name: "zero price excluded", mutate: func(s *WindowStats) { s.LatestClose = 0 }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := goodStats("1.600519", 1.5e8)
			tt.mutate(&stats)
			calc, _, _ := newTestCalculator([]WindowStats{stats})

			entries, err := calc.Calculate(context.Background(), asOf, 10, 10)
			require.NoError(t, err)
			if tt.want {
				assert.Len(t, entries, 1)
			} else {
				assert.Empty(t, entries)
			}
		})
	}
}

func TestCalculateReasons(t *testing.T) {
	stats := goodStats("1.600519", 2.5e8)
	stats.Volatility = 2.4
	stats.TotalSmallInflow = -2e7
	calc, _, _ := newTestCalculator([]WindowStats{stats})

	entries, err := calc.Calculate(context.Background(), asOf, 10, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{
		ReasonLargeFundAccumulation,
		ReasonShakeoutVolatility,
		ReasonRetailExit,
		ReasonInstitutionalInflow,
	}, entries[0].Reasons)
}

func TestCalculateMinimalReasons(t *testing.T) {
	calc, _, _ := newTestCalculator([]WindowStats{goodStats("1.600519", 8e7)})

	entries, err := calc.Calculate(context.Background(), asOf, 10, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Reasons)
}

func TestCalculateRankingAndLimit(t *testing.T) {
	stats := []WindowStats{
		goodStats("1.600001", 9e7),
		goodStats("0.000002", 3e8),
		goodStats("1.600003", 1.2e8),
		goodStats("0.000004", 2e8),
	}
	calc, _, _ := newTestCalculator(stats)

	entries, err := calc.Calculate(context.Background(), asOf, 10, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "0.000002", entries[0].Secid)
	assert.Equal(t, "0.000004", entries[1].Secid)
	assert.Equal(t, "1.600003", entries[2].Secid)
	for i, e := range entries {
		assert.Equal(t, i+1, e.SortOrder)
		assert.Equal(t, asOf, e.RecommendDate)
	}
}

func TestCalculateAndSaveReplaces(t *testing.T) {
	calc, _, store := newTestCalculator([]WindowStats{goodStats("1.600519", 1.5e8)})

	entries, err := calc.CalculateAndSave(context.Background(), asOf, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, asOf, store.date)
	assert.Equal(t, entries, store.entries)
}

func TestCalculateAndSaveEmptyStillReplaces(t *testing.T) {
	// An empty shortlist must still wipe the previous day's rows.
	calc, _, store := newTestCalculator(nil)

	entries, err := calc.CalculateAndSave(context.Background(), asOf, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 1, store.calls)
}
