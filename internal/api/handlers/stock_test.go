package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"flowinsight/internal/indicator"
	"flowinsight/internal/market"
	"flowinsight/pkg/logger"
)

type stubStockLister struct {
	stocks []*market.Stock
	total  int
}

func (s *stubStockLister) List(_ context.Context, page, pageSize int, keyword string) ([]*market.Stock, int, error) {
	return s.stocks, s.total, nil
}

type stubFlowReader struct {
	flows []market.CapitalFlow
	limit int
	from  time.Time
	to    time.Time
}

func (s *stubFlowReader) RecentFlows(_ context.Context, _ string, _ time.Time, limit int) ([]market.CapitalFlow, error) {
	s.limit = limit
	if len(s.flows) > limit {
		return s.flows[:limit], nil
	}
	return s.flows, nil
}

func (s *stubFlowReader) RangeFlows(_ context.Context, _ string, from, to time.Time) ([]market.CapitalFlow, error) {
	s.from = from
	s.to = to
	return s.flows, nil
}

type stubScorer struct {
	score *market.HealthScore
	asOf  time.Time
}

func (s *stubScorer) Score(_ context.Context, secid string, asOf time.Time) (*market.HealthScore, error) {
	s.asOf = asOf
	return s.score, nil
}

func newStockHandler(flows *stubFlowReader, scorer *stubScorer) *StockHandler {
	log := logger.NewWriter(io.Discard)
	return NewStockHandler(
		&stubStockLister{stocks: []*market.Stock{{Secid: "1.600519"}}, total: 1},
		flows,
		scorer,
		indicator.New(log),
		log,
	)
}

func serveStock(h *StockHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/stocks", h.List).Methods("GET")
	r.HandleFunc("/api/stocks/{secid}/health", h.Health).Methods("GET")
	r.HandleFunc("/api/stocks/{secid}/history", h.History).Methods("GET")
	r.HandleFunc("/api/stocks/{secid}/indicators", h.Indicators).Methods("GET")
	return r
}

func TestStockList(t *testing.T) {
	h := newStockHandler(&stubFlowReader{}, &stubScorer{})
	rec := httptest.NewRecorder()
	serveStock(h).ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks?page=2&page_size=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, int64(0), gjson.Get(body, "code").Int())
	assert.Equal(t, int64(1), gjson.Get(body, "data.total").Int())
	assert.Equal(t, int64(2), gjson.Get(body, "data.page").Int())
}

func TestStockHealthBadSecid(t *testing.T) {
	h := newStockHandler(&stubFlowReader{}, &stubScorer{})
	rec := httptest.NewRecorder()
	serveStock(h).ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/600519/health", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int64(-1), gjson.Get(rec.Body.String(), "code").Int())
}

func TestStockHealthWithDate(t *testing.T) {
	scorer := &stubScorer{score: &market.HealthScore{
		Secid:          "1.600519",
		HealthScore:    72,
		TrendDirection: market.TrendInflow,
		RiskLevel:      market.RiskMedium,
	}}
	h := newStockHandler(&stubFlowReader{}, scorer)

	rec := httptest.NewRecorder()
	serveStock(h).ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/1.600519/health?date=2025-07-31", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), scorer.asOf)
	body := rec.Body.String()
	assert.Equal(t, int64(72), gjson.Get(body, "data.health_score").Int())
	assert.Equal(t, "inflow", gjson.Get(body, "data.trend_direction").String())
}

func TestStockHealthRejectsBadDate(t *testing.T) {
	h := newStockHandler(&stubFlowReader{}, &stubScorer{})
	rec := httptest.NewRecorder()
	serveStock(h).ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/1.600519/health?date=31-07-2025", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStockHistory(t *testing.T) {
	flows := &stubFlowReader{flows: []market.CapitalFlow{
		{Secid: "1.600519", TradeDate: time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)},
		{Secid: "1.600519", TradeDate: time.Date(2025, 7, 30, 0, 0, 0, 0, time.UTC)},
	}}
	h := newStockHandler(flows, &stubScorer{})

	rec := httptest.NewRecorder()
	serveStock(h).ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/1.600519/history?days=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, flows.limit)
	assert.Equal(t, int64(2), gjson.Get(rec.Body.String(), "data.count").Int())
}

func TestStockHistoryDateRange(t *testing.T) {
	flows := &stubFlowReader{flows: []market.CapitalFlow{
		{Secid: "1.600519", TradeDate: time.Date(2025, 7, 30, 0, 0, 0, 0, time.UTC)},
	}}
	h := newStockHandler(flows, &stubScorer{})

	rec := httptest.NewRecorder()
	serveStock(h).ServeHTTP(rec, httptest.NewRequest("GET",
		"/api/stocks/1.600519/history?start=2025-07-01&end=2025-07-31", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), flows.from)
	assert.Equal(t, time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), flows.to)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "data.count").Int())
}

func TestStockHistoryRejectsInvertedRange(t *testing.T) {
	h := newStockHandler(&stubFlowReader{}, &stubScorer{})
	rec := httptest.NewRecorder()
	serveStock(h).ServeHTTP(rec, httptest.NewRequest("GET",
		"/api/stocks/1.600519/history?start=2025-07-31&end=2025-07-01", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStockIndicatorsNullSerialization(t *testing.T) {
	// Ten days is enough for KDJ(9,3,3) but not MACD or RSI(14); the
	// uncomputed fields must appear as explicit JSON nulls.
	var flows []market.CapitalFlow
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		c := 100.0 + float64(i)
		flows = append(flows, market.CapitalFlow{
			Secid:      "1.600519",
			TradeDate:  base.AddDate(0, 0, i),
			ClosePrice: c,
			HighPrice:  c + 1,
			LowPrice:   c - 1,
		})
	}
	h := newStockHandler(&stubFlowReader{flows: flows}, &stubScorer{})

	rec := httptest.NewRecorder()
	serveStock(h).ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/1.600519/indicators?days=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Items []map[string]json.RawMessage `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Items, 10)

	first := envelope.Data.Items[0]
	for _, key := range []string{"macd", "macd_signal", "macd_histogram", "kdj_k", "kdj_d", "kdj_j", "rsi"} {
		raw, ok := first[key]
		require.True(t, ok, "key %s must be present", key)
		assert.Equal(t, "null", string(raw), "key %s", key)
	}

	// The ninth frame has a KDJ value but still no MACD or RSI.
	ninth := envelope.Data.Items[8]
	assert.NotEqual(t, "null", string(ninth["kdj_k"]))
	assert.Equal(t, "null", string(ninth["macd"]))
	assert.Equal(t, "null", string(ninth["rsi"]))
}

func TestStockIndicatorsCustomPeriods(t *testing.T) {
	var flows []market.CapitalFlow
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		c := 100.0 + float64(i)
		flows = append(flows, market.CapitalFlow{
			Secid:      "1.600519",
			TradeDate:  base.AddDate(0, 0, i),
			ClosePrice: c,
			HighPrice:  c + 1,
			LowPrice:   c - 1,
		})
	}
	h := newStockHandler(&stubFlowReader{flows: flows}, &stubScorer{})

	rec := httptest.NewRecorder()
	serveStock(h).ServeHTTP(rec, httptest.NewRequest("GET",
		"/api/stocks/1.600519/indicators?days=20&fast=3&slow=6&signal=2&rsi=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	// MACD needs slow+signal = 8 frames, so 20 suffice with the
	// shortened periods.
	last := gjson.Get(body, "data.items.19")
	assert.True(t, last.Get("macd").Exists())
	assert.NotEqual(t, "null", last.Get("macd").Raw)
	assert.NotEqual(t, "null", last.Get("rsi").Raw)
}

func TestStockIndicatorsRejectsBadPeriods(t *testing.T) {
	h := newStockHandler(&stubFlowReader{}, &stubScorer{})
	rec := httptest.NewRecorder()
	serveStock(h).ServeHTTP(rec, httptest.NewRequest("GET",
		"/api/stocks/1.600519/indicators?fast=26&slow=12", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
