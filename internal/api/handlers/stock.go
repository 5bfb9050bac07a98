package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"flowinsight/internal/indicator"
	"flowinsight/internal/market"
	"flowinsight/pkg/logger"
)

// StockLister pages through the security catalog.
type StockLister interface {
	List(ctx context.Context, page, pageSize int, keyword string) ([]*market.Stock, int, error)
}

// FlowReader supplies capital-flow rows, either the newest N or an
// explicit date range.
type FlowReader interface {
	RecentFlows(ctx context.Context, secid string, asOf time.Time, limit int) ([]market.CapitalFlow, error)
	RangeFlows(ctx context.Context, secid string, from, to time.Time) ([]market.CapitalFlow, error)
}

// HealthScorer computes a health score on demand.
type HealthScorer interface {
	Score(ctx context.Context, secid string, asOf time.Time) (*market.HealthScore, error)
}

// StockHandler serves the catalog, per-security history, indicators
// and health score endpoints.
type StockHandler struct {
	stocks     StockLister
	flows      FlowReader
	scorer     HealthScorer
	indicators *indicator.Calculator
	log        *logger.Logger
}

func NewStockHandler(stocks StockLister, flows FlowReader, scorer HealthScorer, indicators *indicator.Calculator, log *logger.Logger) *StockHandler {
	return &StockHandler{
		stocks:     stocks,
		flows:      flows,
		scorer:     scorer,
		indicators: indicators,
		log:        log,
	}
}

// List handles GET /api/stocks?page=&page_size=&keyword=.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	keyword := r.URL.Query().Get("keyword")

	stocks, total, err := h.stocks.List(r.Context(), page, pageSize, keyword)
	if err != nil {
		h.log.WithError(err).Error("stock list query failed")
		respondError(w, http.StatusInternalServerError, "failed to load stock list")
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"items":     stocks,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Health handles GET /api/stocks/{secid}/health?date=2025-07-31.
func (h *StockHandler) Health(w http.ResponseWriter, r *http.Request) {
	secid := mux.Vars(r)["secid"]
	if _, _, err := market.ParseSecid(secid); err != nil {
		respondError(w, http.StatusBadRequest, "invalid secid")
		return
	}

	asOf, ok := queryDate(w, r, "date")
	if !ok {
		return
	}

	score, err := h.scorer.Score(r.Context(), secid, asOf)
	if err != nil {
		h.log.WithError(err).WithField("secid", secid).Error("health score failed")
		respondError(w, http.StatusInternalServerError, "failed to compute health score")
		return
	}
	respondData(w, http.StatusOK, score)
}

// History handles GET /api/stocks/{secid}/history?days=30, newest
// rows first. When both start and end are given the range wins over
// days and rows come back oldest first.
func (h *StockHandler) History(w http.ResponseWriter, r *http.Request) {
	secid := mux.Vars(r)["secid"]
	if _, _, err := market.ParseSecid(secid); err != nil {
		respondError(w, http.StatusBadRequest, "invalid secid")
		return
	}

	var flows []market.CapitalFlow
	var err error
	if r.URL.Query().Get("start") != "" && r.URL.Query().Get("end") != "" {
		start, ok := queryDate(w, r, "start")
		if !ok {
			return
		}
		end, ok := queryDate(w, r, "end")
		if !ok {
			return
		}
		if end.Before(start) {
			respondError(w, http.StatusBadRequest, "end before start")
			return
		}
		flows, err = h.flows.RangeFlows(r.Context(), secid, start, end)
	} else {
		days := queryInt(r, "days", 30)
		if days < 1 || days > 250 {
			days = 30
		}
		flows, err = h.flows.RecentFlows(r.Context(), secid, time.Now(), days)
	}
	if err != nil {
		h.log.WithError(err).WithField("secid", secid).Error("history query failed")
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"secid": secid,
		"items": flows,
		"count": len(flows),
	})
}

// Indicators handles GET /api/stocks/{secid}/indicators. Periods come
// from the query (fast, slow, signal, rsv, k, d, rsi); omitted ones
// fall back to the calculator's defaults. Warm-up gaps serialize as
// null, never zero.
func (h *StockHandler) Indicators(w http.ResponseWriter, r *http.Request) {
	secid := mux.Vars(r)["secid"]
	if _, _, err := market.ParseSecid(secid); err != nil {
		respondError(w, http.StatusBadRequest, "invalid secid")
		return
	}
	days := queryInt(r, "days", 250)
	if days < 1 || days > 250 {
		days = 250
	}

	macdParams := indicator.MACDParams{
		Fast:   queryInt(r, "fast", indicator.DefaultMACD.Fast),
		Slow:   queryInt(r, "slow", indicator.DefaultMACD.Slow),
		Signal: queryInt(r, "signal", indicator.DefaultMACD.Signal),
	}
	kdjParams := indicator.KDJParams{
		RSVPeriod: queryInt(r, "rsv", indicator.DefaultKDJ.RSVPeriod),
		KSmooth:   queryInt(r, "k", indicator.DefaultKDJ.KSmooth),
		DSmooth:   queryInt(r, "d", indicator.DefaultKDJ.DSmooth),
	}
	rsiPeriod := queryInt(r, "rsi", indicator.DefaultRSIPeriod)
	if macdParams.Fast < 1 || macdParams.Slow <= macdParams.Fast || macdParams.Signal < 1 ||
		kdjParams.RSVPeriod < 1 || kdjParams.KSmooth < 1 || kdjParams.DSmooth < 1 || rsiPeriod < 1 {
		respondError(w, http.StatusBadRequest, "invalid indicator periods")
		return
	}

	flows, err := h.flows.RecentFlows(r.Context(), secid, time.Now(), days)
	if err != nil {
		h.log.WithError(err).WithField("secid", secid).Error("indicator history query failed")
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	frames := make([]market.IndicatorFrame, len(flows))
	for i, f := range flows {
		frames[i] = market.IndicatorFrame{CapitalFlow: f}
	}
	frames = h.indicators.AllWith(frames, macdParams, kdjParams, rsiPeriod)

	respondData(w, http.StatusOK, map[string]interface{}{
		"secid": secid,
		"items": frames,
		"count": len(frames),
	})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// queryDate parses an optional YYYY-MM-DD parameter, defaulting to
// today. It writes the error response itself when the value is bad.
func queryDate(w http.ResponseWriter, r *http.Request, key string) (time.Time, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return time.Now().Truncate(24 * time.Hour), true
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}
