package market

import "time"

// CapitalFlow is one trading day's capital-flow observation for one
// security, as synced from the provider's fund-flow kline endpoint.
// Inflow amounts are signed yuan values; negative means net outflow.
type CapitalFlow struct {
	Secid               string    `json:"secid"`
	StockCode           string    `json:"stock_code"`
	MarketCode          int       `json:"market_code"`
	TradeDate           time.Time `json:"trade_date"`
	MainNetInflow       float64   `json:"main_net_inflow"`
	SuperLargeNetInflow float64   `json:"super_large_net_inflow"`
	LargeNetInflow      float64   `json:"large_net_inflow"`
	MediumNetInflow     float64   `json:"medium_net_inflow"`
	SmallNetInflow      float64   `json:"small_net_inflow"`
	MainNetInflowRatio  float64   `json:"main_net_inflow_ratio"`

	// Price fields come from the same kline row. The provider omits
	// high/low on the fund-flow endpoint, so they can be zero.
	ClosePrice    float64 `json:"close_price"`
	HighPrice     float64 `json:"high_price"`
	LowPrice      float64 `json:"low_price"`
	ChangePercent float64 `json:"change_percent"`

	// Turnover rate is not always provided; nil means unknown.
	TurnoverRate *float64 `json:"turnover_rate"`

	// RawLine preserves the provider's CSV kline string for auditing.
	RawLine string `json:"-"`
}

// IndicatorFrame is a CapitalFlow annotated with computed technical
// indicators. A nil field means "not computed" (insufficient warm-up
// data), which is distinct from a computed zero; it serializes as JSON
// null, never as 0 and never as a missing key.
type IndicatorFrame struct {
	CapitalFlow

	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
	KDJK          *float64 `json:"kdj_k"`
	KDJD          *float64 `json:"kdj_d"`
	KDJJ          *float64 `json:"kdj_j"`
	RSI           *float64 `json:"rsi"`
}

// TrendDirection classifies the 7-day main inflow aggregate.
type TrendDirection string

const (
	TrendInflow  TrendDirection = "inflow"
	TrendOutflow TrendDirection = "outflow"
	TrendStable  TrendDirection = "stable"
	TrendUnknown TrendDirection = "unknown"
)

// RiskLevel classifies the total health score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ScoreDetails holds the four sub-scores and the aggregates they were
// derived from.
type ScoreDetails struct {
	InflowScore      int     `json:"inflow_score"`
	TrendScore       int     `json:"trend_score"`
	PriceScore       int     `json:"price_score"`
	TurnoverScore    int     `json:"turnover_score"`
	MainNetInflow7d  float64 `json:"main_net_inflow_7d"`
	MainNetInflow30d float64 `json:"main_net_inflow_30d"`
}

// HealthScore is the composite 0-100 health rating for one security as
// of one date. It is recomputed from raw history on every call, never
// updated incrementally.
type HealthScore struct {
	Secid            string         `json:"secid"`
	ScoreDate        time.Time      `json:"score_date"`
	HealthScore      int            `json:"health_score"`
	TrendDirection   TrendDirection `json:"trend_direction"`
	RiskLevel        RiskLevel      `json:"risk_level"`
	MainNetInflow7d  float64        `json:"main_net_inflow_7d"`
	MainNetInflow30d float64        `json:"main_net_inflow_30d"`
	Details          ScoreDetails   `json:"score_details"`
	Message          string         `json:"message,omitempty"`
}

// Recommendation is one persisted shortlist row. A full day's shortlist
// is replaced as one batch; rows are never updated in place.
type Recommendation struct {
	RecommendDate    time.Time `json:"recommend_date"`
	StockCode        string    `json:"stock_code"`
	MarketCode       int       `json:"market_code"`
	StockName        string    `json:"stock_name"`
	Secid            string    `json:"secid"`
	CurrentPrice     float64   `json:"current_price"`
	ChangePercent    float64   `json:"change_percent"`
	TotalMainInflow  float64   `json:"total_main_inflow_10d"`
	TotalSmallInflow float64   `json:"total_small_inflow_10d"`
	Volatility       float64   `json:"volatility"`
	MaxChange        float64   `json:"max_change"`
	MinChange        float64   `json:"min_change"`
	Reasons          []string  `json:"recommend_reasons"`
	SortOrder        int       `json:"sort_order"`
}

// Stock is one row of the synced security catalog.
type Stock struct {
	ID                   int64      `json:"id"`
	StockCode            string     `json:"stock_code"`
	MarketCode           int        `json:"market_code"`
	StockName            string     `json:"stock_name"`
	Secid                string     `json:"secid"`
	TotalMarketCap       float64    `json:"total_market_cap"`
	CirculatingMarketCap float64    `json:"circulating_market_cap"`
	IsActive             bool       `json:"is_active"`
	LastSyncTime         *time.Time `json:"last_sync_time"`
}

// RealtimeFlow is one row of the live capital-flow ranking; not persisted.
type RealtimeFlow struct {
	Secid               string  `json:"secid"`
	StockCode           string  `json:"stock_code"`
	MarketCode          int     `json:"market_code"`
	StockName           string  `json:"stock_name"`
	CurrentPrice        float64 `json:"current_price"`
	ChangePercent       float64 `json:"change_percent"`
	MainNetInflow       float64 `json:"main_net_inflow"`
	SuperLargeNetInflow float64 `json:"super_large_net_inflow"`
	LargeNetInflow      float64 `json:"large_net_inflow"`
	MediumNetInflow     float64 `json:"medium_net_inflow"`
	SmallNetInflow      float64 `json:"small_net_inflow"`
}

// IndexQuote is one market index snapshot.
type IndexQuote struct {
	Secid         string    `json:"secid"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
	FetchedAt     time.Time `json:"fetched_at"`
}
