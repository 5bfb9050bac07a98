// Package eastmoney wraps the public eastmoney quote endpoints used to
// sync the stock catalog, daily capital-flow history, realtime flow
// rankings and index quotes.
package eastmoney

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"flowinsight/internal/market"
	"flowinsight/pkg/config"
	"flowinsight/pkg/httputil"
	"flowinsight/pkg/logger"
)

const (
	// clist/get fields: f12 code, f13 market, f14 name, f20 total
	// market cap, f21 circulating market cap.
	stockListFields = "f12,f13,f14,f20,f21"
	// A-share main boards, SME and ChiNext/STAR selectors.
	stockListFS  = "m:0 t:6,m:0 t:80,m:1 t:2,m:1 t:23"
	listPageSize = 200

	// Realtime flow ranking fields: price, change, and the five
	// net-inflow buckets.
	flowRankFields = "f12,f13,f14,f2,f3,f62,f66,f69,f72,f75"

	// Index quote fields: code, name, price, change percent.
	indexFields = "f12,f14,f2,f3"
	// Shanghai composite, Shenzhen component, ChiNext.
	indexSecids = "1.000001,0.399001,0.399006"

	// The ulist endpoint sometimes reports f3 as percent*100; values
	// beyond any plausible daily move get divided back down.
	indexChangeDivisorCutoff = 20.0
)

// browser-like headers keep the public endpoints from rejecting us
var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Referer":         "https://www.eastmoney.com/",
	"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
}

// Client talks to the eastmoney public quote API.
type Client struct {
	http        *httputil.Client
	baseURL     string
	histBaseURL string
	log         *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := httputil.New(log, cfg.Eastmoney.Timeout).
		WithRateLimit(cfg.Eastmoney.RequestsPerSec).
		WithHeaders(defaultHeaders)

	return &Client{
		http:        httpClient,
		baseURL:     cfg.Eastmoney.BaseURL,
		histBaseURL: cfg.Eastmoney.HistBaseURL,
		log:         log.WithField("component", "eastmoney"),
	}
}

// FetchStockList pages through the full A-share catalog.
func (c *Client) FetchStockList(ctx context.Context) ([]*market.Stock, error) {
	var stocks []*market.Stock

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("pn", strconv.Itoa(page))
		params.Set("pz", strconv.Itoa(listPageSize))
		params.Set("po", "1")
		params.Set("np", "1")
		params.Set("fltt", "2")
		params.Set("invt", "2")
		params.Set("fid", "f12")
		params.Set("fs", stockListFS)
		params.Set("fields", stockListFields)

		body, err := c.get(ctx, c.baseURL+"/api/qt/clist/get", params)
		if err != nil {
			return nil, fmt.Errorf("fetch stock list page %d: %w", page, err)
		}

		total := gjson.GetBytes(body, "data.total").Int()
		diff := gjson.GetBytes(body, "data.diff")
		if !diff.Exists() {
			break
		}

		before := len(stocks)
		diff.ForEach(func(_, item gjson.Result) bool {
			code := item.Get("f12").String()
			mkt := int(item.Get("f13").Int())
			if code == "" {
				return true
			}
			stocks = append(stocks, &market.Stock{
				StockCode:            code,
				MarketCode:           mkt,
				StockName:            item.Get("f14").String(),
				Secid:                market.FormatSecid(mkt, code),
				TotalMarketCap:       item.Get("f20").Float(),
				CirculatingMarketCap: item.Get("f21").Float(),
				IsActive:             true,
			})
			return true
		})

		if len(stocks) == before || int64(len(stocks)) >= total {
			break
		}
	}

	c.log.WithField("count", len(stocks)).Info("fetched stock list")
	return stocks, nil
}

// FetchFlowHistory returns up to limit daily capital-flow rows for one
// security, oldest first as the provider sends them.
func (c *Client) FetchFlowHistory(ctx context.Context, secid string, limit int) ([]*market.CapitalFlow, error) {
	mkt, code, err := market.ParseSecid(secid)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("lmt", strconv.Itoa(limit))
	params.Set("klt", "101")
	params.Set("fields1", "f1,f2,f3,f7")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61,f62,f63,f64,f65")
	params.Set("secid", secid)

	body, err := c.get(ctx, c.histBaseURL+"/api/qt/stock/fflow/daykline/get", params)
	if err != nil {
		return nil, fmt.Errorf("fetch flow history %s: %w", secid, err)
	}

	var flows []*market.CapitalFlow
	for _, line := range gjson.GetBytes(body, "data.klines").Array() {
		flow, err := parseFlowLine(line.String(), secid, code, mkt)
		if err != nil {
			c.log.WithError(err).WithField("secid", secid).Warn("skipping malformed kline row")
			continue
		}
		flows = append(flows, flow)
	}
	return flows, nil
}

// FetchFlowRanking returns the live capital-flow ranking, largest main
// inflow first, up to limit rows.
func (c *Client) FetchFlowRanking(ctx context.Context, limit int) ([]market.RealtimeFlow, error) {
	params := url.Values{}
	params.Set("pn", "1")
	params.Set("pz", strconv.Itoa(limit))
	params.Set("po", "1")
	params.Set("np", "1")
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fid", "f62")
	params.Set("fs", stockListFS)
	params.Set("fields", flowRankFields)

	body, err := c.get(ctx, c.baseURL+"/api/qt/clist/get", params)
	if err != nil {
		return nil, fmt.Errorf("fetch flow ranking: %w", err)
	}

	var ranking []market.RealtimeFlow
	gjson.GetBytes(body, "data.diff").ForEach(func(_, item gjson.Result) bool {
		code := item.Get("f12").String()
		if code == "" {
			return true
		}
		mkt := int(item.Get("f13").Int())
		ranking = append(ranking, market.RealtimeFlow{
			Secid:               market.FormatSecid(mkt, code),
			StockCode:           code,
			MarketCode:          mkt,
			StockName:           item.Get("f14").String(),
			CurrentPrice:        item.Get("f2").Float(),
			ChangePercent:       item.Get("f3").Float(),
			MainNetInflow:       item.Get("f62").Float(),
			SuperLargeNetInflow: item.Get("f66").Float(),
			LargeNetInflow:      item.Get("f69").Float(),
			MediumNetInflow:     item.Get("f72").Float(),
			SmallNetInflow:      item.Get("f75").Float(),
		})
		return true
	})
	return ranking, nil
}

// FetchIndexQuotes returns current quotes for the three major indexes.
func (c *Client) FetchIndexQuotes(ctx context.Context) ([]market.IndexQuote, error) {
	params := url.Values{}
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fields", indexFields)
	params.Set("secids", indexSecids)

	body, err := c.get(ctx, c.baseURL+"/api/qt/ulist.np/get", params)
	if err != nil {
		return nil, fmt.Errorf("fetch index quotes: %w", err)
	}

	now := time.Now()
	var quotes []market.IndexQuote
	gjson.GetBytes(body, "data.diff").ForEach(func(_, item gjson.Result) bool {
		code := item.Get("f12").String()
		if code == "" {
			return true
		}
		change := item.Get("f3").Float()
		if change > indexChangeDivisorCutoff || change < -indexChangeDivisorCutoff {
			change /= 100
		}
		secid := "1." + code
		if code[0] == '3' {
			secid = "0." + code
		}
		quotes = append(quotes, market.IndexQuote{
			Secid:         secid,
			Name:          item.Get("f14").String(),
			Price:         item.Get("f2").Float(),
			ChangePercent: change,
			FetchedAt:     now,
		})
		return true
	})
	return quotes, nil
}

// get performs the request and validates the provider's rc envelope.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	resp, err := c.http.Get(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if rc := gjson.GetBytes(body, "rc"); rc.Exists() && rc.Int() != 0 {
		return nil, fmt.Errorf("provider returned rc=%d", rc.Int())
	}
	return body, nil
}
