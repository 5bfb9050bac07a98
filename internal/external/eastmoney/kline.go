package eastmoney

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"flowinsight/internal/market"
)

// The fund-flow kline row is a comma-joined string. Positions:
// 0 trade date, 1 main net inflow, 2 small, 3 medium, 4 large,
// 5 super large, 6 main inflow ratio, 11 close price, 12 change
// percent. The remaining slots are ratios this service does not use.
const minKlineParts = 15

func parseFlowLine(line, secid, code string, mkt int) (*market.CapitalFlow, error) {
	parts := strings.Split(line, ",")
	if len(parts) < minKlineParts {
		return nil, fmt.Errorf("kline row has %d fields, want %d", len(parts), minKlineParts)
	}

	tradeDate, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return nil, fmt.Errorf("kline trade date %q: %w", parts[0], err)
	}

	flow := &market.CapitalFlow{
		Secid:      secid,
		StockCode:  code,
		MarketCode: mkt,
		TradeDate:  tradeDate,
		RawLine:    line,
	}
	flow.MainNetInflow = parseAmount(parts[1])
	flow.SmallNetInflow = parseAmount(parts[2])
	flow.MediumNetInflow = parseAmount(parts[3])
	flow.LargeNetInflow = parseAmount(parts[4])
	flow.SuperLargeNetInflow = parseAmount(parts[5])
	flow.MainNetInflowRatio = parseAmount(parts[6])
	flow.ClosePrice = parseAmount(parts[11])
	flow.ChangePercent = parseAmount(parts[12])
	return flow, nil
}

// parseAmount treats the provider's "-" placeholder and junk as 0.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
