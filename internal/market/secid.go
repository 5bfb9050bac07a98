package market

import (
	"fmt"
	"strconv"
	"strings"
)

// Market codes as used by the quote provider.
const (
	MarketSZ = 0 // Shenzhen
	MarketSH = 1 // Shanghai
)

// ParseSecid splits a "market.code" security identifier such as
// "1.600519" into its market code and stock code parts.
func ParseSecid(secid string) (int, string, error) {
	parts := strings.SplitN(secid, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return 0, "", fmt.Errorf("malformed secid %q", secid)
	}
	mkt, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("malformed secid %q: %w", secid, err)
	}
	if mkt != MarketSZ && mkt != MarketSH {
		return 0, "", fmt.Errorf("secid %q: unknown market %d", secid, mkt)
	}
	return mkt, parts[1], nil
}

// FormatSecid builds the provider's "market.code" identifier.
func FormatSecid(marketCode int, stockCode string) string {
	return strconv.Itoa(marketCode) + "." + stockCode
}

// SecidForCode infers the market from a bare 6-digit A-share code.
// Shanghai codes start with 6, Shenzhen with 0 or 3.
func SecidForCode(stockCode string) (string, error) {
	if len(stockCode) != 6 {
		return "", fmt.Errorf("stock code %q: want 6 digits", stockCode)
	}
	switch stockCode[0] {
	case '6':
		return FormatSecid(MarketSH, stockCode), nil
	case '0', '3':
		return FormatSecid(MarketSZ, stockCode), nil
	}
	return "", fmt.Errorf("stock code %q: cannot infer market", stockCode)
}
