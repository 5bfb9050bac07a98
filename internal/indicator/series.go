package indicator

import (
	"sort"

	"flowinsight/internal/market"
)

// sortByDate orders frames ascending by trade date in place. All
// indicator recursions assume oldest-first input; repositories return
// newest-first, so every entry point re-sorts defensively.
func sortByDate(frames []market.IndicatorFrame) {
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].TradeDate.Before(frames[j].TradeDate)
	})
}

func closePrices(frames []market.IndicatorFrame) []float64 {
	out := make([]float64, len(frames))
	for i := range frames {
		out[i] = frames[i].ClosePrice
	}
	return out
}
