package indicator

import "flowinsight/internal/market"

// MACDParams holds the fast/slow/signal EMA periods.
type MACDParams struct {
	Fast   int
	Slow   int
	Signal int
}

// MACD annotates frames with macd, macd_signal and macd_histogram.
// Frames shorter than slow+signal are returned unchanged with a
// warning; the indicator fields stay nil rather than zero so callers
// can tell "not computed" from "computed as zero".
func (c *Calculator) MACD(frames []market.IndicatorFrame, p MACDParams) []market.IndicatorFrame {
	sortByDate(frames)

	if len(frames) < p.Slow+p.Signal {
		c.log.WithFields(map[string]interface{}{
			"frames": len(frames),
			"need":   p.Slow + p.Signal,
		}).Warn("insufficient history for MACD")
		return frames
	}

	closes := closePrices(frames)
	fast := EMA(closes, p.Fast)
	slow := EMA(closes, p.Slow)

	macd := make([]*float64, len(frames))
	for i := range frames {
		if fast[i] != nil && slow[i] != nil {
			macd[i] = ptr(*fast[i] - *slow[i])
		}
	}

	// The signal EMA runs over the compacted run of present MACD
	// values; its results are scattered back to the original sparse
	// positions in order.
	indices := make([]int, 0, len(macd))
	present := make([]float64, 0, len(macd))
	for i, m := range macd {
		if m != nil {
			indices = append(indices, i)
			present = append(present, *m)
		}
	}

	signal := make([]*float64, len(frames))
	for n, s := range EMA(present, p.Signal) {
		signal[indices[n]] = s
	}

	for i := range frames {
		frames[i].MACD = macd[i]
		frames[i].MACDSignal = signal[i]
		if macd[i] != nil && signal[i] != nil {
			frames[i].MACDHistogram = ptr(*macd[i] - *signal[i])
		}
	}
	return frames
}
