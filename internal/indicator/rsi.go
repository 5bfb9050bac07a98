package indicator

import "flowinsight/internal/market"

// RSI annotates frames with rsi over the close-price series. Frames
// shorter than period+1 are returned unchanged with a warning; the
// first frame never gets a value because it has no prior close to
// difference against.
func (c *Calculator) RSI(frames []market.IndicatorFrame, period int) []market.IndicatorFrame {
	sortByDate(frames)

	if len(frames) < period+1 {
		c.log.WithFields(map[string]interface{}{
			"frames": len(frames),
			"need":   period + 1,
		}).Warn("insufficient history for RSI")
		return frames
	}

	closes := closePrices(frames)
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain := EMA(gains, period)
	avgLoss := EMA(losses, period)

	// The change series is one shorter than the frame series, so
	// frame i reads the averages at i-1.
	for i := 1; i < len(frames); i++ {
		g, l := avgGain[i-1], avgLoss[i-1]
		if g == nil || l == nil {
			continue
		}
		if *l == 0 {
			frames[i].RSI = ptr(100.0)
			continue
		}
		rs := *g / *l
		frames[i].RSI = ptr(100 - 100/(1+rs))
	}
	return frames
}
