package indicator

import "flowinsight/internal/market"

// KDJParams holds the RSV lookback window and the K/D smoothing spans.
type KDJParams struct {
	RSVPeriod int
	KSmooth   int
	DSmooth   int
}

// KDJ annotates frames with kdj_k, kdj_d and kdj_j. Frames shorter
// than the RSV window are returned unchanged with a warning.
//
// RSV measures where the close sits inside the trailing high/low
// range, scaled to 0..100; a zero-range window counts as neutral 50.
// K seeds from the first RSV and smooths forward, D seeds from the
// first K, and J = 3K - 2D may leave [0,100] by design of the formula.
func (c *Calculator) KDJ(frames []market.IndicatorFrame, p KDJParams) []market.IndicatorFrame {
	sortByDate(frames)

	if len(frames) < p.RSVPeriod {
		c.log.WithFields(map[string]interface{}{
			"frames": len(frames),
			"need":   p.RSVPeriod,
		}).Warn("insufficient history for KDJ")
		return frames
	}

	kAlphaPrev := 2.0 / float64(p.KSmooth+1)
	kAlphaNew := 1.0 / float64(p.KSmooth+1)
	dAlphaPrev := 2.0 / float64(p.DSmooth+1)
	dAlphaNew := 1.0 / float64(p.DSmooth+1)

	var prevK, prevD float64
	seeded := false

	for i := p.RSVPeriod - 1; i < len(frames); i++ {
		minLow := frames[i-p.RSVPeriod+1].LowPrice
		maxHigh := frames[i-p.RSVPeriod+1].HighPrice
		for _, f := range frames[i-p.RSVPeriod+2 : i+1] {
			if f.LowPrice < minLow {
				minLow = f.LowPrice
			}
			if f.HighPrice > maxHigh {
				maxHigh = f.HighPrice
			}
		}

		rsv := 50.0
		if maxHigh != minLow {
			rsv = (frames[i].ClosePrice - minLow) / (maxHigh - minLow) * 100
		}

		if !seeded {
			prevK = rsv
			prevD = rsv
			seeded = true
		} else {
			prevK = kAlphaPrev*prevK + kAlphaNew*rsv
			prevD = dAlphaPrev*prevD + dAlphaNew*prevK
		}

		frames[i].KDJK = ptr(prevK)
		frames[i].KDJD = ptr(prevD)
		frames[i].KDJJ = ptr(3*prevK - 2*prevD)
	}
	return frames
}
