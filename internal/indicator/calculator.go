package indicator

import (
	"flowinsight/internal/market"
	"flowinsight/pkg/logger"
)

// Default parameter tuples. These live here and only here; callers
// that want other periods pass them explicitly to AllWith or the
// per-indicator methods.
var (
	DefaultMACD      = MACDParams{Fast: 12, Slow: 26, Signal: 9}
	DefaultKDJ       = KDJParams{RSVPeriod: 9, KSmooth: 3, DSmooth: 3}
	DefaultRSIPeriod = 14
)

// Calculator computes technical indicators over daily capital-flow
// frames. All methods sort input ascending by trade date, mutate the
// given slice's indicator fields and return it; absent values stay nil.
type Calculator struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Calculator {
	return &Calculator{log: log.WithField("component", "indicator")}
}

// All runs MACD, KDJ and RSI with the default parameter tuples.
func (c *Calculator) All(frames []market.IndicatorFrame) []market.IndicatorFrame {
	return c.AllWith(frames, DefaultMACD, DefaultKDJ, DefaultRSIPeriod)
}

// AllWith runs MACD, KDJ and RSI with explicit parameters. A panic
// inside one indicator is logged and must not suppress the others, so
// each runs under its own recover.
func (c *Calculator) AllWith(frames []market.IndicatorFrame, macd MACDParams, kdj KDJParams, rsiPeriod int) []market.IndicatorFrame {
	c.guarded("macd", func() { frames = c.MACD(frames, macd) })
	c.guarded("kdj", func() { frames = c.KDJ(frames, kdj) })
	c.guarded("rsi", func() { frames = c.RSI(frames, rsiPeriod) })
	return frames
}

func (c *Calculator) guarded(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithFields(map[string]interface{}{
				"indicator": name,
				"panic":     r,
			}).Error("indicator computation failed")
		}
	}()
	fn()
}
