package indicator

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowinsight/internal/market"
	"flowinsight/pkg/logger"
)

func testCalculator() *Calculator {
	return New(logger.NewWriter(io.Discard))
}

// makeFrames builds one frame per day with the given closes, high one
// above and low one below the close.
func makeFrames(closes []float64) []market.IndicatorFrame {
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	frames := make([]market.IndicatorFrame, len(closes))
	for i, c := range closes {
		frames[i] = market.IndicatorFrame{
			CapitalFlow: market.CapitalFlow{
				Secid:      "1.600519",
				TradeDate:  base.AddDate(0, 0, i),
				ClosePrice: c,
				HighPrice:  c + 1,
				LowPrice:   c - 1,
			},
		}
	}
	return frames
}

func risingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func TestMACDInsufficientHistory(t *testing.T) {
	frames := makeFrames(risingCloses(20))
	out := testCalculator().MACD(frames, DefaultMACD)

	require.Len(t, out, 20)
	for i := range out {
		assert.Nil(t, out[i].MACD)
		assert.Nil(t, out[i].MACDSignal)
		assert.Nil(t, out[i].MACDHistogram)
	}
}

func TestMACDRisingMarket(t *testing.T) {
	frames := makeFrames(risingCloses(40))
	out := testCalculator().MACD(frames, DefaultMACD)
	require.Len(t, out, 40)

	// MACD appears once the slow EMA does, the signal line nine valid
	// MACD values later.
	for i := 0; i < 25; i++ {
		assert.Nil(t, out[i].MACD, "index %d", i)
	}
	for i := 25; i < 40; i++ {
		require.NotNil(t, out[i].MACD, "index %d", i)
	}
	for i := 0; i < 33; i++ {
		assert.Nil(t, out[i].MACDSignal, "index %d", i)
	}
	for i := 33; i < 40; i++ {
		require.NotNil(t, out[i].MACDSignal, "index %d", i)
		require.NotNil(t, out[i].MACDHistogram, "index %d", i)
	}

	// A steadily rising market shows positive MACD that never falls
	// back. For an exactly linear ramp both EMAs ride their
	// steady-state lag lines, so MACD holds at the period gap of 7.
	prev := 0.0
	for i := 25; i < 40; i++ {
		assert.Greater(t, *out[i].MACD, 0.0, "index %d", i)
		assert.GreaterOrEqual(t, *out[i].MACD, prev-1e-9, "index %d", i)
		prev = *out[i].MACD
	}
	assert.InDelta(t, 7.0, *out[39].MACD, 1e-9)
}

func TestMACDHistogramIdentity(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i%7) - float64(i%3)*2
	}
	out := testCalculator().MACD(makeFrames(closes), DefaultMACD)

	checked := 0
	for i := range out {
		if out[i].MACD != nil && out[i].MACDSignal != nil {
			require.NotNil(t, out[i].MACDHistogram)
			assert.InDelta(t, *out[i].MACD-*out[i].MACDSignal, *out[i].MACDHistogram, 1e-9)
			checked++
		}
	}
	assert.Greater(t, checked, 0)
}

func TestMACDSortsDescendingInput(t *testing.T) {
	frames := makeFrames(risingCloses(40))
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}

	out := testCalculator().MACD(frames, DefaultMACD)
	for i := 1; i < len(out); i++ {
		assert.True(t, out[i-1].TradeDate.Before(out[i].TradeDate))
	}
	require.NotNil(t, out[39].MACD)
	assert.Greater(t, *out[39].MACD, 0.0)
}

func TestKDJInsufficientHistory(t *testing.T) {
	out := testCalculator().KDJ(makeFrames(risingCloses(5)), DefaultKDJ)
	for i := range out {
		assert.Nil(t, out[i].KDJK)
		assert.Nil(t, out[i].KDJD)
		assert.Nil(t, out[i].KDJJ)
	}
}

func TestKDJFlatWindow(t *testing.T) {
	frames := makeFrames(risingCloses(15))
	for i := range frames {
		frames[i].ClosePrice = 50
		frames[i].HighPrice = 50
		frames[i].LowPrice = 50
	}

	out := testCalculator().KDJ(frames, DefaultKDJ)
	for i := 0; i < 8; i++ {
		assert.Nil(t, out[i].KDJK, "index %d", i)
	}

	// Zero-range windows pin RSV at neutral 50 and the seed takes that
	// value directly.
	require.NotNil(t, out[8].KDJK)
	assert.InDelta(t, 50.0, *out[8].KDJK, 1e-12)
	assert.InDelta(t, 50.0, *out[8].KDJD, 1e-12)
	assert.InDelta(t, 50.0, *out[8].KDJJ, 1e-12)

	// The 0.5/0.25 smoothing weights sum to 0.75, so a constant RSV of
	// 50 decays K and D from the seed toward the fixed point 25.
	expK, expD := 50.0, 50.0
	for i := 9; i < 15; i++ {
		expK = 0.5*expK + 0.25*50
		expD = 0.5*expD + 0.25*expK
		require.NotNil(t, out[i].KDJK, "index %d", i)
		assert.InDelta(t, expK, *out[i].KDJK, 1e-12, "index %d", i)
		assert.InDelta(t, expD, *out[i].KDJD, 1e-12, "index %d", i)
		assert.InDelta(t, 3*expK-2*expD, *out[i].KDJJ, 1e-12, "index %d", i)
		assert.Greater(t, 50.0, *out[i].KDJK, "index %d", i)
	}
}

func TestKDJSeedValues(t *testing.T) {
	frames := makeFrames(risingCloses(12))
	out := testCalculator().KDJ(frames, DefaultKDJ)

	// First valid K and D both equal the first RSV, so J starts there too.
	require.NotNil(t, out[8].KDJK)
	require.NotNil(t, out[8].KDJD)
	assert.InDelta(t, *out[8].KDJK, *out[8].KDJD, 1e-12)
	assert.InDelta(t, *out[8].KDJK, *out[8].KDJJ, 1e-12)

	// Closes 100..111 with +/-1 high/low bands: window [100..108] has
	// low 99, high 109, close 108, so RSV = 90.
	assert.InDelta(t, 90.0, *out[8].KDJK, 1e-9)
}

func TestKDJJCanLeaveRange(t *testing.T) {
	// A crash after a strong run-up drags K down faster than D and
	// pushes J below zero, which is legitimate output.
	closes := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 80, 60, 40, 20}
	out := testCalculator().KDJ(makeFrames(closes), DefaultKDJ)

	exceeded := false
	for i := range out {
		if out[i].KDJJ != nil && *out[i].KDJJ < 0 {
			exceeded = true
		}
	}
	assert.True(t, exceeded, "J should drop below 0 on a sharp crash")
}

func TestRSIInsufficientHistory(t *testing.T) {
	out := testCalculator().RSI(makeFrames(risingCloses(14)), DefaultRSIPeriod)
	for i := range out {
		assert.Nil(t, out[i].RSI)
	}
}

func TestRSIAllGains(t *testing.T) {
	out := testCalculator().RSI(makeFrames(risingCloses(30)), DefaultRSIPeriod)

	for i := 0; i < 14; i++ {
		assert.Nil(t, out[i].RSI, "index %d", i)
	}
	for i := 14; i < 30; i++ {
		require.NotNil(t, out[i].RSI, "index %d", i)
		assert.InDelta(t, 100.0, *out[i].RSI, 1e-12)
	}
}

func TestRSIBounds(t *testing.T) {
	closes := make([]float64, 50)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%3 == 0 {
			closes[i] = closes[i-1] - 2.5
		} else {
			closes[i] = closes[i-1] + 1.2
		}
	}

	out := testCalculator().RSI(makeFrames(closes), DefaultRSIPeriod)
	present := 0
	for i := range out {
		if out[i].RSI != nil {
			assert.GreaterOrEqual(t, *out[i].RSI, 0.0)
			assert.LessOrEqual(t, *out[i].RSI, 100.0)
			present++
		}
	}
	assert.Equal(t, 36, present)
}

func TestAllRunsEveryIndicator(t *testing.T) {
	out := testCalculator().All(makeFrames(risingCloses(40)))
	require.Len(t, out, 40)

	last := out[39]
	assert.NotNil(t, last.MACD)
	assert.NotNil(t, last.MACDSignal)
	assert.NotNil(t, last.KDJK)
	assert.NotNil(t, last.KDJD)
	assert.NotNil(t, last.KDJJ)
	assert.NotNil(t, last.RSI)
}

func TestAllWithCustomPeriods(t *testing.T) {
	// MACD(3,6,2) and RSI(5) warm up inside 20 days even though the
	// defaults would not.
	out := testCalculator().AllWith(makeFrames(risingCloses(20)),
		MACDParams{Fast: 3, Slow: 6, Signal: 2},
		DefaultKDJ, 5)

	last := out[19]
	assert.NotNil(t, last.MACD)
	assert.NotNil(t, last.MACDSignal)
	assert.NotNil(t, last.KDJK)
	assert.NotNil(t, last.RSI)

	defaults := testCalculator().All(makeFrames(risingCloses(20)))
	assert.Nil(t, defaults[19].MACD)
}

func TestAllPartialHistory(t *testing.T) {
	// 15 days: enough for KDJ and RSI, not for MACD. The short
	// indicator degrades alone without suppressing the others.
	out := testCalculator().All(makeFrames(risingCloses(15)))

	for i := range out {
		assert.Nil(t, out[i].MACD, "index %d", i)
	}
	assert.NotNil(t, out[8].KDJK)
	assert.NotNil(t, out[14].RSI)
}
