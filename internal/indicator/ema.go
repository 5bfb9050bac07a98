package indicator

// EMA computes an exponential moving average over values, returning a
// slice of the same length. The first period-1 entries are nil; the
// entry at period-1 is seeded with the simple average of the first
// period values, after which each entry follows the standard smoothing
// recursion with multiplier 2/(period+1).
//
// If values is shorter than period the result is all nil, which keeps
// the caller's alignment intact instead of shrinking the series.
func EMA(values []float64, period int) []*float64 {
	out := make([]*float64, len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for _, v := range values[:period] {
		sum += v
	}
	prev := sum / float64(period)
	out[period-1] = ptr(prev)

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		prev = prev + (values[i]-prev)*multiplier
		out[i] = ptr(prev)
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}
