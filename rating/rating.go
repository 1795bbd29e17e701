// Package rating scores a trade's execution price against the day's range.
package rating

import "github.com/rustyeddy/tradejournal/market"

// Rate returns a score where +1 is the best possible fill for the side (the
// low for a Buy, the high for a Sell) and -1 the worst. Prices outside
// [low, high] are not clamped and score beyond [-1, 1]. A range <= 0 yields 0.
func Rate(price float64, side market.Side, high, low float64) float64 {
	rng := high - low
	if rng <= 0 {
		return 0
	}

	normalized := (price - low) / rng

	switch side {
	case market.Buy:
		return 1 - 2*normalized
	case market.Sell:
		return 2*normalized - 1
	default:
		return 0
	}
}

// ForQuote rates price against q's high and low.
func ForQuote(price float64, side market.Side, q market.Quote) float64 {
	return Rate(price, side, q.High, q.Low)
}
