package market

// Quote is the daily open/high/low/close for one ticker on one date.
type Quote struct {
	Open  float64 `json:"open" yaml:"open"`
	High  float64 `json:"high" yaml:"high"`
	Low   float64 `json:"low" yaml:"low"`
	Close float64 `json:"close" yaml:"close"`
}

// SentinelQuote stands in for "no data available". Its zero range makes the
// rating neutral.
var SentinelQuote = Quote{}

// IsSentinel reports whether all four fields are zero.
func (q Quote) IsSentinel() bool {
	return q.Open == 0 && q.High == 0 && q.Low == 0 && q.Close == 0
}

// Range is High - Low. It is <= 0 for flat days and for the sentinel.
func (q Quote) Range() float64 {
	return q.High - q.Low
}
