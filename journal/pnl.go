package journal

import "github.com/rustyeddy/tradejournal/market"

// PnL is the cash-flow summary of a set of trades.
type PnL struct {
	// Net is Sold - Bought: buys count negative, sells positive.
	Net    float64 `json:"net"`
	Bought float64 `json:"bought"`
	Sold   float64 `json:"sold"`
	Buys   int     `json:"buys"`
	Sells  int     `json:"sells"`
}

// Summarize totals trades using the journal's sign convention: a Buy
// contributes -(price*quantity), a Sell +(price*quantity).
func Summarize(trades []Trade) PnL {
	var p PnL
	for _, t := range trades {
		switch t.Type {
		case market.Buy:
			p.Bought += t.Notional()
			p.Buys++
		case market.Sell:
			p.Sold += t.Notional()
			p.Sells++
		}
	}
	p.Net = p.Sold - p.Bought
	return p
}
