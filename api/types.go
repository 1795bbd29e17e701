package api

import (
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/marketdata"
)

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// TradesResponse is one page of the trade list.
type TradesResponse struct {
	Trades  []journal.Trade `json:"trades"`
	HasMore bool            `json:"hasMore"`
}

// QuoteResponse carries a daily bar. Available is false for the sentinel.
type QuoteResponse struct {
	Ticker    string `json:"ticker"`
	Date      string `json:"date"`
	Available bool   `json:"available"`
	market.Quote
}

type PnLResponse struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
	journal.PnL
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Version    string            `json:"version,omitempty"`
	MarketData *marketdata.Stats `json:"marketData,omitempty"`
}
