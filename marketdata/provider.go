// Package marketdata fetches daily OHLC bars and adapts provider failures
// into the sentinel quote.
package marketdata

import (
	"context"
	"errors"

	"github.com/rustyeddy/tradejournal/market"
)

// ErrNoData is returned by a Provider that has no bar for the exact date.
var ErrNoData = errors.New("no market data")

// Provider looks up the daily bar for a ticker on a YYYY-MM-DD date.
type Provider interface {
	Daily(ctx context.Context, ticker, date string) (market.Quote, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, ticker, date string) (market.Quote, error)

func (f ProviderFunc) Daily(ctx context.Context, ticker, date string) (market.Quote, error) {
	return f(ctx, ticker, date)
}
