package marketdata

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/pkg/logger"
)

// Stats counts adapter outcomes since construction.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Fallbacks uint64 `json:"fallbacks"`
}

// Options configures an Adapter. The zero value is usable.
type Options struct {
	Cache   Cache
	Logger  *zap.Logger
	Timeout time.Duration // per provider call; 0 means none
}

// Adapter turns every provider outcome into a quote. Failures of any kind
// become market.SentinelQuote, are logged and counted. It is safe for
// concurrent use.
type Adapter struct {
	provider Provider
	cache    Cache
	log      *zap.Logger
	timeout  time.Duration

	group singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	fallbacks atomic.Uint64
}

func NewAdapter(p Provider, opts Options) *Adapter {
	return &Adapter{
		provider: p,
		cache:    opts.Cache,
		log:      logger.OrNop(opts.Logger).Named("marketdata"),
		timeout:  opts.Timeout,
	}
}

// Quote returns the daily bar for ticker on date, or the sentinel when it
// cannot be obtained before ctx ends. It never fails. Concurrent callers for
// the same key share one provider call, bounded by Options.Timeout.
func (a *Adapter) Quote(ctx context.Context, ticker, date string) market.Quote {
	ticker = market.NormalizeTicker(ticker)

	if a.cache != nil {
		q, ok, err := a.cache.Get(ctx, ticker, date)
		if err != nil {
			a.log.Warn("quote cache read failed", zap.String("ticker", ticker), zap.String("date", date), zap.Error(err))
		} else if ok {
			a.hits.Add(1)
			return q
		}
	}
	a.misses.Add(1)

	if err := ctx.Err(); err != nil {
		a.fallback(ticker, date, err)
		return market.SentinelQuote
	}

	// The shared fetch outlives any one caller; each caller stops waiting
	// when its own context ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := a.group.DoChan(cacheKey(ticker, date), func() (any, error) {
		return a.fetch(fetchCtx, ticker, date), nil
	})
	select {
	case res := <-ch:
		return res.Val.(market.Quote)
	case <-ctx.Done():
		a.fallback(ticker, date, ctx.Err())
		return market.SentinelQuote
	}
}

func (a *Adapter) fetch(ctx context.Context, ticker, date string) market.Quote {
	if a.provider == nil {
		a.fallback(ticker, date, errors.New("no provider configured"))
		return market.SentinelQuote
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	q, err := a.provider.Daily(ctx, ticker, date)
	if err != nil {
		a.fallback(ticker, date, err)
		return market.SentinelQuote
	}
	if q.IsSentinel() {
		return q
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, ticker, date, q); err != nil {
			a.log.Warn("quote cache write failed", zap.String("ticker", ticker), zap.String("date", date), zap.Error(err))
		}
	}
	return q
}

func (a *Adapter) fallback(ticker, date string, err error) {
	a.fallbacks.Add(1)
	if errors.Is(err, ErrNoData) {
		a.log.Info("no market data, using sentinel quote", zap.String("ticker", ticker), zap.String("date", date))
		return
	}
	a.log.Warn("market data fetch failed, using sentinel quote", zap.String("ticker", ticker), zap.String("date", date), zap.Error(err))
}

// Stats returns a snapshot of the counters.
func (a *Adapter) Stats() Stats {
	return Stats{
		Hits:      a.hits.Load(),
		Misses:    a.misses.Load(),
		Fallbacks: a.fallbacks.Load(),
	}
}
