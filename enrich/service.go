// Package enrich attaches ratings to trades on write and backfills missing
// ratings on read.
package enrich

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/pkg/logger"
	"github.com/rustyeddy/tradejournal/query"
	"github.com/rustyeddy/tradejournal/rating"
)

const (
	DefaultBackfillTimeout = 5 * time.Second
	DefaultConcurrency     = 4
	DefaultPageSize        = 15

	tracerName = "github.com/rustyeddy/tradejournal/enrich"
)

// QuoteSource yields a quote for every request, substituting the sentinel
// when market data is unavailable. marketdata.Adapter satisfies it.
type QuoteSource interface {
	Quote(ctx context.Context, ticker, date string) market.Quote
}

// Options configures a Service. Zero fields take defaults.
type Options struct {
	// Now is the clock used to reject future-dated trades.
	Now             func() time.Time
	Logger          *zap.Logger
	BackfillTimeout time.Duration
	Concurrency     int
}

// ListRequest selects one page of trades. From and To are optional inclusive
// YYYY-MM-DD bounds.
type ListRequest struct {
	Sort     query.SortConfig
	Page     int
	PageSize int
	From     string
	To       string
}

// Service is the write and read path for rated trades. It holds no mutable
// state of its own and is safe for concurrent use.
type Service struct {
	repo   journal.Repository
	quotes QuoteSource
	log    *zap.Logger
	tracer trace.Tracer

	now         func() time.Time
	timeout     time.Duration
	concurrency int
}

func NewService(repo journal.Repository, quotes QuoteSource, opts Options) *Service {
	s := &Service{
		repo:        repo,
		quotes:      quotes,
		log:         logger.OrNop(opts.Logger).Named("enrich"),
		now:         opts.Now,
		timeout:     opts.BackfillTimeout,
		concurrency: opts.Concurrency,
		tracer:      otel.Tracer(tracerName),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.timeout <= 0 {
		s.timeout = DefaultBackfillTimeout
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultConcurrency
	}
	return s
}

// Submit validates d, rates it against the day's quote and stores it.
// Validation failures are returned as *ValidationError before any I/O. When
// no quote is available the trade is stored without a rating and returned
// with rating 0; FetchEnriched and List fill it in later.
func (s *Service) Submit(ctx context.Context, d journal.Draft) (journal.Trade, error) {
	ctx, span := s.tracer.Start(ctx, "enrich.Submit")
	defer span.End()

	d, err := Normalize(d, s.now())
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return journal.Trade{}, err
	}
	span.SetAttributes(
		attribute.String("trade.ticker", d.Ticker),
		attribute.String("trade.date", d.Date),
		attribute.String("trade.type", d.Type.String()),
	)

	q := s.quotes.Quote(ctx, d.Ticker, d.Date)
	t := journal.Trade{
		Date:     d.Date,
		Time:     d.Time,
		Ticker:   d.Ticker,
		Type:     d.Type,
		Price:    d.Price,
		Quantity: d.Quantity,
	}
	// Without market data the trade is stored unrated so a later read can
	// rate it; the caller still sees the neutral rating.
	if !q.IsSentinel() {
		t = t.WithRating(rating.ForQuote(d.Price, d.Type, q))
	}

	stored, err := s.repo.Insert(ctx, t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return journal.Trade{}, err
	}
	if !stored.Rated() {
		stored = stored.WithRating(rating.ForQuote(d.Price, d.Type, q))
	}

	s.log.Info("trade recorded",
		zap.String("id", stored.ID),
		zap.String("ticker", stored.Ticker),
		zap.Float64("rating", stored.RatingValue()),
		zap.Bool("sentinel_quote", q.IsSentinel()),
	)
	return stored, nil
}

// FetchEnriched returns the trade with its rating, computing and storing a
// missing one first. journal.ErrNotFound is returned for an unknown id.
func (s *Service) FetchEnriched(ctx context.Context, id string) (journal.Trade, error) {
	ctx, span := s.tracer.Start(ctx, "enrich.FetchEnriched", trace.WithAttributes(attribute.String("trade.id", id)))
	defer span.End()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return journal.Trade{}, err
	}
	if t.Rated() {
		return t, nil
	}

	t, err = s.backfill(ctx, t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return journal.Trade{}, err
	}
	return t, nil
}

// List reads every trade, backfills missing ratings and returns the requested
// page. A record whose backfill fails is returned with rating 0. Storage
// failures of the listing itself are returned.
func (s *Service) List(ctx context.Context, req ListRequest) (query.Page, error) {
	ctx, span := s.tracer.Start(ctx, "enrich.List")
	defer span.End()

	if req.Sort.Key == "" {
		req.Sort.Key = query.DefaultSort.Key
	}
	if req.Sort.Direction == "" {
		req.Sort.Direction = query.DefaultSort.Direction
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = DefaultPageSize
	}

	trades, err := s.All(ctx, req.From, req.To)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return query.Page{}, err
	}

	page, err := query.Run(trades, req.Sort, req.Page, req.PageSize)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return query.Page{}, err
	}
	span.SetAttributes(
		attribute.Int("trades.total", len(trades)),
		attribute.Int("trades.page", len(page.Trades)),
	)
	return page, nil
}

// All returns every trade dated within [from, to] with ratings backfilled,
// in no particular order. Empty bounds are open.
func (s *Service) All(ctx context.Context, from, to string) ([]journal.Trade, error) {
	trades, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	trades, err = query.FilterDates(trades, from, to)
	if err != nil {
		return nil, err
	}

	s.backfillAll(ctx, trades)
	return trades, nil
}

// backfillAll rates unrated trades in place. Each record runs under its own
// timeout; a failure leaves that record at rating 0.
func (s *Service) backfillAll(ctx context.Context, trades []journal.Trade) {
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i := range trades {
		if trades[i].Rated() {
			continue
		}
		g.Go(func() error {
			rctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			t, err := s.backfill(rctx, trades[i])
			if err != nil {
				s.log.Warn("rating backfill failed, listing with rating 0",
					zap.String("id", trades[i].ID),
					zap.String("ticker", trades[i].Ticker),
					zap.Error(err),
				)
				t = trades[i].WithRating(0)
			}
			trades[i] = t
			return nil
		})
	}
	_ = g.Wait()
}

// backfill rates t and persists the result. A rating derived from the
// sentinel quote is returned but not stored, so a later read can retry once
// data is available.
func (s *Service) backfill(ctx context.Context, t journal.Trade) (journal.Trade, error) {
	q := s.quotes.Quote(ctx, t.Ticker, t.Date)
	if err := ctx.Err(); err != nil {
		return t, err
	}

	rated := t.WithRating(rating.ForQuote(t.Price, t.Type, q))
	if q.IsSentinel() {
		s.log.Debug("sentinel quote, rating not persisted", zap.String("id", t.ID))
		return rated, nil
	}

	if err := s.repo.SetRating(ctx, t.ID, *rated.Rating); err != nil {
		return t, err
	}
	return rated, nil
}
