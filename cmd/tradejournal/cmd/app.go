package cmd

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/rustyeddy/tradejournal/config"
	"github.com/rustyeddy/tradejournal/enrich"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/marketdata"
	"github.com/rustyeddy/tradejournal/pkg/logger"
	"github.com/rustyeddy/tradejournal/pkg/tracing"
)

// app is the wired object graph shared by every command.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	repo   journal.Repository
	quotes *marketdata.Adapter
	svc    *enrich.Service

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return buildApp(ctx, cfg)
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() error { _ = log.Sync(); return nil })

	shutdown, err := tracing.Init(cfg.Tracing.Enabled, version, os.Stderr)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.closers = append(a.closers, func() error { return shutdown(context.Background()) })

	dsn := cfg.Store.Path
	if cfg.Store.Driver == journal.DriverPostgres {
		dsn = cfg.Store.DSN
	}
	a.repo, err = journal.Open(ctx, cfg.Store.Driver, dsn)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.closers = append(a.closers, a.repo.Close)

	cache, err := a.openCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	provider, err := a.provider()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.quotes = marketdata.NewAdapter(provider, marketdata.Options{
		Cache:   cache,
		Logger:  log,
		Timeout: config.MustDuration(cfg.MarketData.Timeout),
	})

	a.svc = enrich.NewService(a.repo, a.quotes, enrich.Options{
		Logger:          log,
		BackfillTimeout: config.MustDuration(cfg.Enrich.BackfillTimeout),
		Concurrency:     cfg.Enrich.Concurrency,
	})

	log.Debug("app ready",
		zap.String("store", cfg.Store.Driver),
		zap.String("provider", cfg.MarketData.Provider),
		zap.String("cache", cfg.Cache.Type),
	)
	return a, nil
}

func (a *app) provider() (marketdata.Provider, error) {
	md := a.cfg.MarketData
	if md.Provider != "alphavantage" {
		if md.QuotesFile == "" {
			return marketdata.NewDemoStatic(), nil
		}
		s, err := marketdata.LoadStaticCSV(md.QuotesFile)
		if err != nil {
			return nil, fmt.Errorf("load quotes file: %w", err)
		}
		return s, nil
	}

	av := marketdata.NewAlphaVantage(md.APIKey, md.RequestsPerMinute, config.MustDuration(md.Timeout))
	if md.BaseURL != "" {
		av.BaseURL = md.BaseURL
	}
	if md.OutputSize != "" {
		av.OutputSize = md.OutputSize
	}
	return av, nil
}

func (a *app) openCache(ctx context.Context) (marketdata.Cache, error) {
	c := a.cfg.Cache
	switch c.Type {
	case "memory":
		return marketdata.NewMemoryCache(c.MaxEntries), nil
	case "redis":
		rc, err := marketdata.NewRedisCache(ctx, marketdata.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			TTL:      config.MustDuration(c.TTL),
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		return rc, nil
	default:
		return nil, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
