package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rustyeddy/tradejournal/market"
)

const AlphaVantageURL = "https://www.alphavantage.co"

// AlphaVantage reads TIME_SERIES_DAILY bars from the Alpha Vantage REST API.
type AlphaVantage struct {
	BaseURL string // e.g. https://www.alphavantage.co
	APIKey  string
	HTTP    *http.Client

	// OutputSize is "compact" (latest 100 bars) or "full".
	OutputSize string

	// Limiter throttles outgoing requests. Nil means unlimited.
	Limiter *rate.Limiter
}

// NewAlphaVantage returns a client allowing perMinute requests per minute.
// perMinute <= 0 disables client-side throttling.
func NewAlphaVantage(apiKey string, perMinute int, timeout time.Duration) *AlphaVantage {
	c := &AlphaVantage{
		BaseURL:    AlphaVantageURL,
		APIKey:     apiKey,
		HTTP:       &http.Client{Timeout: timeout},
		OutputSize: "compact",
	}
	if perMinute > 0 {
		c.Limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
	return c
}

type avDailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type avDailyResp struct {
	Series       map[string]avDailyBar `json:"Time Series (Daily)"`
	ErrorMessage string                `json:"Error Message"`
	Note         string                `json:"Note"`
	Information  string                `json:"Information"`
}

func (c *AlphaVantage) Daily(ctx context.Context, ticker, date string) (market.Quote, error) {
	if c.APIKey == "" {
		return market.Quote{}, fmt.Errorf("alphavantage: missing api key")
	}
	if c.BaseURL == "" {
		return market.Quote{}, fmt.Errorf("alphavantage: missing base url")
	}
	ticker = market.NormalizeTicker(ticker)
	if ticker == "" {
		return market.Quote{}, fmt.Errorf("alphavantage: missing ticker")
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return market.Quote{}, fmt.Errorf("alphavantage: rate limit: %w", err)
		}
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return market.Quote{}, err
	}
	u.Path = "/query"

	q := u.Query()
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", ticker)
	q.Set("apikey", c.APIKey)
	if c.OutputSize != "" {
		q.Set("outputsize", c.OutputSize)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return market.Quote{}, err
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return market.Quote{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return market.Quote{}, fmt.Errorf("alphavantage http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var dr avDailyResp
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return market.Quote{}, fmt.Errorf("alphavantage: decode: %w", err)
	}

	// The API answers 200 for bad symbols and throttling.
	switch {
	case dr.ErrorMessage != "":
		return market.Quote{}, fmt.Errorf("alphavantage: %s", dr.ErrorMessage)
	case dr.Note != "":
		return market.Quote{}, fmt.Errorf("alphavantage: %s", dr.Note)
	case dr.Information != "":
		return market.Quote{}, fmt.Errorf("alphavantage: %s", dr.Information)
	case dr.Series == nil:
		return market.Quote{}, fmt.Errorf("alphavantage: response has no daily series")
	}

	bar, ok := dr.Series[date]
	if !ok {
		return market.Quote{}, ErrNoData
	}
	return bar.quote()
}

func (b avDailyBar) quote() (market.Quote, error) {
	var q market.Quote
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", b.Open, &q.Open},
		{"high", b.High, &q.High},
		{"low", b.Low, &q.Low},
		{"close", b.Close, &q.Close},
	}

	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.raw), 64)
		if err != nil {
			return market.Quote{}, fmt.Errorf("alphavantage: bad %s %q", f.name, f.raw)
		}
		*f.dst = v
	}
	return q, nil
}
