package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rustyeddy/tradejournal/market"
)

// Static serves quotes from an in-memory table. It backs offline demos and
// tests.
type Static struct {
	mu     sync.RWMutex
	quotes map[string]market.Quote
}

// NewStatic returns an empty table.
func NewStatic() *Static {
	return &Static{quotes: make(map[string]market.Quote)}
}

// NewDemoStatic returns a table seeded with the bars behind the demo trades.
func NewDemoStatic() *Static {
	s := NewStatic()
	s.Set("AAPL", "2024-07-20", market.Quote{Open: 149.80, High: 151.00, Low: 149.50, Close: 150.75})
	s.Set("AAPL", "2024-07-21", market.Quote{Open: 151.00, High: 156.00, Low: 150.80, Close: 155.00})
	s.Set("GOOGL", "2024-07-20", market.Quote{Open: 2790.00, High: 2810.00, Low: 2785.00, Close: 2805.00})
	s.Set("TSLA", "2024-07-22", market.Quote{Open: 645.00, High: 660.00, Low: 640.00, Close: 655.00})
	s.Set("MSFT", "2024-07-23", market.Quote{Open: 298.00, High: 301.00, Low: 297.50, Close: 300.50})
	s.Set("NVDA", "2024-07-19", market.Quote{Open: 120.00, High: 130.00, Low: 119.50, Close: 128.00})
	s.Set("AMD", "2024-07-18", market.Quote{Open: 165.00, High: 166.00, Low: 160.00, Close: 161.00})
	return s
}

func (s *Static) Set(ticker, date string, q market.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[cacheKey(ticker, date)] = q
}

func (s *Static) Daily(ctx context.Context, ticker, date string) (market.Quote, error) {
	if err := ctx.Err(); err != nil {
		return market.Quote{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[cacheKey(ticker, date)]
	if !ok {
		return market.Quote{}, ErrNoData
	}
	return q, nil
}

// ReadStaticCSV builds a table from CSV rows with a header naming at least
// date,ticker,open,high,low,close. Extra columns such as volume are ignored.
func ReadStaticCSV(r io.Reader) (*Static, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("quotes csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("quotes csv: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"date", "ticker", "open", "high", "low", "close"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("quotes csv: missing column %q", name)
		}
	}

	s := NewStatic()
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("quotes csv line %d: %w", line, err)
		}

		date := strings.TrimSpace(rec[col["date"]])
		if _, err := market.ParseDate(date); err != nil {
			return nil, fmt.Errorf("quotes csv line %d: %w", line, err)
		}

		var q market.Quote
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"open", &q.Open},
			{"high", &q.High},
			{"low", &q.Low},
			{"close", &q.Close},
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[col[f.name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("quotes csv line %d: %s %q", line, f.name, rec[col[f.name]])
			}
			*f.dst = v
		}
		s.Set(rec[col["ticker"]], date, q)
	}
	return s, nil
}

// LoadStaticCSV reads a quotes file from disk.
func LoadStaticCSV(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadStaticCSV(f)
}

// Len reports the number of quotes in the table.
func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quotes)
}
