// Package query sorts and pages trade lists for the list view and dashboard.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
)

// SortKey names the trade field to order by.
type SortKey string

const (
	ByDate     SortKey = "date"
	ByTicker   SortKey = "ticker"
	ByType     SortKey = "type"
	ByPrice    SortKey = "price"
	ByQuantity SortKey = "quantity"
	ByRating   SortKey = "rating"
)

// Direction is ascending or descending.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

var (
	ErrInvalidSortKey   = errors.New("invalid sort key")
	ErrInvalidDirection = errors.New("invalid sort direction")
	ErrInvalidPage      = errors.New("page and page size must be positive")
)

// SortConfig governs the ordering of one retrieval.
type SortConfig struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// DefaultSort is newest first.
var DefaultSort = SortConfig{Key: ByDate, Direction: Descending}

// Page is one slice of the sorted result.
type Page struct {
	Trades  []journal.Trade `json:"trades"`
	HasMore bool            `json:"hasMore"`
}

// ParseSortConfig validates user-supplied key and direction. Empty values take
// the defaults; "asc"/"desc" are accepted as short forms.
func ParseSortConfig(key, dir string) (SortConfig, error) {
	cfg := DefaultSort

	if k := strings.ToLower(strings.TrimSpace(key)); k != "" {
		switch SortKey(k) {
		case ByDate, ByTicker, ByType, ByPrice, ByQuantity, ByRating:
			cfg.Key = SortKey(k)
		default:
			return SortConfig{}, fmt.Errorf("%w: %q", ErrInvalidSortKey, key)
		}
	}

	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "":
	case "ascending", "asc":
		cfg.Direction = Ascending
	case "descending", "desc":
		cfg.Direction = Descending
	default:
		return SortConfig{}, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	return cfg, nil
}

// Run sorts trades by cfg and returns the 1-indexed page of pageSize
// trades. The input slice is not modified. Ties keep their input order.
func Run(trades []journal.Trade, cfg SortConfig, page, pageSize int) (Page, error) {
	if page < 1 || pageSize < 1 {
		return Page{}, ErrInvalidPage
	}

	sorted, err := Sort(trades, cfg)
	if err != nil {
		return Page{}, err
	}
	return Paginate(sorted, page, pageSize), nil
}

// Sort returns a sorted copy of trades.
func Sort(trades []journal.Trade, cfg SortConfig) ([]journal.Trade, error) {
	less, err := lessFunc(cfg.Key)
	if err != nil {
		return nil, err
	}

	out := make([]journal.Trade, len(trades))
	copy(out, trades)

	switch cfg.Direction {
	case Ascending, "":
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	case Descending:
		// Swap the operands rather than reversing the slice so ties stay put.
		sort.SliceStable(out, func(i, j int) bool { return less(out[j], out[i]) })
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, cfg.Direction)
	}
	return out, nil
}

// Paginate returns items [(page-1)*pageSize, page*pageSize) clipped to the
// slice. A page past the end is empty with HasMore false.
func Paginate(sorted []journal.Trade, page, pageSize int) Page {
	if page < 1 || pageSize < 1 {
		return Page{Trades: []journal.Trade{}}
	}

	start := (page - 1) * pageSize
	if start >= len(sorted) {
		return Page{Trades: []journal.Trade{}}
	}
	end := start + pageSize
	if end > len(sorted) {
		end = len(sorted)
	}

	out := make([]journal.Trade, end-start)
	copy(out, sorted[start:end])
	return Page{Trades: out, HasMore: end < len(sorted)}
}

// FilterDates keeps trades dated within [from, to]. Either bound may be empty.
func FilterDates(trades []journal.Trade, from, to string) ([]journal.Trade, error) {
	if from != "" {
		if _, err := market.ParseDate(from); err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
	}
	if to != "" {
		if _, err := market.ParseDate(to); err != nil {
			return nil, fmt.Errorf("to: %w", err)
		}
	}

	out := make([]journal.Trade, 0, len(trades))
	for _, t := range trades {
		// ISO dates order lexically.
		if from != "" && t.Date < from {
			continue
		}
		if to != "" && t.Date > to {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func lessFunc(key SortKey) (func(a, b journal.Trade) bool, error) {
	switch key {
	case ByDate, "":
		return func(a, b journal.Trade) bool { return a.Instant().Before(b.Instant()) }, nil
	case ByTicker:
		return func(a, b journal.Trade) bool { return a.Ticker < b.Ticker }, nil
	case ByType:
		return func(a, b journal.Trade) bool { return a.Type < b.Type }, nil
	case ByPrice:
		return func(a, b journal.Trade) bool { return a.Price < b.Price }, nil
	case ByQuantity:
		return func(a, b journal.Trade) bool { return a.Quantity < b.Quantity }, nil
	case ByRating:
		return func(a, b journal.Trade) bool { return a.RatingValue() < b.RatingValue() }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortKey, key)
	}
}
