package enrich

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
)

// ValidationError lists every rejected field of a draft with its reason.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "invalid trade: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = reason
	}
}

// Normalize trims the draft, upper-cases the ticker, canonicalizes the side
// and expands HH:MM to HH:MM:SS, then validates it against now. The
// normalized draft is returned even when validation fails.
func Normalize(d journal.Draft, now time.Time) (journal.Draft, error) {
	verr := &ValidationError{}

	d.Ticker = market.NormalizeTicker(d.Ticker)
	if d.Ticker == "" {
		verr.add("ticker", "required")
	}

	if side, err := market.ParseSide(string(d.Type)); err != nil {
		verr.add("type", "must be Buy or Sell")
	} else {
		d.Type = side
	}

	if !(d.Price > 0) || math.IsInf(d.Price, 0) {
		verr.add("price", "must be a finite number greater than 0")
	}
	if d.Quantity <= 0 {
		verr.add("quantity", "must be a positive integer")
	}

	d.Date = strings.TrimSpace(d.Date)
	switch day, err := market.ParseDate(d.Date); {
	case d.Date == "":
		verr.add("date", "required")
	case err != nil:
		verr.add("date", "must be YYYY-MM-DD")
	default:
		today := now.Format(market.DateLayout)
		if day.Format(market.DateLayout) > today {
			verr.add("date", fmt.Sprintf("must not be after %s", today))
		}
	}

	d.Time = strings.TrimSpace(d.Time)
	if d.Time == "" {
		verr.add("time", "required")
	} else if norm, err := market.NormalizeTime(d.Time); err != nil {
		verr.add("time", "must be HH:MM:SS")
	} else {
		d.Time = norm
	}

	if len(verr.Fields) > 0 {
		return d, verr
	}
	return d, nil
}
