// Package journal owns trade records and the stores that persist them.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/tradejournal/market"
)

var (
	// ErrNotFound is returned by lookups for an unknown id. It is an expected
	// outcome, not a storage failure.
	ErrNotFound = errors.New("trade not found")

	// ErrStorage wraps every failure of the underlying store.
	ErrStorage = errors.New("trade storage unavailable")

	// ErrDuplicateID is returned when Insert is given an id that is taken.
	ErrDuplicateID = errors.New("duplicate trade id")
)

// Trade is one executed buy or sell.
type Trade struct {
	ID       string      `json:"id"`
	Date     string      `json:"date"`
	Time     string      `json:"time"`
	Ticker   string      `json:"ticker"`
	Type     market.Side `json:"type"`
	Price    float64     `json:"price"`
	Quantity int         `json:"quantity"`
	// Rating is nil until the enrichment step has computed it.
	Rating *float64 `json:"rating"`

	CreatedAt time.Time `json:"-"`
}

// Draft is a trade as submitted by a user, before it has an id or rating.
type Draft struct {
	Date     string      `json:"date"`
	Time     string      `json:"time"`
	Ticker   string      `json:"ticker"`
	Type     market.Side `json:"type"`
	Price    float64     `json:"price"`
	Quantity int         `json:"quantity"`
}

// Rated reports whether the rating has been computed.
func (t Trade) Rated() bool {
	return t.Rating != nil
}

// RatingValue returns the rating, or 0 when it is missing.
func (t Trade) RatingValue() float64 {
	if t.Rating == nil {
		return 0
	}
	return *t.Rating
}

// WithRating returns a copy of t carrying r.
func (t Trade) WithRating(r float64) Trade {
	t.Rating = &r
	return t
}

// Instant is the trade's date and time of day as one UTC timestamp.
func (t Trade) Instant() time.Time {
	return market.Instant(t.Date, t.Time)
}

// Notional is price * quantity.
func (t Trade) Notional() float64 {
	return t.Price * float64(t.Quantity)
}

// Repository is the persistence boundary for trades. Implementations must be
// safe for concurrent use.
type Repository interface {
	// Insert stores t, assigning an id when t.ID is empty.
	Insert(ctx context.Context, t Trade) (Trade, error)
	// GetByID returns ErrNotFound when no trade has the id.
	GetByID(ctx context.Context, id string) (Trade, error)
	// ListAll returns every trade. Order is not part of the contract.
	ListAll(ctx context.Context) ([]Trade, error)
	// SetRating fills in a missing rating. It leaves an existing rating
	// untouched and returns ErrNotFound for an unknown id.
	SetRating(ctx context.Context, id string, rating float64) error
	Close() error
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func cloneRating(r *float64) *float64 {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}
