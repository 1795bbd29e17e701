package journal

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rustyeddy/tradejournal/market"
)

// GetByID returns a single trade by id.
func (j *SQLite) GetByID(ctx context.Context, tradeID string) (Trade, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE trade_id = ?`, tradeID)

	t, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Trade{}, ErrNotFound
		}
		return Trade{}, storageErr("get trade", err)
	}
	return t, nil
}

// ListAll returns every trade in id (insertion) order.
func (j *SQLite) ListAll(ctx context.Context) ([]Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		ORDER BY trade_id ASC`)
	if err != nil {
		return nil, storageErr("list trades", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, storageErr("scan trade", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list trades", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (Trade, error) {
	var (
		t      Trade
		side   string
		rating sql.NullFloat64
	)
	err := s.Scan(
		&t.ID,
		&t.Date,
		&t.Time,
		&t.Ticker,
		&side,
		&t.Price,
		&t.Quantity,
		&rating,
		&t.CreatedAt,
	)
	if err != nil {
		return Trade{}, err
	}
	t.Type = market.Side(side)
	if rating.Valid {
		t.Rating = &rating.Float64
	}
	return t, nil
}
