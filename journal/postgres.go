package journal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/pkg/id"
)

const pgUniqueViolation = "23505"

// Postgres stores trades in a Postgres database through a pgx pool.
type Postgres struct {
	pool  *pgxpool.Pool
	newID func() string
	now   func() time.Time
}

// NewPostgres connects to dsn and creates the schema if it is missing.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, storageErr("parse pgx config", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, storageErr("create pgx pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storageErr("ping postgres", err)
	}
	if _, err := pool.Exec(ctx, PostgresSchema); err != nil {
		pool.Close()
		return nil, storageErr("create schema", err)
	}
	return &Postgres{pool: pool, newID: id.New, now: time.Now}, nil
}

func (r *Postgres) Insert(ctx context.Context, t Trade) (Trade, error) {
	if t.ID == "" {
		t.ID = r.newID()
	}
	t.CreatedAt = r.now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.Date, t.Time, t.Ticker, string(t.Type),
		t.Price, t.Quantity, t.Rating, t.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Trade{}, ErrDuplicateID
		}
		return Trade{}, storageErr("insert trade", err)
	}
	return t, nil
}

func (r *Postgres) GetByID(ctx context.Context, tradeID string) (Trade, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE trade_id = $1`, tradeID)

	t, err := scanPgTrade(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Trade{}, ErrNotFound
		}
		return Trade{}, storageErr("get trade", err)
	}
	return t, nil
}

func (r *Postgres) ListAll(ctx context.Context) ([]Trade, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		ORDER BY trade_id ASC`)
	if err != nil {
		return nil, storageErr("list trades", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		t, err := scanPgTrade(rows)
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

func (r *Postgres) SetRating(ctx context.Context, tradeID string, rating float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE trades SET rating = $1 WHERE trade_id = $2 AND rating IS NULL`,
		rating, tradeID,
	)
	if err != nil {
		return storageErr("set rating", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trades WHERE trade_id = $1)`, tradeID,
	).Scan(&exists)
	if err != nil {
		return storageErr("set rating", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (r *Postgres) Close() error {
	r.pool.Close()
	return nil
}

func scanPgTrade(row pgx.Row) (Trade, error) {
	var (
		t    Trade
		side string
	)
	err := row.Scan(
		&t.ID,
		&t.Date,
		&t.Time,
		&t.Ticker,
		&side,
		&t.Price,
		&t.Quantity,
		&t.Rating,
		&t.CreatedAt,
	)
	if err != nil {
		return Trade{}, err
	}
	t.Type = market.Side(side)
	return t, nil
}
