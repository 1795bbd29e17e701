package journal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/tradejournal/pkg/id"
)

// SQLite stores trades in a SQLite database file.
type SQLite struct {
	db    *sql.DB
	newID func() string
	now   func() time.Time
}

// NewSQLite opens (creating if needed) the database at path. ":memory:" gives
// a private in-memory database.
func NewSQLite(path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, storageErr("open sqlite", err)
	}
	// SQLite allows a single writer; one connection also keeps an in-memory
	// database from being split across connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, storageErr("create schema", err)
	}

	return &SQLite{db: db, newID: id.New, now: time.Now}, nil
}

func (j *SQLite) Insert(ctx context.Context, t Trade) (Trade, error) {
	if t.ID == "" {
		t.ID = j.newID()
	}
	t.CreatedAt = j.now().UTC()

	var rating sql.NullFloat64
	if t.Rating != nil {
		rating = sql.NullFloat64{Float64: *t.Rating, Valid: true}
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
		(`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date, t.Time, t.Ticker, string(t.Type),
		t.Price, t.Quantity, rating, t.CreatedAt,
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return Trade{}, ErrDuplicateID
		}
		return Trade{}, storageErr("insert trade", err)
	}
	return t, nil
}

func (j *SQLite) SetRating(ctx context.Context, tradeID string, rating float64) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE trades SET rating = ? WHERE trade_id = ? AND rating IS NULL`,
		rating, tradeID,
	)
	if err != nil {
		return storageErr("set rating", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("set rating", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing updated: either already rated or not there at all.
	var one int
	err = j.db.QueryRowContext(ctx, `SELECT 1 FROM trades WHERE trade_id = ?`, tradeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("set rating", err)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
