package journal

// Schema is the SQLite layout of the journal.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	trade_date TEXT NOT NULL,
	trade_time TEXT NOT NULL,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL CHECK (side IN ('Buy', 'Sell')),
	price REAL NOT NULL CHECK (price > 0),
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	rating REAL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_instant ON trades(trade_date, trade_time);
CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);
`

// PostgresSchema is the same layout for Postgres.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	trade_date TEXT NOT NULL,
	trade_time TEXT NOT NULL,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL CHECK (side IN ('Buy', 'Sell')),
	price DOUBLE PRECISION NOT NULL CHECK (price > 0),
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	rating DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_instant ON trades(trade_date, trade_time);
CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);
`

const tradeColumns = `trade_id, trade_date, trade_time, ticker, side, price, quantity, rating, created_at`
