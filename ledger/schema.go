package ledger

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY,
	email TEXT NOT NULL,
	mode TEXT NOT NULL,
	currency TEXT NOT NULL,
	demo_balance REAL NOT NULL DEFAULT 0,
	real_balance REAL NOT NULL DEFAULT 0,
	active INTEGER NOT NULL DEFAULT 0,
	bot_active INTEGER NOT NULL DEFAULT 0,
	test_period INTEGER NOT NULL DEFAULT 0,
	test_expiration DATETIME
);

CREATE TABLE IF NOT EXISTS profiles (
	account_id INTEGER PRIMARY KEY REFERENCES accounts(id),
	kind TEXT NOT NULL,
	entry_value REAL NOT NULL DEFAULT 0,
	entry_percent REAL NOT NULL DEFAULT 0,
	stop_gain REAL NOT NULL DEFAULT 0,
	stop_loss REAL NOT NULL DEFAULT 0,
	max_martingale INTEGER NOT NULL DEFAULT 2,
	factor REAL NOT NULL DEFAULT 2
);

CREATE TABLE IF NOT EXISTS trades (
	account_id INTEGER NOT NULL,
	trade_id TEXT NOT NULL,
	asset TEXT NOT NULL,
	direction TEXT NOT NULL,
	stake REAL NOT NULL,
	payout_percent REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	outcome TEXT NOT NULL,
	result REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (account_id, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_trades_account_close ON trades(account_id, close_time);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id BIGINT PRIMARY KEY,
	email TEXT NOT NULL,
	mode TEXT NOT NULL,
	currency TEXT NOT NULL,
	demo_balance DOUBLE PRECISION NOT NULL DEFAULT 0,
	real_balance DOUBLE PRECISION NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT FALSE,
	bot_active BOOLEAN NOT NULL DEFAULT FALSE,
	test_period BOOLEAN NOT NULL DEFAULT FALSE,
	test_expiration TIMESTAMP
);

CREATE TABLE IF NOT EXISTS profiles (
	account_id BIGINT PRIMARY KEY REFERENCES accounts(id),
	kind TEXT NOT NULL,
	entry_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	entry_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	stop_gain DOUBLE PRECISION NOT NULL DEFAULT 0,
	stop_loss DOUBLE PRECISION NOT NULL DEFAULT 0,
	max_martingale INTEGER NOT NULL DEFAULT 2,
	factor DOUBLE PRECISION NOT NULL DEFAULT 2
);

CREATE TABLE IF NOT EXISTS trades (
	account_id BIGINT NOT NULL,
	trade_id TEXT NOT NULL,
	asset TEXT NOT NULL,
	direction TEXT NOT NULL,
	stake DOUBLE PRECISION NOT NULL,
	payout_percent DOUBLE PRECISION NOT NULL,
	open_time TIMESTAMP NOT NULL,
	close_time TIMESTAMP NOT NULL,
	outcome TEXT NOT NULL,
	result DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (account_id, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_trades_account_close ON trades(account_id, close_time);
`
