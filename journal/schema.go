package journal

const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	source TEXT NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	kind TEXT NOT NULL,
	size REAL NOT NULL,
	entry REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	success INTEGER NOT NULL,
	comment TEXT NOT NULL,
	order_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_time ON orders(time);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	size REAL NOT NULL,
	profit REAL NOT NULL,
	close_time DATETIME NOT NULL,
	win INTEGER NOT NULL
);
`
