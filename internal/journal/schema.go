package journal

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id      TEXT PRIMARY KEY,
	created_at    TEXT NOT NULL,
	source        TEXT NOT NULL DEFAULT '',
	symbol        TEXT NOT NULL,
	timeframe     TEXT NOT NULL DEFAULT '',
	setup         TEXT NOT NULL DEFAULT '',
	price         REAL NOT NULL DEFAULT 0,
	decision      TEXT NOT NULL DEFAULT 'WAIT',
	entry_low     REAL NOT NULL DEFAULT 0,
	entry_high    REAL NOT NULL DEFAULT 0,
	stop_loss     REAL NOT NULL DEFAULT 0,
	tp1           REAL NOT NULL DEFAULT 0,
	tp2           REAL NOT NULL DEFAULT 0,
	rr            REAL NOT NULL DEFAULT 1.5,
	status        TEXT NOT NULL DEFAULT 'new',
	fill_price    REAL,
	exit_price    REAL,
	pnl_abs       REAL,
	pnl_pct       REAL,
	fees          REAL NOT NULL DEFAULT 0,
	funding       REAL,
	ls_ratio      REAL,
	liq_recent    INTEGER,
	news_score    INTEGER NOT NULL DEFAULT 0,
	why           TEXT NOT NULL DEFAULT '',
	risk          TEXT NOT NULL DEFAULT '',
	posted_msg_id INTEGER,
	note          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades(created_at);
`
