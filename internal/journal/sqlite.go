// Package journal persists the trade ledger in sqlite and applies the
// command-driven status transitions.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"gpt-signal-relay/internal/types"
)

// ErrNotFound is returned when a command references an unknown trade id.
var ErrNotFound = errors.New("trade not found")

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	// sqlite tolerates exactly one writer; serializing through a single
	// connection keeps per-row read-modify-write atomic.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

const allColumns = `trade_id, created_at, source, symbol, timeframe, setup, price,
	decision, entry_low, entry_high, stop_loss, tp1, tp2, rr, status,
	fill_price, exit_price, pnl_abs, pnl_pct, fees,
	funding, ls_ratio, liq_recent, news_score, why, risk, posted_msg_id, note`

// Create upserts a row by trade id: a second create with the same id
// mutates the existing row instead of appending a duplicate.
func (s *SQLite) Create(ctx context.Context, e *types.JournalEntry) error {
	if e.TradeID == "" {
		return errors.New("trade id required")
	}
	if e.Status == "" {
		e.Status = types.StatusNew
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (`+allColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(trade_id) DO UPDATE SET
			created_at=excluded.created_at, source=excluded.source,
			symbol=excluded.symbol, timeframe=excluded.timeframe,
			setup=excluded.setup, price=excluded.price,
			decision=excluded.decision, entry_low=excluded.entry_low,
			entry_high=excluded.entry_high, stop_loss=excluded.stop_loss,
			tp1=excluded.tp1, tp2=excluded.tp2, rr=excluded.rr,
			status=excluded.status, fees=excluded.fees,
			funding=excluded.funding, ls_ratio=excluded.ls_ratio,
			liq_recent=excluded.liq_recent, news_score=excluded.news_score,
			why=excluded.why, risk=excluded.risk, note=excluded.note`,
		e.TradeID, e.CreatedAt, e.Source, e.Symbol, e.Timeframe, e.Setup, e.Price,
		e.Decision, e.EntryLow, e.EntryHigh, e.StopLoss, e.TP1, e.TP2, e.RR, e.Status,
		e.FillPrice, e.ExitPrice, e.PnLAbs, e.PnLPct, e.Fees,
		e.Funding, e.LSRatio, e.LiqCount, e.NewsScore, e.Why, e.RiskNote, e.PostedMsgID, e.Note)
	return err
}

func (s *SQLite) Get(ctx context.Context, id string) (*types.JournalEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+allColumns+` FROM trades WHERE trade_id = ?`, id)
	return scanEntry(row)
}

// List returns the newest n rows; n <= 0 returns everything.
func (s *SQLite) List(ctx context.Context, n int) ([]types.JournalEntry, error) {
	q := `SELECT ` + allColumns + ` FROM trades ORDER BY created_at DESC, trade_id DESC`
	args := []any{}
	if n > 0 {
		q += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *SQLite) Fill(ctx context.Context, id string, price float64) (*types.JournalEntry, error) {
	return s.update(ctx, id, func(e *types.JournalEntry) {
		e.Status = types.StatusFilled
		e.FillPrice = &price
	})
}

func (s *SQLite) MarkTP1(ctx context.Context, id string, price *float64) (*types.JournalEntry, error) {
	return s.update(ctx, id, func(e *types.JournalEntry) {
		e.Status = types.StatusTP1
		if price != nil {
			e.TP1 = *price
		}
	})
}

func (s *SQLite) MarkTP2(ctx context.Context, id string, price *float64) (*types.JournalEntry, error) {
	return s.update(ctx, id, func(e *types.JournalEntry) {
		e.Status = types.StatusTP2
		if price != nil {
			e.TP2 = *price
		}
	})
}

// MarkStopped closes the trade at its recorded stop-loss.
func (s *SQLite) MarkStopped(ctx context.Context, id string) (*types.JournalEntry, error) {
	return s.update(ctx, id, func(e *types.JournalEntry) {
		e.Status = types.StatusStopped
		stop := e.StopLoss
		e.ExitPrice = &stop
	})
}

func (s *SQLite) Exit(ctx context.Context, id string, price float64) (*types.JournalEntry, error) {
	return s.update(ctx, id, func(e *types.JournalEntry) {
		e.Status = types.StatusExit
		e.ExitPrice = &price
	})
}

func (s *SQLite) Cancel(ctx context.Context, id string) (*types.JournalEntry, error) {
	return s.update(ctx, id, func(e *types.JournalEntry) {
		e.Status = types.StatusCancel
	})
}

func (s *SQLite) SetPostedRef(ctx context.Context, id string, messageID int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE trades SET posted_msg_id = ? WHERE trade_id = ?`, messageID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// update runs a read-mutate-write cycle on one row inside a transaction
// and recomputes realized P&L afterwards.
func (s *SQLite) update(ctx context.Context, id string, mutate func(*types.JournalEntry)) (*types.JournalEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+allColumns+` FROM trades WHERE trade_id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, err
	}

	mutate(e)
	recomputePnL(e)

	_, err = tx.ExecContext(ctx, `
		UPDATE trades SET status = ?, tp1 = ?, tp2 = ?,
			fill_price = ?, exit_price = ?, pnl_abs = ?, pnl_pct = ?
		WHERE trade_id = ?`,
		e.Status, e.TP1, e.TP2, e.FillPrice, e.ExitPrice, e.PnLAbs, e.PnLPct, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return e, nil
}

// recomputePnL derives realized P&L whenever both fill and exit prices
// are known. Direction comes from the decision; anything that is not a
// LONG is treated as a short.
func recomputePnL(e *types.JournalEntry) {
	if e.FillPrice == nil || e.ExitPrice == nil {
		e.PnLAbs = nil
		e.PnLPct = nil
		return
	}

	abs := *e.ExitPrice - *e.FillPrice
	if e.Decision != types.DecisionLong {
		abs = *e.FillPrice - *e.ExitPrice
	}
	e.PnLAbs = &abs

	if *e.FillPrice != 0 {
		pct := abs / *e.FillPrice * 100
		e.PnLPct = &pct
	} else {
		e.PnLPct = nil
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (*types.JournalEntry, error) {
	var e types.JournalEntry
	err := row.Scan(
		&e.TradeID, &e.CreatedAt, &e.Source, &e.Symbol, &e.Timeframe, &e.Setup, &e.Price,
		&e.Decision, &e.EntryLow, &e.EntryHigh, &e.StopLoss, &e.TP1, &e.TP2, &e.RR, &e.Status,
		&e.FillPrice, &e.ExitPrice, &e.PnLAbs, &e.PnLPct, &e.Fees,
		&e.Funding, &e.LSRatio, &e.LiqCount, &e.NewsScore, &e.Why, &e.RiskNote, &e.PostedMsgID, &e.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
