package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordOrder(o OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(id, time, source, symbol, direction, kind, size, entry, stop_loss, take_profit, success, comment, order_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Time.UTC(), o.Source, o.Symbol, o.Direction, o.Kind, o.Size,
		o.Entry, o.StopLoss, o.TakeProfit, o.Success, o.Comment, o.OrderID,
	)
	return err
}

// RecordTrade ignores a trade already on file, since the loop may observe
// the same closed trade on several cycles.
func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT OR IGNORE INTO trades
		(trade_id, symbol, direction, size, profit, close_time, win)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Direction, t.Size, t.Profit, t.CloseTime.UTC(), t.Win,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
