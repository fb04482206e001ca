package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const orderColumns = `id, time, source, symbol, direction, kind, size, entry, stop_loss, take_profit, success, comment, order_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (OrderRecord, error) {
	var rec OrderRecord
	err := s.Scan(
		&rec.ID,
		&rec.Time,
		&rec.Source,
		&rec.Symbol,
		&rec.Direction,
		&rec.Kind,
		&rec.Size,
		&rec.Entry,
		&rec.StopLoss,
		&rec.TakeProfit,
		&rec.Success,
		&rec.Comment,
		&rec.OrderID,
	)
	return rec, err
}

// GetOrder returns a single order record by ID.
func (j *SQLite) GetOrder(id string) (OrderRecord, error) {
	row := j.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	rec, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OrderRecord{}, fmt.Errorf("order %q not found", id)
		}
		return OrderRecord{}, err
	}
	return rec, nil
}

// ListOrdersBetween returns orders submitted within [start, end).
func (j *SQLite) ListOrdersBetween(start, end time.Time) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE time >= ? AND time < ?
		ORDER BY time ASC, id ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, direction, size, profit, close_time, win
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.Symbol,
			&rec.Direction,
			&rec.Size,
			&rec.Profit,
			&rec.CloseTime,
			&rec.Win,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary totals closed trades in a window.
type Summary struct {
	Trades      int
	Wins        int
	Losses      int
	GrossProfit float64
	GrossLoss   float64
	Net         float64
}

func (s Summary) WinRatio() float64 {
	if s.Trades == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Trades)
}

func Summarize(trades []TradeRecord) Summary {
	var s Summary
	for _, t := range trades {
		s.Trades++
		s.Net += t.Profit
		if t.Win {
			s.Wins++
		} else {
			s.Losses++
		}
		if t.Profit > 0 {
			s.GrossProfit += t.Profit
		} else {
			s.GrossLoss += -t.Profit
		}
	}
	return s
}
