package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

var (
	orderHeader = []string{"id", "time", "source", "symbol", "direction", "kind", "size", "entry", "stop_loss", "take_profit", "success", "comment", "order_id"}
	tradeHeader = []string{"trade_id", "symbol", "direction", "size", "profit", "close_time", "win"}
)

// CSVJournal appends to orders.csv and trades.csv in a directory.
type CSVJournal struct {
	mu     sync.Mutex
	orders *csv.Writer
	trades *csv.Writer
	of, tf *os.File
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	of, ow, err := openCSV(filepath.Join(dir, "orders.csv"), orderHeader)
	if err != nil {
		return nil, err
	}
	tf, tw, err := openCSV(filepath.Join(dir, "trades.csv"), tradeHeader)
	if err != nil {
		of.Close()
		return nil, err
	}
	return &CSVJournal{orders: ow, trades: tw, of: of, tf: tf}, nil
}

// openCSV opens path for append and writes header when the file is new.
func openCSV(path string, header []string) (*os.File, *csv.Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			f.Close()
			return nil, nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("write %s header: %w", path, err)
		}
	}
	return f, w, nil
}

func (j *CSVJournal) RecordOrder(o OrderRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.orders.Write([]string{
		o.ID,
		o.Time.UTC().Format(time.RFC3339Nano),
		o.Source,
		o.Symbol,
		o.Direction,
		o.Kind,
		f(o.Size),
		f(o.Entry),
		f(o.StopLoss),
		f(o.TakeProfit),
		strconv.FormatBool(o.Success),
		o.Comment,
		o.OrderID,
	})
	if err != nil {
		return err
	}
	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.trades.Write([]string{
		t.TradeID,
		t.Symbol,
		t.Direction,
		f(t.Size),
		f(t.Profit),
		t.CloseTime.UTC().Format(time.RFC3339Nano),
		strconv.FormatBool(t.Win),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.orders.Flush()
	if err := j.orders.Error(); err != nil {
		return err
	}
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}

	if err := j.of.Close(); err != nil {
		return err
	}
	return j.tf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// Open builds the journal named by kind: none, csv (path is a directory)
// or sqlite (path is a database file).
func Open(kind, path string) (Journal, error) {
	switch kind {
	case "", "none":
		return Nop{}, nil
	case "csv":
		j, err := NewCSV(path)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "sqlite":
		j, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q (want none|csv|sqlite)", kind)
	}
}
