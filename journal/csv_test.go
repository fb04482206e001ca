package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(dir)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	orders := readCSV(t, filepath.Join(dir, "orders.csv"))
	require.Len(t, orders, 1)
	assert.Equal(t, orderHeader, orders[0])

	trades := readCSV(t, filepath.Join(dir, "trades.csv"))
	require.Len(t, trades, 1)
	assert.Equal(t, tradeHeader, trades[0])
}

func TestCSVJournalAppends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"A", "B"} {
		j, err := NewCSV(dir)
		require.NoError(t, err)
		require.NoError(t, j.RecordOrder(OrderRecord{
			ID: id, Time: at.Add(time.Duration(i) * time.Minute), Source: "loop",
			Symbol: "USDJPY", Direction: "SELL", Kind: "market-sell",
			Size: 0.5, Entry: 150, StopLoss: 150.1, TakeProfit: 149.7,
			Success: i == 0, Comment: "Request executed", OrderID: "42",
		}))
		require.NoError(t, j.RecordTrade(TradeRecord{
			TradeID: id, Symbol: "USDJPY", Direction: "SELL", Size: 0.5,
			Profit: -5, CloseTime: at, Win: false,
		}))
		require.NoError(t, j.Close())
	}

	orders := readCSV(t, filepath.Join(dir, "orders.csv"))
	require.Len(t, orders, 3, "one header and two rows")
	assert.Equal(t, "A", orders[1][0])
	assert.Equal(t, "2026-03-04T10:00:00Z", orders[1][1])
	assert.Equal(t, "0.500000", orders[1][6])
	assert.Equal(t, "true", orders[1][10])
	assert.Equal(t, "false", orders[2][10])

	trades := readCSV(t, filepath.Join(dir, "trades.csv"))
	require.Len(t, trades, 3)
	assert.Equal(t, "-5.000000", trades[1][4])
}

func TestOpen(t *testing.T) {
	t.Parallel()

	j, err := Open("none", "")
	require.NoError(t, err)
	assert.IsType(t, Nop{}, j)
	assert.NoError(t, j.RecordOrder(OrderRecord{}))

	dir := t.TempDir()
	j, err = Open("csv", filepath.Join(dir, "csv"))
	require.NoError(t, err)
	assert.NoError(t, j.Close())

	j, err = Open("sqlite", filepath.Join(dir, "j.db"))
	require.NoError(t, err)
	assert.NoError(t, j.Close())

	_, err = Open("mongo", "")
	assert.Error(t, err)
}
