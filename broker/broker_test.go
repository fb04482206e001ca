package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/order"
)

func TestNewResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		comment string
		want    bool
	}{
		{"executed", StatusExecuted, true},
		{"no money", "No money", false},
		{"market closed", "Market closed", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NewResult("42", tt.comment)
			assert.Equal(t, tt.want, got.Success)
			assert.Equal(t, tt.comment, got.Comment)
			assert.Equal(t, "42", got.OrderID)
		})
	}
}

func TestMostRecent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	trades := []ClosedTrade{
		{ID: "1", Symbol: "USDJPY", Direction: market.Buy, Profit: 3, Time: now.Add(-3 * time.Hour)},
		{ID: "2", Symbol: "USDJPY", Direction: market.Sell, Profit: -5, Time: now.Add(-1 * time.Hour)},
		{ID: "3", Symbol: "EURUSD", Direction: market.Buy, Profit: 8, Time: now},
		{ID: "4", Symbol: "USDJPY", Direction: market.Buy, Profit: 1, Time: now.Add(-72 * time.Hour)},
	}

	got, err := MostRecent(trades, "USDJPY", now.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "2", got.ID)

	_, err = MostRecent(trades, "GBPUSD", now.Add(-48*time.Hour))
	assert.ErrorIs(t, err, ErrNoClosedTrade)

	_, err = MostRecent(trades, "USDJPY", now.Add(-30*time.Minute))
	assert.ErrorIs(t, err, ErrNoClosedTrade)
}

type slowGateway struct{}

func (slowGateway) Account(ctx context.Context) (Account, error) {
	<-ctx.Done()
	return Account{}, ctx.Err()
}

func (slowGateway) Tick(ctx context.Context, symbol string) (market.Tick, error) {
	<-ctx.Done()
	return market.Tick{}, ctx.Err()
}

func (slowGateway) HasOpenPosition(ctx context.Context, symbol string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func (slowGateway) LastClosedTrade(ctx context.Context, symbol string, since time.Time) (ClosedTrade, error) {
	<-ctx.Done()
	return ClosedTrade{}, ctx.Err()
}

func (slowGateway) SubmitOrder(ctx context.Context, plan order.Plan) (SubmitResult, error) {
	<-ctx.Done()
	return SubmitResult{}, ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	g := WithTimeout(slowGateway{}, 10*time.Millisecond)
	ctx := context.Background()

	_, err := g.Account(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = g.Tick(ctx, "EURUSD")
	assert.ErrorIs(t, err, market.ErrQuoteUnavailable)

	_, err = g.SubmitOrder(ctx, order.Plan{Symbol: "EURUSD"})
	assert.ErrorIs(t, err, ErrOrderRejected)
}
