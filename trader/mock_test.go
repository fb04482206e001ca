package trader

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rustyeddy/fxflip/broker"
	"github.com/rustyeddy/fxflip/journal"
	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/order"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Account(ctx context.Context) (broker.Account, error) {
	args := m.Called(ctx)
	return args.Get(0).(broker.Account), args.Error(1)
}

func (m *mockGateway) Tick(ctx context.Context, symbol string) (market.Tick, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(market.Tick), args.Error(1)
}

func (m *mockGateway) HasOpenPosition(ctx context.Context, symbol string) (bool, error) {
	args := m.Called(ctx, symbol)
	return args.Bool(0), args.Error(1)
}

func (m *mockGateway) LastClosedTrade(ctx context.Context, symbol string, since time.Time) (broker.ClosedTrade, error) {
	args := m.Called(ctx, symbol, since)
	return args.Get(0).(broker.ClosedTrade), args.Error(1)
}

func (m *mockGateway) SubmitOrder(ctx context.Context, plan order.Plan) (broker.SubmitResult, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).(broker.SubmitResult), args.Error(1)
}

// submitted returns the plans passed to SubmitOrder, in order.
func (m *mockGateway) submitted() []order.Plan {
	var plans []order.Plan
	for _, c := range m.Calls {
		if c.Method == "SubmitOrder" {
			plans = append(plans, c.Arguments.Get(1).(order.Plan))
		}
	}
	return plans
}

type quoteFunc func(ctx context.Context, symbol string) (float64, error)

func (f quoteFunc) Price(ctx context.Context, symbol string) (float64, error) {
	return f(ctx, symbol)
}

var t0 = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return t0 }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func flatAccount() broker.Account {
	return broker.Account{ID: "acc", Currency: "EUR", Balance: 10000, FreeMargin: 10000}
}

func eurusdTick() market.Tick {
	return market.Tick{Symbol: "EURUSD", Time: t0, Bid: 1.09990, Ask: 1.10000}
}

func executed(id string) broker.SubmitResult {
	return broker.NewResult(id, broker.StatusExecuted)
}

func defaultSizing() Sizing {
	return Sizing{RiskPercent: 1, Leverage: 5}
}

type memJournal struct {
	orders []journal.OrderRecord
	trades []journal.TradeRecord
}

func (j *memJournal) RecordOrder(r journal.OrderRecord) error {
	j.orders = append(j.orders, r)
	return nil
}

func (j *memJournal) RecordTrade(r journal.TradeRecord) error {
	j.trades = append(j.trades, r)
	return nil
}

func (j *memJournal) Close() error { return nil }
