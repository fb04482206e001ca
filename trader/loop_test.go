package trader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxflip/broker"
	"github.com/rustyeddy/fxflip/broker/sim"
	"github.com/rustyeddy/fxflip/market"
)

func loopSettings() Settings {
	return Settings{
		Symbol:         "EURUSD",
		StartDirection: market.Sell,
		StopLossPips:   10,
		PollInterval:   time.Second,
		HistoryDays:    2,
	}
}

func newLoop(t *testing.T, gw broker.Gateway, j *memJournal) *Loop {
	t.Helper()
	opts := LoopOptions{
		Settings: loopSettings(),
		Trader:   newTrader(t, gw, noQuotes(t), nil),
		Logger:   quietLogger(),
		Now:      clock,
	}
	if j != nil {
		opts.Journal = j
	}
	l, err := NewLoop(opts)
	require.NoError(t, err)
	return l
}

var since = t0.Add(-48 * time.Hour)

// entryReady stubs what a successful entry needs from the broker.
func entryReady(gw *mockGateway) {
	gw.On("Account", mock.Anything).Return(flatAccount(), nil)
	gw.On("Tick", mock.Anything, "EURUSD").Return(eurusdTick(), nil)
}

func TestLoop_FirstCycleUsesStartDirection(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{}
	gw.On("HasOpenPosition", mock.Anything, "EURUSD").Return(false, nil)
	entryReady(gw)
	gw.On("SubmitOrder", mock.Anything, mock.Anything).Return(executed("o-1"), nil)

	l := newLoop(t, gw, nil)
	assert.Equal(t, AwaitingFirstEntry, l.State())

	c, err := l.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSubmitted, c.Outcome)
	assert.Equal(t, PositionOpen, c.State)
	assert.Equal(t, market.Sell, c.Direction)
	assert.Nil(t, c.LastTrade)

	plans := gw.submitted()
	require.Len(t, plans, 1)
	assert.Equal(t, market.Sell, plans[0].Direction)
	assert.Equal(t, 0, l.Stats().Trades())
	gw.AssertNotCalled(t, "LastClosedTrade", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoop_OpenPositionIsNoop(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{}
	gw.On("HasOpenPosition", mock.Anything, "EURUSD").Return(false, nil).Once()
	gw.On("HasOpenPosition", mock.Anything, "EURUSD").Return(true, nil)
	entryReady(gw)
	gw.On("SubmitOrder", mock.Anything, mock.Anything).Return(executed("o-1"), nil)

	l := newLoop(t, gw, nil)
	_, err := l.Step(context.Background())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		c, err := l.Step(context.Background())
		require.NoError(t, err)
		assert.Equal(t, OutcomePositionOpen, c.Outcome)
		assert.Equal(t, PositionOpen, c.State)
	}

	assert.Len(t, gw.submitted(), 1)
	assert.Equal(t, Statistics{}, l.Stats())
}

func TestLoop_ReversesAfterLoss(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{}
	gw.On("HasOpenPosition", mock.Anything, "EURUSD").Return(false, nil)
	entryReady(gw)
	gw.On("SubmitOrder", mock.Anything, mock.Anything).Return(executed("o-1"), nil)
	last := broker.ClosedTrade{ID: "t-1", Symbol: "EURUSD", Direction: market.Sell, Size: 0.5, Profit: -5, Time: t0.Add(-time.Hour)}
	gw.On("LastClosedTrade", mock.Anything, "EURUSD", since).Return(last, nil)
	j := &memJournal{}

	l := newLoop(t, gw, j)
	_, err := l.Step(context.Background())
	require.NoError(t, err)

	c, err := l.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSubmitted, c.Outcome)
	assert.Equal(t, market.Buy, c.Direction)
	require.NotNil(t, c.LastTrade)
	assert.Equal(t, "t-1", c.LastTrade.ID)

	plans := gw.submitted()
	require.Len(t, plans, 2)
	assert.Equal(t, market.Buy, plans[1].Direction)

	st := l.Stats()
	assert.Equal(t, 1, st.Losses)
	assert.Equal(t, 0, st.Wins)
	assert.Equal(t, "-5", st.Profit.String())

	require.Len(t, j.trades, 1)
	assert.Equal(t, "t-1", j.trades[0].TradeID)
	assert.False(t, j.trades[0].Win)
}

func TestLoop_KeepsDirectionAfterWin(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{}
	gw.On("HasOpenPosition", mock.Anything, "EURUSD").Return(false, nil)
	entryReady(gw)
	gw.On("SubmitOrder", mock.Anything, mock.Anything).Return(executed("o-1"), nil)
	gw.On("LastClosedTrade", mock.Anything, "EURUSD", since).
		Return(broker.ClosedTrade{ID: "t-1", Symbol: "EURUSD", Direction: market.Sell, Profit: 0}, nil)

	l := newLoop(t, gw, nil)
	_, err := l.Step(context.Background())
	require.NoError(t, err)
	c, err := l.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, market.Sell, c.Direction)
	assert.Equal(t, 1, l.Stats().Wins)
}

func TestLoop_NoClosedTradeSkipsCycle(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{}
	gw.On("HasOpenPosition", mock.Anything, "EURUSD").Return(false, nil)
	entryReady(gw)
	gw.On("SubmitOrder", mock.Anything, mock.Anything).Return(executed("o-1"), nil)
	gw.On("LastClosedTrade", mock.Anything, "EURUSD", since).
		Return(broker.ClosedTrade{}, broker.ErrNoClosedTrade)

	l := newLoop(t, gw, nil)
	_, err := l.Step(context.Background())
	require.NoError(t, err)

	c, err := l.Step(context.Background())
	assert.ErrorIs(t, err, broker.ErrNoClosedTrade)
	assert.Equal(t, OutcomeNoClosedTrade, c.Outcome)
	assert.Equal(t, AwaitingNextEntry, c.State)
	assert.Len(t, gw.submitted(), 1)

	// the loop keeps going on the next poll
	_, err = l.Step(context.Background())
	assert.ErrorIs(t, err, broker.ErrNoClosedTrade)
}

func TestLoop_RejectionKeepsState(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{}
	gw.On("HasOpenPosition", mock.Anything, "EURUSD").Return(false, nil)
	entryReady(gw)
	gw.On("SubmitOrder", mock.Anything, mock.Anything).Return(broker.NewResult("", "Requote"), nil).Once()
	gw.On("SubmitOrder", mock.Anything, mock.Anything).Return(executed("o-2"), nil)

	l := newLoop(t, gw, nil)

	c, err := l.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, c.Outcome)
	assert.Equal(t, AwaitingFirstEntry, c.State)

	c, err = l.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, c.Outcome)
	assert.Equal(t, market.Sell, c.Direction)
	assert.Equal(t, PositionOpen, c.State)
}

func TestLoop_ClosedTradeCountedOnce(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{}
	gw.On("HasOpenPosition", mock.Anything, "EURUSD").Return(false, nil)
	entryReady(gw)
	gw.On("SubmitOrder", mock.Anything, mock.Anything).Return(executed("o-1"), nil).Once()
	gw.On("SubmitOrder", mock.Anything, mock.Anything).Return(broker.NewResult("", "No money"), nil).Once()
	gw.On("SubmitOrder", mock.Anything, mock.Anything).Return(executed("o-3"), nil)
	gw.On("LastClosedTrade", mock.Anything, "EURUSD", since).
		Return(broker.ClosedTrade{ID: "t-1", Symbol: "EURUSD", Direction: market.Buy, Profit: -12}, nil)
	j := &memJournal{}

	l := newLoop(t, gw, j)
	for _, want := range []string{OutcomeSubmitted, OutcomeRejected, OutcomeSubmitted} {
		c, err := l.Step(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, c.Outcome)
	}

	assert.Equal(t, 1, l.Stats().Losses)
	assert.Equal(t, 1, l.Stats().Trades())
	assert.Len(t, j.trades, 1)
	plans := gw.submitted()
	require.Len(t, plans, 3)
	assert.Equal(t, market.Sell, plans[2].Direction)
}

func TestLoop_GatewayErrorIsReported(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{}
	gw.On("HasOpenPosition", mock.Anything, "EURUSD").Return(false, errors.New("timeout"))

	l := newLoop(t, gw, nil)
	c, err := l.Step(context.Background())
	assert.Error(t, err)
	assert.Equal(t, OutcomeError, c.Outcome)
	assert.Equal(t, AwaitingFirstEntry, c.State)
}

func TestLoop_MarginGuard(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{}
	gw.On("HasOpenPosition", mock.Anything, "EURUSD").Return(false, nil)
	gw.On("Account", mock.Anything).Return(broker.Account{Currency: "EUR", Balance: 10000, FreeMargin: 9000}, nil)

	l := newLoop(t, gw, nil)
	c, err := l.Step(context.Background())
	assert.ErrorIs(t, err, ErrMarginInUse)
	assert.Equal(t, OutcomeError, c.Outcome)
	assert.Empty(t, gw.submitted())
}

func TestNewLoop_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewLoop(LoopOptions{Settings: loopSettings()})
	assert.Error(t, err)

	s := loopSettings()
	s.StartDirection = ""
	_, err = NewLoop(LoopOptions{Settings: s, Trader: newTrader(t, &mockGateway{}, noQuotes(t), nil)})
	assert.Error(t, err)
}

func newPaperLoop(t *testing.T) (*Loop, *sim.Engine) {
	t.Helper()
	e := sim.NewEngine(sim.Config{Balance: 10000, Currency: "EUR", Leverage: 30, Clock: clock})
	require.NoError(t, e.UpdatePrice(eurusdTick()))

	l, err := NewLoop(LoopOptions{
		Settings: loopSettings(),
		Trader:   newTrader(t, e, noQuotes(t), nil),
		Logger:   quietLogger(),
		Now:      clock,
	})
	require.NoError(t, err)
	return l, e
}

func TestLoop_WithPaperEngine(t *testing.T) {
	t.Parallel()

	l, e := newPaperLoop(t)
	ctx := context.Background()

	c, err := l.Step(ctx)
	require.NoError(t, err)
	require.Equal(t, OutcomeSubmitted, c.Outcome)

	open := e.OpenTrades()
	require.Len(t, open, 1)
	assert.Equal(t, market.Sell, open[0].Direction)
	assert.Equal(t, 0.5, open[0].Size)

	c, err = l.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomePositionOpen, c.Outcome)

	// ask rises through the short's stop
	require.NoError(t, e.UpdatePrice(market.Tick{Symbol: "EURUSD", Time: t0.Add(time.Minute), Bid: 1.10110, Ask: 1.10120}))
	require.Empty(t, e.OpenTrades())

	c, err = l.Step(ctx)
	require.NoError(t, err)
	require.Equal(t, OutcomeSubmitted, c.Outcome)
	assert.Equal(t, market.Buy, c.Direction)
	assert.Equal(t, 1, l.Stats().Losses)

	open = e.OpenTrades()
	require.Len(t, open, 1)
	assert.Equal(t, market.Buy, open[0].Direction)
}

func TestLoop_Run(t *testing.T) {
	t.Parallel()

	l, e := newPaperLoop(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return len(e.OpenTrades()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, PositionOpen, l.State())
	assert.Len(t, e.OpenTrades(), 1)
}
