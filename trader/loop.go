package trader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rustyeddy/fxflip/broker"
	"github.com/rustyeddy/fxflip/internal/logging"
	"github.com/rustyeddy/fxflip/journal"
	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/telemetry"
)

type State int

const (
	AwaitingFirstEntry State = iota
	PositionOpen
	AwaitingNextEntry
)

func (s State) String() string {
	switch s {
	case AwaitingFirstEntry:
		return "awaiting-first-entry"
	case PositionOpen:
		return "position-open"
	case AwaitingNextEntry:
		return "awaiting-next-entry"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Cycle outcomes, also used as the metrics label.
const (
	OutcomeSubmitted     = "submitted"
	OutcomeRejected      = "rejected"
	OutcomePositionOpen  = "position_open"
	OutcomeNoClosedTrade = "no_closed_trade"
	OutcomeError         = "error"
)

// Cycle describes what one Step did.
type Cycle struct {
	State     State // state after the cycle
	Outcome   string
	Direction market.Direction
	LastTrade *broker.ClosedTrade
	Ticket    *Ticket
}

type LoopOptions struct {
	Settings Settings
	Trader   *Trader
	Gateway  broker.Gateway
	Journal  journal.Journal
	Metrics  *telemetry.Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

// Loop alternates entries on one symbol. It never ends on its own; Step
// is safe to call from one goroutine at a time and serializes otherwise.
type Loop struct {
	mu sync.Mutex

	settings Settings
	trader   *Trader
	gw       broker.Gateway
	journal  journal.Journal
	metrics  *telemetry.Metrics
	log      *slog.Logger
	now      func() time.Time

	state   State
	stats   Statistics
	counted map[string]struct{}
}

func NewLoop(opts LoopOptions) (*Loop, error) {
	if opts.Trader == nil {
		return nil, errors.New("loop: trader is required")
	}
	if opts.Gateway == nil {
		opts.Gateway = opts.Trader.gw
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if !opts.Settings.StartDirection.Valid() {
		return nil, fmt.Errorf("loop: start direction %q", opts.Settings.StartDirection)
	}
	if opts.Settings.HistoryDays <= 0 {
		opts.Settings.HistoryDays = 2
	}
	return &Loop{
		settings: opts.Settings,
		trader:   opts.Trader,
		gw:       opts.Gateway,
		journal:  opts.Journal,
		metrics:  opts.Metrics,
		log:      logging.OrDefault(opts.Logger).With("symbol", opts.Settings.Symbol),
		now:      opts.Now,
		state:    AwaitingFirstEntry,
		counted:  make(map[string]struct{}),
	}, nil
}

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) Stats() Statistics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Step runs one decision cycle against broker truth.
func (l *Loop) Step(ctx context.Context) (Cycle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.step(ctx)
	c.State = l.state
	if err != nil && c.Outcome == "" {
		c.Outcome = OutcomeError
	}
	l.metrics.Cycle(ctx, l.settings.Symbol, c.Outcome)
	return c, err
}

func (l *Loop) step(ctx context.Context) (Cycle, error) {
	sym := l.settings.Symbol

	open, err := l.gw.HasOpenPosition(ctx, sym)
	if err != nil {
		l.log.Error("open position check failed", "err", err)
		return Cycle{}, fmt.Errorf("open position: %w", err)
	}
	if open {
		l.log.Debug("position open, nothing to do", "state", l.state.String())
		return Cycle{Outcome: OutcomePositionOpen}, nil
	}

	var c Cycle
	if l.state == AwaitingFirstEntry {
		c.Direction = l.settings.StartDirection
		l.log.Info("######## STRATEGY START ########",
			"start_direction", c.Direction.Label(),
			"stop_loss_pips", l.settings.StopLossPips,
			"poll_interval", l.settings.PollInterval.String())
	} else {
		if l.state == PositionOpen {
			l.state = AwaitingNextEntry
		}
		since := l.now().Add(-time.Duration(l.settings.HistoryDays) * 24 * time.Hour)
		last, err := l.gw.LastClosedTrade(ctx, sym, since)
		if errors.Is(err, broker.ErrNoClosedTrade) {
			l.log.Error("inconsistent state: no position open and no closed trade in history",
				"since", since, "err", err)
			return Cycle{Outcome: OutcomeNoClosedTrade}, err
		}
		if err != nil {
			l.log.Error("closed trade lookup failed", "err", err)
			return Cycle{}, fmt.Errorf("last closed trade: %w", err)
		}
		c.LastTrade = &last
		c.Direction = NextDirection(last)
		l.count(ctx, last)
		l.log.Info("next direction decided",
			"last_trade", last.ID,
			"last_direction", last.Direction.Label(),
			"last_profit", last.Profit,
			"win", IsWin(last.Profit),
			"next_direction", c.Direction.Label())
	}

	tk, err := l.trader.Enter(ctx, EntryRequest{
		Symbol:       sym,
		Direction:    c.Direction,
		StopLossPips: l.settings.StopLossPips,
		PendingPrice: l.settings.pendingPrice(),
		Source:       SourceLoop,
	})
	c.Ticket = &tk
	if err != nil {
		l.log.Error("entry failed", "err", err)
		return c, err
	}
	if !tk.Result.Success {
		c.Outcome = OutcomeRejected
		return c, nil
	}
	l.state = PositionOpen
	c.Outcome = OutcomeSubmitted
	return c, nil
}

// count adds a closed trade to the statistics once per trade ID.
func (l *Loop) count(ctx context.Context, tr broker.ClosedTrade) {
	if _, seen := l.counted[tr.ID]; seen {
		return
	}
	l.counted[tr.ID] = struct{}{}
	l.stats = l.stats.Record(tr.Profit)
	l.metrics.Trade(ctx, tr.Symbol, tr.Profit)

	if err := l.journal.RecordTrade(journal.TradeRecord{
		TradeID:   tr.ID,
		Symbol:    tr.Symbol,
		Direction: string(tr.Direction),
		Size:      tr.Size,
		Profit:    tr.Profit,
		CloseTime: tr.Time,
		Win:       IsWin(tr.Profit),
	}); err != nil {
		l.log.Error("journal trade", "err", err)
	}
	l.log.Info("statistics", "stats", l.stats)
}
