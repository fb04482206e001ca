package trader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rustyeddy/fxflip/broker"
	"github.com/rustyeddy/fxflip/internal/id"
	"github.com/rustyeddy/fxflip/internal/logging"
	"github.com/rustyeddy/fxflip/journal"
	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/order"
	"github.com/rustyeddy/fxflip/risk"
	"github.com/rustyeddy/fxflip/telemetry"
)

// ErrMarginInUse refuses an entry while the account already has margin
// committed.
var ErrMarginInUse = errors.New("margin in use")

// Entry sources recorded in the journal.
const (
	SourceLoop   = "loop"
	SourceTicket = "ticket"
	SourceCLI    = "cli"
)

type EntryRequest struct {
	Symbol       string
	Direction    market.Direction
	StopLossPips float64

	// PendingPrice turns the entry into a stop-limit order.
	PendingPrice *float64
	Source       string
}

// Ticket is everything one entry computed, from sizing to broker verdict.
// Fields after the first failing step stay zero.
type Ticket struct {
	Request        EntryRequest
	Account        broker.Account
	ConversionRate float64
	Sizing         risk.Result
	Size           float64
	Plan           order.Plan
	Decision       risk.Decision
	Result         broker.SubmitResult
	Submitted      bool
}

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"JPY": "¥",
}

func currencySymbol(ccy string) string {
	if s, ok := currencySymbols[ccy]; ok {
		return s
	}
	return ccy + " "
}

// Summary renders the ticket the way the order form shows it.
func (t Ticket) Summary() string {
	status := "Failed"
	if t.Result.Success {
		status = "Success"
	}
	r := t.Sizing.Rounded()
	cs := currencySymbol(t.Account.Currency)

	var b strings.Builder
	fmt.Fprintf(&b, "Order execution status: %s\n", status)
	fmt.Fprintf(&b, "Status comment: %s\n", t.Result.Comment)
	fmt.Fprintf(&b, "Money at risk: %s%.2f\n", cs, r.MoneyAtRisk)
	fmt.Fprintf(&b, "Risk respecting lot size: %.2f\n", r.RiskRespectingSize)
	fmt.Fprintf(&b, "Pip value: %s%.2f", cs, r.PipValue)
	return b.String()
}

type Options struct {
	Gateway broker.Gateway
	Quotes  market.QuoteProvider
	Journal journal.Journal
	Metrics *telemetry.Metrics
	Logger  *slog.Logger
	Sizing  Sizing
	Now     func() time.Time
}

// Trader owns the single entry path: guard, size, derive, check, submit.
type Trader struct {
	gw      broker.Gateway
	quotes  market.QuoteProvider
	journal journal.Journal
	metrics *telemetry.Metrics
	log     *slog.Logger
	sizing  Sizing
	now     func() time.Time
}

func New(opts Options) (*Trader, error) {
	if opts.Gateway == nil {
		return nil, errors.New("trader: gateway is required")
	}
	if opts.Quotes == nil {
		return nil, errors.New("trader: quote provider is required")
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Trader{
		gw:      opts.Gateway,
		quotes:  opts.Quotes,
		journal: opts.Journal,
		metrics: opts.Metrics,
		log:     logging.OrDefault(opts.Logger),
		sizing:  opts.Sizing,
		now:     opts.Now,
	}, nil
}

func (r EntryRequest) validate() error {
	if _, err := market.NormalizeSymbol(r.Symbol); err != nil {
		return fmt.Errorf("%w: %v", risk.ErrPrecondition, err)
	}
	if !r.Direction.Valid() {
		return fmt.Errorf("%w: direction %q", risk.ErrPrecondition, r.Direction)
	}
	if r.StopLossPips <= 0 {
		return fmt.Errorf("%w: stop loss pips must be > 0 (got %v)", risk.ErrPrecondition, r.StopLossPips)
	}
	if r.PendingPrice != nil && *r.PendingPrice <= 0 {
		return fmt.Errorf("%w: pending price must be > 0 (got %v)", risk.ErrPrecondition, *r.PendingPrice)
	}
	return nil
}

// Enter sizes and submits one order. A broker rejection is not an error:
// the returned ticket carries Result.Success == false and the comment.
func (t *Trader) Enter(ctx context.Context, req EntryRequest) (Ticket, error) {
	tk := Ticket{Request: req}
	if err := req.validate(); err != nil {
		return tk, err
	}
	sym, _ := market.NormalizeSymbol(req.Symbol)
	req.Symbol = sym
	tk.Request = req
	log := t.log.With("symbol", sym, "direction", req.Direction.Label())

	acct, err := t.gw.Account(ctx)
	if err != nil {
		return tk, fmt.Errorf("account: %w", err)
	}
	tk.Account = acct

	snap := risk.Snapshot{Balance: acct.Balance, FreeMargin: acct.FreeMargin, MarginUsed: acct.MarginUsed}
	if risk.MarginInUse(snap) {
		log.Warn("There is already a position", "balance", acct.Balance, "free_margin", acct.FreeMargin)
		return tk, fmt.Errorf("%w: free margin %.2f != balance %.2f", ErrMarginInUse, acct.FreeMargin, acct.Balance)
	}

	ccy := t.sizing.BaseCurrency
	if ccy == "" {
		ccy = acct.Currency
	}
	rate, err := market.ConversionRate(ctx, t.quotes, sym, ccy)
	if err != nil {
		t.metrics.QuoteFailure(ctx, sym)
		return tk, err
	}
	tk.ConversionRate = rate

	sizing, err := risk.Calculate(risk.Inputs{
		Balance:        acct.Balance,
		Leverage:       t.sizing.Leverage,
		RiskPercent:    t.sizing.RiskPercent,
		StopLossPips:   req.StopLossPips,
		ConversionRate: rate,
	})
	if err != nil {
		return tk, err
	}
	tk.Sizing = sizing

	size := sizing.TradeSize()
	if req.PendingPrice != nil {
		if size, err = order.PendingSize(size); err != nil {
			return tk, err
		}
	}
	tk.Size = size
	r := sizing.Rounded()
	log.Info("position sized",
		"conversion_rate", rate,
		"max_size", r.MaxSize,
		"risk_respecting_size", r.RiskRespectingSize,
		"money_at_risk", r.MoneyAtRisk,
		"pip_value", r.PipValue,
		"size", size)

	params := order.Params{
		Symbol:       sym,
		Direction:    req.Direction,
		Size:         size,
		StopLossPips: req.StopLossPips,
		PipSize:      market.PipSize(sym),
		PendingPrice: req.PendingPrice,
	}
	if req.PendingPrice == nil {
		tick, err := t.gw.Tick(ctx, sym)
		if err != nil {
			t.metrics.QuoteFailure(ctx, sym)
			return tk, fmt.Errorf("tick: %w", err)
		}
		// both directions anchor on the ask
		params.Ask = tick.Ask
	}

	plan, err := order.Derive(params)
	if err != nil {
		return tk, err
	}
	tk.Plan = plan

	tk.Decision = risk.Evaluate(risk.Policy{
		MaxRiskPercent:    t.sizing.RiskPercent,
		MinRR:             order.RewardRiskRatio,
		RequireFlatMargin: true,
	}, risk.Intent{
		Lots:           plan.Size,
		Entry:          plan.Entry,
		Stop:           plan.StopLoss,
		TakeProfit:     plan.TakeProfit,
		PipSize:        params.PipSize,
		ConversionRate: rate,
	}, snap)
	if !tk.Decision.Allowed {
		log.Warn("entry refused by risk checks", "decision", tk.Decision.String())
		return tk, fmt.Errorf("%w: %s", risk.ErrPrecondition, tk.Decision)
	}

	log.Info("submitting order",
		"kind", string(plan.Kind),
		"size", plan.Size,
		"entry", plan.Entry,
		"stop_limit", plan.StopLimit,
		"stop_loss", plan.StopLoss,
		"take_profit", plan.TakeProfit,
		"deviation", plan.Deviation)

	res, err := t.gw.SubmitOrder(ctx, plan)
	if err != nil {
		t.metrics.Order(ctx, sym, string(plan.Kind), false)
		t.record(tk, broker.SubmitResult{Comment: err.Error()})
		return tk, fmt.Errorf("submit: %w", err)
	}
	tk.Result = res
	tk.Submitted = true
	t.metrics.Order(ctx, sym, string(plan.Kind), res.Success)
	t.record(tk, res)

	if res.Success {
		log.Info("order executed", "order_id", res.OrderID, "comment", res.Comment)
	} else {
		log.Warn("order failed", "comment", res.Comment)
	}
	return tk, nil
}

func (t *Trader) record(tk Ticket, res broker.SubmitResult) {
	rec := journal.OrderRecord{
		ID:         id.NewAt(t.now()),
		Time:       t.now(),
		Source:     tk.Request.Source,
		Symbol:     tk.Plan.Symbol,
		Direction:  string(tk.Plan.Direction),
		Kind:       string(tk.Plan.Kind),
		Size:       tk.Plan.Size,
		Entry:      tk.Plan.Entry,
		StopLoss:   tk.Plan.StopLoss,
		TakeProfit: tk.Plan.TakeProfit,
		Success:    res.Success,
		Comment:    res.Comment,
		OrderID:    res.OrderID,
	}
	if err := t.journal.RecordOrder(rec); err != nil {
		t.log.Error("journal order", "err", err)
	}
}
