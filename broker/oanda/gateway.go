package oanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/fxflip/broker"
	"github.com/rustyeddy/fxflip/internal/id"
	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/order"
	"github.com/rustyeddy/fxflip/risk"
)

var _ broker.Gateway = (*Client)(nil)

type accountSummaryResponse struct {
	Account struct {
		ID              string `json:"id"`
		Currency        string `json:"currency"`
		Balance         string `json:"balance"`
		MarginAvailable string `json:"marginAvailable"`
		MarginUsed      string `json:"marginUsed"`
	} `json:"account"`
}

func (c *Client) Account(ctx context.Context) (broker.Account, error) {
	var resp accountSummaryResponse
	if _, err := c.do(ctx, "GET", c.accountPath("/summary"), nil, nil, &resp); err != nil {
		return broker.Account{}, fmt.Errorf("account summary: %w", err)
	}

	a := resp.Account
	balance, err := parseFloat(a.Balance)
	if err != nil {
		return broker.Account{}, fmt.Errorf("oanda: parse balance %q: %w", a.Balance, err)
	}
	free, err := parseFloat(a.MarginAvailable)
	if err != nil {
		return broker.Account{}, fmt.Errorf("oanda: parse marginAvailable %q: %w", a.MarginAvailable, err)
	}
	used, err := parseFloat(a.MarginUsed)
	if err != nil {
		return broker.Account{}, fmt.Errorf("oanda: parse marginUsed %q: %w", a.MarginUsed, err)
	}

	return broker.Account{
		ID:         a.ID,
		Currency:   a.Currency,
		Balance:    balance,
		FreeMargin: free,
		MarginUsed: used,
	}, nil
}

type priceBucket struct {
	Price string `json:"price"`
}

type pricingResponse struct {
	Prices []struct {
		Instrument string        `json:"instrument"`
		Time       time.Time     `json:"time"`
		Bids       []priceBucket `json:"bids"`
		Asks       []priceBucket `json:"asks"`
	} `json:"prices"`
}

func (c *Client) Tick(ctx context.Context, symbol string) (market.Tick, error) {
	q := url.Values{}
	q.Set("instruments", Instrument(symbol))

	var resp pricingResponse
	if _, err := c.do(ctx, "GET", c.accountPath("/pricing"), q, nil, &resp); err != nil {
		return market.Tick{}, fmt.Errorf("tick %s: %w: %v", symbol, market.ErrQuoteUnavailable, err)
	}

	for _, p := range resp.Prices {
		if Symbol(p.Instrument) != symbol || len(p.Bids) == 0 || len(p.Asks) == 0 {
			continue
		}
		bid, err := parseFloat(p.Bids[0].Price)
		if err != nil {
			return market.Tick{}, fmt.Errorf("oanda: parse bid %q: %w", p.Bids[0].Price, err)
		}
		ask, err := parseFloat(p.Asks[0].Price)
		if err != nil {
			return market.Tick{}, fmt.Errorf("oanda: parse ask %q: %w", p.Asks[0].Price, err)
		}
		if bid <= 0 || ask <= 0 {
			break
		}
		return market.Tick{Symbol: symbol, Time: p.Time, Bid: bid, Ask: ask}, nil
	}
	return market.Tick{}, fmt.Errorf("tick %s: %w", symbol, market.ErrQuoteUnavailable)
}

type openPositionsResponse struct {
	Positions []struct {
		Instrument string `json:"instrument"`
		Long       struct {
			Units string `json:"units"`
		} `json:"long"`
		Short struct {
			Units string `json:"units"`
		} `json:"short"`
	} `json:"positions"`
}

func (c *Client) HasOpenPosition(ctx context.Context, symbol string) (bool, error) {
	var resp openPositionsResponse
	if _, err := c.do(ctx, "GET", c.accountPath("/openPositions"), nil, nil, &resp); err != nil {
		return false, fmt.Errorf("open positions: %w", err)
	}

	for _, p := range resp.Positions {
		if Symbol(p.Instrument) != symbol {
			continue
		}
		long, _ := parseFloat(p.Long.Units)
		short, _ := parseFloat(p.Short.Units)
		if long != 0 || short != 0 {
			return true, nil
		}
	}
	return c.hasPendingEntry(ctx, symbol)
}

type pendingOrdersResponse struct {
	Orders []struct {
		Type       string `json:"type"`
		Instrument string `json:"instrument"`
	} `json:"orders"`
}

// hasPendingEntry reports a resting entry order. Stop loss and take profit
// orders attached to trades carry no instrument and are skipped.
func (c *Client) hasPendingEntry(ctx context.Context, symbol string) (bool, error) {
	var resp pendingOrdersResponse
	if _, err := c.do(ctx, "GET", c.accountPath("/pendingOrders"), nil, nil, &resp); err != nil {
		return false, fmt.Errorf("pending orders: %w", err)
	}
	for _, o := range resp.Orders {
		switch o.Type {
		case "STOP", "LIMIT", "MARKET_IF_TOUCHED":
			if Symbol(o.Instrument) == symbol {
				return true, nil
			}
		}
	}
	return false, nil
}

type tradesResponse struct {
	Trades []struct {
		ID           string    `json:"id"`
		Instrument   string    `json:"instrument"`
		InitialUnits string    `json:"initialUnits"`
		RealizedPL   string    `json:"realizedPL"`
		CloseTime    time.Time `json:"closeTime"`
	} `json:"trades"`
}

// closedTradesPage bounds how much history one lookup pulls.
const closedTradesPage = 50

func (c *Client) LastClosedTrade(ctx context.Context, symbol string, since time.Time) (broker.ClosedTrade, error) {
	q := url.Values{}
	q.Set("state", "CLOSED")
	q.Set("instrument", Instrument(symbol))
	q.Set("count", strconv.Itoa(closedTradesPage))

	var resp tradesResponse
	if _, err := c.do(ctx, "GET", c.accountPath("/trades"), q, nil, &resp); err != nil {
		return broker.ClosedTrade{}, fmt.Errorf("closed trades: %w", err)
	}

	trades := make([]broker.ClosedTrade, 0, len(resp.Trades))
	for _, t := range resp.Trades {
		units, err := parseFloat(t.InitialUnits)
		if err != nil {
			return broker.ClosedTrade{}, fmt.Errorf("oanda: parse initialUnits %q: %w", t.InitialUnits, err)
		}
		pl, err := parseFloat(t.RealizedPL)
		if err != nil {
			return broker.ClosedTrade{}, fmt.Errorf("oanda: parse realizedPL %q: %w", t.RealizedPL, err)
		}
		dir := market.Buy
		if units < 0 {
			dir = market.Sell
		}
		trades = append(trades, broker.ClosedTrade{
			ID:        t.ID,
			Symbol:    Symbol(t.Instrument),
			Direction: dir,
			Size:      math.Abs(units) / risk.UnitsPerLot,
			Profit:    pl,
			Time:      t.CloseTime,
		})
	}
	return broker.MostRecent(trades, symbol, since)
}

type priceOnFill struct {
	Price string `json:"price"`
}

type clientExtensions struct {
	ID      string `json:"id"`
	Comment string `json:"comment,omitempty"`
}

type orderSpec struct {
	Type             string           `json:"type"`
	Instrument       string           `json:"instrument"`
	Units            string           `json:"units"`
	Price            string           `json:"price,omitempty"`
	PriceBound       string           `json:"priceBound,omitempty"`
	TimeInForce      string           `json:"timeInForce"`
	PositionFill     string           `json:"positionFill"`
	StopLossOnFill   *priceOnFill     `json:"stopLossOnFill,omitempty"`
	TakeProfitOnFill *priceOnFill     `json:"takeProfitOnFill,omitempty"`
	ClientExtensions clientExtensions `json:"clientExtensions"`
}

type orderRequest struct {
	Order orderSpec `json:"order"`
}

type transaction struct {
	ID           string `json:"id"`
	Reason       string `json:"reason"`
	RejectReason string `json:"rejectReason"`
}

type orderResponse struct {
	OrderCreateTransaction *transaction `json:"orderCreateTransaction"`
	OrderFillTransaction   *transaction `json:"orderFillTransaction"`
	OrderCancelTransaction *transaction `json:"orderCancelTransaction"`
	OrderRejectTransaction *transaction `json:"orderRejectTransaction"`
	ErrorMessage           string       `json:"errorMessage"`
}

// orderBody maps a plan onto an OANDA order. Pending stop-limit entries
// become STOP orders whose price bound is the stop-limit price.
func orderBody(plan order.Plan) orderRequest {
	decimals := market.PriceDecimals(plan.Symbol)
	format := func(p float64) string { return strconv.FormatFloat(p, 'f', decimals, 64) }

	units := math.Round(plan.Size*risk.UnitsPerLot) * plan.Direction.Sign()
	spec := orderSpec{
		Instrument:       Instrument(plan.Symbol),
		Units:            strconv.FormatFloat(units, 'f', 0, 64),
		PositionFill:     "DEFAULT",
		StopLossOnFill:   &priceOnFill{Price: format(plan.StopLoss)},
		TakeProfitOnFill: &priceOnFill{Price: format(plan.TakeProfit)},
		ClientExtensions: clientExtensions{ID: id.New(), Comment: plan.Comment},
	}

	if plan.Kind.Pending() {
		spec.Type = "STOP"
		spec.Price = format(plan.Entry)
		spec.PriceBound = format(plan.StopLimit)
		spec.TimeInForce = "GTC"
	} else {
		slip := float64(plan.Deviation) * market.Point(plan.Symbol)
		spec.Type = "MARKET"
		spec.PriceBound = format(plan.Entry + plan.Direction.Sign()*slip)
		spec.TimeInForce = "FOK"
	}
	return orderRequest{Order: spec}
}

// SubmitOrder posts a plan. A broker verdict, accepted or not, comes back as
// a SubmitResult; only transport failures return an error.
func (c *Client) SubmitOrder(ctx context.Context, plan order.Plan) (broker.SubmitResult, error) {
	var resp orderResponse
	raw, err := c.do(ctx, "POST", c.accountPath("/orders"), nil, orderBody(plan), &resp)
	if err != nil {
		var ae *apiError
		if !errors.As(err, &ae) {
			return broker.SubmitResult{}, fmt.Errorf("submit %s: %w: %v", plan.Symbol, broker.ErrOrderRejected, err)
		}
		return rejection(raw, ae), nil
	}

	orderID := ""
	if resp.OrderCreateTransaction != nil {
		orderID = resp.OrderCreateTransaction.ID
	}
	if resp.OrderCancelTransaction != nil {
		return broker.NewResult(orderID, resp.OrderCancelTransaction.Reason), nil
	}
	return broker.NewResult(orderID, broker.StatusExecuted), nil
}

func rejection(raw []byte, ae *apiError) broker.SubmitResult {
	var resp orderResponse
	_ = json.Unmarshal(raw, &resp)

	comment := ae.ErrorMessage
	if resp.OrderRejectTransaction != nil && resp.OrderRejectTransaction.RejectReason != "" {
		comment = resp.OrderRejectTransaction.RejectReason
	}
	if comment == "" {
		comment = fmt.Sprintf("http %d", ae.Status)
	}
	return broker.NewResult("", comment)
}
