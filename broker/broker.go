package broker

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/order"
)

var (
	// ErrNoClosedTrade means the history window holds no closed trade for
	// the symbol.
	ErrNoClosedTrade = errors.New("no closed trade")

	// ErrOrderRejected wraps submissions that did not reach a broker verdict,
	// such as a transport failure or a timeout.
	ErrOrderRejected = errors.New("order rejected")
)

// StatusExecuted is the comment a broker returns for a successful request.
const StatusExecuted = "Request executed"

// Gateway is the broker surface the trader needs.
type Gateway interface {
	Account(ctx context.Context) (Account, error)
	Tick(ctx context.Context, symbol string) (market.Tick, error)
	HasOpenPosition(ctx context.Context, symbol string) (bool, error)
	LastClosedTrade(ctx context.Context, symbol string, since time.Time) (ClosedTrade, error)
	SubmitOrder(ctx context.Context, plan order.Plan) (SubmitResult, error)
}

type Account struct {
	ID         string
	Currency   string
	Balance    float64
	FreeMargin float64
	MarginUsed float64
}

// ClosedTrade is a realized deal. Profit is signed and in account currency.
type ClosedTrade struct {
	ID        string
	Symbol    string
	Direction market.Direction
	Size      float64
	Profit    float64
	Time      time.Time
}

type SubmitResult struct {
	Success bool
	Comment string
	OrderID string
}

// NewResult builds a result whose Success follows the broker comment.
func NewResult(orderID, comment string) SubmitResult {
	return SubmitResult{
		Success: comment == StatusExecuted,
		Comment: comment,
		OrderID: orderID,
	}
}
