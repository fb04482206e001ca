package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/risk"
	"github.com/rustyeddy/fxflip/trader"
)

// TicketRequest is the order form.
type TicketRequest struct {
	Symbol       string   `json:"symbol" binding:"required"`
	StopLossPips float64  `json:"stop_loss_pips" binding:"required,gt=0"`
	PendingPrice *float64 `json:"pending_price,omitempty" binding:"omitempty,gt=0"`
}

type TicketResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"` // Success|Failed
	Comment   string `json:"comment"`
	OrderID   string `json:"order_id,omitempty"`

	Symbol    string `json:"symbol"`
	Direction string `json:"direction"`
	Kind      string `json:"kind"`

	ConversionRate     float64 `json:"conversion_rate"`
	MaxSize            float64 `json:"max_size"`
	RiskRespectingSize float64 `json:"risk_respecting_size"`
	MoneyAtRisk        float64 `json:"money_at_risk"`
	PipValue           float64 `json:"pip_value"`
	Size               float64 `json:"size"`

	Entry      float64 `json:"entry"`
	StopLimit  float64 `json:"stop_limit,omitempty"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`

	Summary string `json:"summary"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
	})
}

func (h *Handler) Symbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": h.symbols})
}

func (h *Handler) Buy(c *gin.Context) {
	h.enter(c, market.Buy)
}

func (h *Handler) Sell(c *gin.Context) {
	h.enter(c, market.Sell)
}

func (h *Handler) enter(c *gin.Context, dir market.Direction) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, err, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	sym, err := market.NormalizeSymbol(req.Symbol)
	if err != nil {
		h.handleError(c, err, http.StatusBadRequest, err.Error())
		return
	}
	if !h.allowed[sym] {
		h.handleError(c, errors.New("symbol not offered"), http.StatusBadRequest, "symbol "+sym+" is not offered")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	tk, err := h.trader.Enter(ctx, trader.EntryRequest{
		Symbol:       sym,
		Direction:    dir,
		StopLossPips: req.StopLossPips,
		PendingPrice: req.PendingPrice,
		Source:       trader.SourceTicket,
	})
	if err != nil {
		status := statusFor(err)
		h.handleError(c, err, status, err.Error())
		return
	}

	c.JSON(http.StatusOK, toResponse(requestID(c), tk))
}

// statusFor maps entry errors onto HTTP codes. Anything that is not the
// caller's fault came from the broker or a quote source.
func statusFor(err error) int {
	switch {
	case errors.Is(err, trader.ErrMarginInUse):
		return http.StatusConflict
	case errors.Is(err, risk.ErrPrecondition):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func toResponse(reqID string, tk trader.Ticket) TicketResponse {
	status := "Failed"
	if tk.Result.Success {
		status = "Success"
	}
	r := tk.Sizing.Rounded()
	return TicketResponse{
		RequestID:          reqID,
		Status:             status,
		Comment:            tk.Result.Comment,
		OrderID:            tk.Result.OrderID,
		Symbol:             tk.Plan.Symbol,
		Direction:          string(tk.Plan.Direction),
		Kind:               string(tk.Plan.Kind),
		ConversionRate:     tk.ConversionRate,
		MaxSize:            r.MaxSize,
		RiskRespectingSize: r.RiskRespectingSize,
		MoneyAtRisk:        r.MoneyAtRisk,
		PipValue:           r.PipValue,
		Size:               tk.Size,
		Entry:              tk.Plan.Entry,
		StopLimit:          tk.Plan.StopLimit,
		StopLoss:           tk.Plan.StopLoss,
		TakeProfit:         tk.Plan.TakeProfit,
		Summary:            tk.Summary(),
	}
}

func (h *Handler) handleError(c *gin.Context, err error, statusCode int, userMessage string) {
	reqID := requestID(c)
	h.logger.Error("API error",
		slog.String("request_id", reqID),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
		slog.Int("status_code", statusCode),
	)
	c.JSON(statusCode, gin.H{
		"error":      userMessage,
		"request_id": reqID,
	})
}
