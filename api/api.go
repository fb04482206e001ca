package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/fxflip/trader"
)

const (
	DefaultTimeout      = 30 * time.Second
	ServiceName         = "fxflip-ticket"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// Enterer runs one entry. *trader.Trader satisfies it.
type Enterer interface {
	Enter(ctx context.Context, req trader.EntryRequest) (trader.Ticket, error)
}

// Handler serves the order ticket: pick a pair, set a stop, click buy or sell.
type Handler struct {
	trader  Enterer
	symbols []string
	allowed map[string]bool
	version string
	logger  *slog.Logger
}

func NewHandler(t Enterer, symbols []string, version string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		allowed[s] = true
	}
	return &Handler{
		trader:  t,
		symbols: append([]string(nil), symbols...),
		allowed: allowed,
		version: version,
		logger:  logger,
	}
}

// Routes builds the gin engine. Callers pick the gin mode.
func (h *Handler) Routes() *gin.Engine {
	router := gin.New()

	router.Use(requestIDMiddleware())
	router.Use(h.loggerMiddleware())
	router.Use(gin.Recovery())

	router.GET("/health", h.Health)
	router.GET("/symbols", h.Symbols)
	router.POST("/buy", h.Buy)
	router.POST("/sell", h.Sell)

	return router
}
