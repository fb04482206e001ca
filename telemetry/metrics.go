package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics are the trading instruments. A nil *Metrics records nothing.
type Metrics struct {
	cycles        metric.Int64Counter
	orders        metric.Int64Counter
	rejections    metric.Int64Counter
	trades        metric.Int64Counter
	profit        metric.Float64Histogram
	quoteFailures metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	if m.cycles, err = meter.Int64Counter("fxflip.loop.cycles",
		metric.WithDescription("Decision loop cycles by outcome")); err != nil {
		return nil, err
	}
	if m.orders, err = meter.Int64Counter("fxflip.orders.submitted",
		metric.WithDescription("Orders sent to the broker")); err != nil {
		return nil, err
	}
	if m.rejections, err = meter.Int64Counter("fxflip.orders.rejected",
		metric.WithDescription("Orders the broker did not execute")); err != nil {
		return nil, err
	}
	if m.trades, err = meter.Int64Counter("fxflip.trades.closed",
		metric.WithDescription("Closed trades by result")); err != nil {
		return nil, err
	}
	if m.profit, err = meter.Float64Histogram("fxflip.trades.profit",
		metric.WithDescription("Realized profit per closed trade"),
		metric.WithUnit("{account_currency}")); err != nil {
		return nil, err
	}
	if m.quoteFailures, err = meter.Int64Counter("fxflip.quotes.failed",
		metric.WithDescription("Quote lookups that returned no price")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) Cycle(ctx context.Context, symbol, outcome string) {
	if m == nil {
		return
	}
	m.cycles.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) Order(ctx context.Context, symbol, kind string, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("kind", kind),
	)
	m.orders.Add(ctx, 1, attrs)
	if !success {
		m.rejections.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) Trade(ctx context.Context, symbol string, profit float64) {
	if m == nil {
		return
	}
	result := "win"
	if profit < 0 {
		result = "loss"
	}
	m.trades.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("result", result),
	))
	m.profit.Record(ctx, profit, metric.WithAttributes(attribute.String("symbol", symbol)))
}

func (m *Metrics) QuoteFailure(ctx context.Context, symbol string) {
	if m == nil {
		return
	}
	m.quoteFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", symbol)))
}
