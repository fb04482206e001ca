package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})
	m, err := NewMetrics(provider.Meter("telemetry-test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, r *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, r.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sum(t *testing.T, agg metricdata.Aggregation, attr attribute.KeyValue) int64 {
	t.Helper()
	s, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "not an int64 sum: %T", agg)

	var total int64
	for _, dp := range s.DataPoints {
		if v, ok := dp.Attributes.Value(attr.Key); ok && v == attr.Value {
			total += dp.Value
		}
	}
	return total
}

func TestMetrics_Record(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.Cycle(ctx, "USDJPY", "submitted")
	m.Cycle(ctx, "USDJPY", "position_open")
	m.Cycle(ctx, "USDJPY", "position_open")
	m.Order(ctx, "USDJPY", "market-sell", true)
	m.Order(ctx, "USDJPY", "market-buy", false)
	m.Trade(ctx, "USDJPY", -5)
	m.Trade(ctx, "USDJPY", 0)
	m.QuoteFailure(ctx, "USDEUR")

	got := collect(t, reader)

	assert.Equal(t, int64(2), sum(t, got["fxflip.loop.cycles"], attribute.String("outcome", "position_open")))
	assert.Equal(t, int64(2), sum(t, got["fxflip.orders.submitted"], attribute.String("symbol", "USDJPY")))
	assert.Equal(t, int64(1), sum(t, got["fxflip.orders.rejected"], attribute.String("kind", "market-buy")))
	assert.Equal(t, int64(1), sum(t, got["fxflip.trades.closed"], attribute.String("result", "loss")))
	assert.Equal(t, int64(1), sum(t, got["fxflip.trades.closed"], attribute.String("result", "win")))
	assert.Equal(t, int64(1), sum(t, got["fxflip.quotes.failed"], attribute.String("symbol", "USDEUR")))

	h, ok := got["fxflip.trades.profit"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, uint64(2), h.DataPoints[0].Count)
	assert.Equal(t, -5.0, h.DataPoints[0].Sum)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.Cycle(ctx, "EURUSD", "x")
	m.Order(ctx, "EURUSD", "market-buy", true)
	m.Trade(ctx, "EURUSD", 1)
	m.QuoteFailure(ctx, "EURUSD")
}

func TestSetup_NoEndpoint(t *testing.T) {
	p, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	require.NotNil(t, p.Meter)

	m, err := NewMetrics(p.Meter)
	require.NoError(t, err)
	m.Cycle(context.Background(), "EURUSD", "submitted")
	assert.NoError(t, p.Shutdown(context.Background()))
}
