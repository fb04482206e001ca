package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rustyeddy/fxflip/market"
)

const YahooURL = "https://query1.finance.yahoo.com"

// priceKeys are tried in order on the chart metadata.
var priceKeys = []string{"regularMarketPrice", "price", "ask", "bid"}

// Yahoo prices FX pairs from the Yahoo Finance chart API.
type Yahoo struct {
	BaseURL string
	Client  *http.Client
}

// NewYahoo builds a Yahoo provider. proxyURL may be empty.
func NewYahoo(proxyURL string) *Yahoo {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Yahoo{
		BaseURL: YahooURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Ticker maps EURUSD to the Yahoo FX cross EURUSD=X.
func Ticker(symbol string) string {
	if strings.HasSuffix(symbol, "=X") {
		return symbol
	}
	return symbol + "=X"
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta       map[string]any `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []any `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (y *Yahoo) Price(ctx context.Context, symbol string) (float64, error) {
	p, err := y.fetch(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("yahoo %s: %w: %v", symbol, market.ErrQuoteUnavailable, err)
	}
	return p, nil
}

func (y *Yahoo) fetch(ctx context.Context, symbol string) (float64, error) {
	base := y.BaseURL
	if base == "" {
		base = YahooURL
	}
	client := y.Client
	if client == nil {
		client = http.DefaultClient
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", base, url.PathEscape(Ticker(symbol)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return 0, fmt.Errorf("api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return 0, fmt.Errorf("no data returned")
	}

	result := chart.Chart.Result[0]
	for _, k := range priceKeys {
		if p := toFloat(result.Meta[k]); p > 0 {
			return p, nil
		}
	}

	// last non-null close of the intraday series
	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if p := toFloat(closes[i]); p > 0 {
				return p, nil
			}
		}
	}
	return 0, fmt.Errorf("no price field in response")
}
