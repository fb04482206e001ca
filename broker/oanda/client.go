package oanda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the OANDA v20 REST API for a single account.
type Client struct {
	baseURL    string
	token      string
	accountID  string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	base := cfg.BaseURL
	if base == "" {
		var err error
		base, err = BaseURL(cfg.Environment, cfg.AllowLive)
		if err != nil {
			return nil, err
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		token:      cfg.Token,
		accountID:  cfg.AccountID,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// apiError is the error body OANDA returns for 4xx responses.
type apiError struct {
	Status       int
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	Body         string `json:"-"`
}

func (e *apiError) Error() string {
	if e.ErrorMessage != "" {
		return fmt.Sprintf("oanda: API error (status %d): %s", e.Status, e.ErrorMessage)
	}
	return fmt.Sprintf("oanda: API error (status %d): %s", e.Status, e.Body)
}

func (c *Client) accountPath(suffix string) string {
	return fmt.Sprintf("/v3/accounts/%s%s", url.PathEscape(c.accountID), suffix)
}

// do sends a request and decodes a 2xx JSON body into out. A non 2xx status
// is returned as *apiError; raw keeps the body for callers that need it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) (raw []byte, err error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("oanda: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("oanda: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept-Datetime-Format", "RFC3339")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oanda: execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err = io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("oanda: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ae := &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		_ = json.Unmarshal(raw, ae)
		return raw, ae
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, fmt.Errorf("oanda: decode response: %w", err)
		}
	}
	return raw, nil
}

// parseFloat parses OANDA decimal strings; empty means zero.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// Instrument converts EURUSD to EUR_USD.
func Instrument(symbol string) string {
	if len(symbol) != 6 {
		return symbol
	}
	return symbol[:3] + "_" + symbol[3:]
}

// Symbol converts EUR_USD to EURUSD.
func Symbol(instrument string) string {
	return strings.ReplaceAll(instrument, "_", "")
}
