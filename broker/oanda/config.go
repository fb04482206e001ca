package oanda

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	PracticeURL = "https://api-fxpractice.oanda.com"
	LiveURL     = "https://api-fxtrade.oanda.com"
)

type Config struct {
	Environment string // practice|live
	AccountID   string
	Token       string
	Timeout     time.Duration

	// BaseURL overrides the environment URL; tests point it at httptest.
	BaseURL string

	// AllowLive must be set to trade against LiveURL.
	AllowLive bool
}

// BaseURL resolves an environment name to its REST endpoint.
func BaseURL(env string, allowLive bool) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "practice", "demo", "":
		return PracticeURL, nil
	case "live":
		if !allowLive {
			return "", errors.New("oanda: live trading not enabled")
		}
		return LiveURL, nil
	default:
		return "", fmt.Errorf("oanda: unknown env %q (want practice|live)", env)
	}
}

func (c Config) validate() error {
	if c.Token == "" {
		return errors.New("oanda: missing token")
	}
	if c.AccountID == "" {
		return errors.New("oanda: missing account id")
	}
	return nil
}
