package journal

import (
	"time"
)

// OrderRecord is one submission and its outcome.
type OrderRecord struct {
	ID         string
	Time       time.Time
	Source     string // loop|ticket|cli
	Symbol     string
	Direction  string
	Kind       string
	Size       float64
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Success    bool
	Comment    string
	OrderID    string
}

// TradeRecord is a closed trade as observed by the decision loop.
type TradeRecord struct {
	TradeID   string
	Symbol    string
	Direction string
	Size      float64
	Profit    float64
	CloseTime time.Time
	Win       bool
}

type Journal interface {
	RecordOrder(OrderRecord) error
	RecordTrade(TradeRecord) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordOrder(OrderRecord) error { return nil }
func (Nop) RecordTrade(TradeRecord) error { return nil }
func (Nop) Close() error                  { return nil }
