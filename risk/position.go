package risk

// EURUSD in a EUR account → ConversionRate = 1.0
// USDJPY in a EUR account → ConversionRate = USDEUR

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	UnitsPerLot    = 100_000 // base currency units in one standard lot
	PipValuePerLot = 10.0    // nominal USD value of one pip on one standard lot
	LotStep        = 0.01
)

type Inputs struct {
	Balance        float64
	Leverage       float64
	RiskPercent    float64 // 1 = 1% of balance
	StopLossPips   float64
	ConversionRate float64
}

type Result struct {
	MaxSize            float64 // lots affordable under leverage
	RiskRespectingSize float64 // lots that lose MoneyAtRisk at the stop
	MoneyAtRisk        float64
	PipValue           float64 // account money per pip at RiskRespectingSize
}

func (in Inputs) validate() error {
	if in.Balance <= 0 {
		return fmt.Errorf("%w: balance must be > 0 (got %v)", ErrPrecondition, in.Balance)
	}
	if in.Leverage <= 0 {
		return fmt.Errorf("%w: leverage must be > 0 (got %v)", ErrPrecondition, in.Leverage)
	}
	if in.RiskPercent <= 0 || in.RiskPercent > 100 {
		return fmt.Errorf("%w: risk percent must be in (0,100] (got %v)", ErrPrecondition, in.RiskPercent)
	}
	if in.StopLossPips <= 0 {
		return fmt.Errorf("%w: stop loss pips must be > 0 (got %v)", ErrPrecondition, in.StopLossPips)
	}
	if in.ConversionRate <= 0 {
		return fmt.Errorf("%w: conversion rate must be > 0 (got %v)", ErrPrecondition, in.ConversionRate)
	}
	return nil
}

// Calculate sizes a trade from the account balance and the stop distance.
// Values are not rounded; use Result.Rounded for display.
func Calculate(in Inputs) (Result, error) {
	if err := in.validate(); err != nil {
		return Result{}, err
	}

	maxSize := (in.Balance * in.Leverage) / (UnitsPerLot * in.ConversionRate)
	moneyAtRisk := in.Balance * (in.RiskPercent / 100)
	riskSize := moneyAtRisk / (in.StopLossPips * PipValuePerLot * in.ConversionRate)

	return Result{
		MaxSize:            maxSize,
		RiskRespectingSize: riskSize,
		MoneyAtRisk:        moneyAtRisk,
		PipValue:           riskSize * PipValuePerLot,
	}, nil
}

// TradeSize is the lot size to trade: the smaller of the two sizes, floored
// to the lot step so it never exceeds either.
func (r Result) TradeSize() float64 {
	size := r.RiskRespectingSize
	if r.MaxSize < size {
		size = r.MaxSize
	}
	return floorToStep(size)
}

// Rounded returns r with every value rounded to 2 decimals.
func (r Result) Rounded() Result {
	return Result{
		MaxSize:            round2(r.MaxSize),
		RiskRespectingSize: round2(r.RiskRespectingSize),
		MoneyAtRisk:        round2(r.MoneyAtRisk),
		PipValue:           round2(r.PipValue),
	}
}

func round2(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}

func floorToStep(x float64) float64 {
	if x <= 0 {
		return 0
	}
	f, _ := decimal.NewFromFloat(x).RoundFloor(2).Float64()
	return f
}
