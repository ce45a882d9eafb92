// Package models provides domain models for options chain analysis.
package models

import (
	"time"
)

// OptionSide represents the side of an options contract.
type OptionSide string

const (
	SideCall OptionSide = "call"
	SidePut  OptionSide = "put"
)

// OptionType filters which side(s) of a chain to analyze.
type OptionType string

const (
	OptionTypeCalls OptionType = "calls"
	OptionTypePuts  OptionType = "puts"
	OptionTypeBoth  OptionType = "both"
)

// ParseOptionType parses an option type string, defaulting to both.
func ParseOptionType(s string) (OptionType, bool) {
	switch OptionType(s) {
	case OptionTypeCalls, OptionTypePuts, OptionTypeBoth:
		return OptionType(s), true
	case "":
		return OptionTypeBoth, true
	}
	return OptionTypeBoth, false
}

// Timeframe represents the active trading timeframe.
type Timeframe string

const (
	TimeframeSwing Timeframe = "swing" // 2-10 days
	TimeframeDay   Timeframe = "day"   // Intraday
	TimeframeScalp Timeframe = "scalp" // Minutes to hours
)

// ParseTimeframe parses a timeframe string.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch Timeframe(s) {
	case TimeframeSwing, TimeframeDay, TimeframeScalp:
		return Timeframe(s), true
	}
	return TimeframeSwing, false
}

// VolatilityRegime classifies recent price-range volatility.
type VolatilityRegime string

const (
	RegimeLow    VolatilityRegime = "low"    // ATR < 1.5% of price
	RegimeMedium VolatilityRegime = "medium" // ATR 1.5-3% of price
	RegimeHigh   VolatilityRegime = "high"   // ATR > 3% of price
)

// Bias represents the directional bias for a trade.
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// Candle represents a single OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Quote represents the latest price for an underlying.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
