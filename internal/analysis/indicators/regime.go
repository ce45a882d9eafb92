package indicators

import (
	"math"

	"chainscope/internal/models"
)

// RegimeFromCandles classifies the volatility regime from daily candles by
// comparing the latest ATR to the latest close. Falls back to medium when
// there are too few bars to compute the ATR; vehicle selection must not fail
// on short price histories.
func RegimeFromCandles(candles []models.Candle, period int, lowPct, highPct float64) models.VolatilityRegime {
	if len(candles) < period {
		return models.RegimeMedium
	}

	atr := NewATR(period)
	values, err := atr.Calculate(candles)
	if err != nil {
		return models.RegimeMedium
	}

	lastClose := candles[len(candles)-1].Close
	if lastClose <= 0 {
		return models.RegimeMedium
	}

	atrPct := values[len(values)-1] / lastClose * 100
	switch {
	case atrPct < lowPct:
		return models.RegimeLow
	case atrPct > highPct:
		return models.RegimeHigh
	default:
		return models.RegimeMedium
	}
}

// ExpectedMovePct estimates the percentage move over a holding period as
// ATR% scaled by the square-root-of-time rule. Returns 0 when the ATR
// cannot be computed.
func ExpectedMovePct(candles []models.Candle, period, holdingDays int) float64 {
	if len(candles) < period || holdingDays <= 0 {
		return 0
	}

	atr := NewATR(period)
	values, err := atr.Calculate(candles)
	if err != nil {
		return 0
	}

	lastClose := candles[len(candles)-1].Close
	if lastClose <= 0 {
		return 0
	}

	atrPct := values[len(values)-1] / lastClose * 100
	return atrPct * math.Sqrt(float64(holdingDays))
}
