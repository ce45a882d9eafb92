// Package vehicle implements the stock-vs-options decision tree. The
// approach is stock-first: options are suggested only for swing trades with
// a sufficient expected move, and always with concrete DTE and delta
// guidance.
package vehicle

import (
	"fmt"

	"chainscope/internal/config"
	"chainscope/internal/models"
)

// Selector picks the trade vehicle. Stateless; first matching rule wins:
//
//  1. Non-swing trades -> STOCK
//  2. Expected move below threshold -> STOCK
//  3. Medium volatility -> directional option (call/put)
//  4. High volatility -> vertical spread
//  5. Low volatility -> STOCK
type Selector struct {
	cfg config.VehicleConfig
}

// NewSelector creates a selector with the given thresholds.
func NewSelector(cfg config.VehicleConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Select returns the vehicle recommendation for the given trade parameters.
func (s *Selector) Select(timeframe models.Timeframe, regime models.VolatilityRegime, bias models.Bias, expectedMovePct float64) models.VehicleRecommendation {
	if timeframe != models.TimeframeSwing {
		return models.VehicleRecommendation{
			Vehicle:   models.VehicleStock,
			Reasoning: fmt.Sprintf("%s trades default to stock for liquidity", timeframe),
		}
	}

	if expectedMovePct < s.cfg.MinExpectedMove {
		return models.VehicleRecommendation{
			Vehicle: models.VehicleStock,
			Reasoning: fmt.Sprintf("Expected move (%.1f%%) below %g%% threshold for options",
				expectedMovePct, s.cfg.MinExpectedMove),
			ExpectedMovePct: &expectedMovePct,
		}
	}

	dteRange := &models.IntRange{Min: s.cfg.SwingMinDTE, Max: s.cfg.SwingMaxDTE}

	if regime == models.RegimeMedium {
		if bias == models.BiasBullish {
			return models.VehicleRecommendation{
				Vehicle:         models.VehicleOptionCall,
				Reasoning:       "Consider ATM calls for directional bullish play",
				DTERange:        dteRange,
				DeltaRange:      &models.FloatRange{Min: s.cfg.CallDeltaMin, Max: s.cfg.CallDeltaMax},
				ExpectedMovePct: &expectedMovePct,
			}
		}
		return models.VehicleRecommendation{
			Vehicle:         models.VehicleOptionPut,
			Reasoning:       "Consider ATM puts for directional bearish play",
			DTERange:        dteRange,
			DeltaRange:      &models.FloatRange{Min: s.cfg.PutDeltaMin, Max: s.cfg.PutDeltaMax},
			ExpectedMovePct: &expectedMovePct,
		}
	}

	if regime == models.RegimeHigh {
		widthInfo := fmt.Sprintf("Width typically 1x ATR equivalent for %.1f%% expected move", expectedMovePct)
		if bias == models.BiasBullish {
			return models.VehicleRecommendation{
				Vehicle:         models.VehicleOptionSpread,
				Reasoning:       "High volatility suitable for spreads; consider bull call spread for defined risk",
				DTERange:        dteRange,
				DeltaRange:      &models.FloatRange{Min: s.cfg.CallDeltaMin, Max: s.cfg.CallDeltaMax},
				SpreadType:      "Bull Call Spread",
				SpreadWidthInfo: widthInfo,
				ExpectedMovePct: &expectedMovePct,
			}
		}
		return models.VehicleRecommendation{
			Vehicle:         models.VehicleOptionSpread,
			Reasoning:       "High volatility suitable for spreads; consider bear put spread for defined risk",
			DTERange:        dteRange,
			DeltaRange:      &models.FloatRange{Min: s.cfg.PutDeltaMin, Max: s.cfg.PutDeltaMax},
			SpreadType:      "Bear Put Spread",
			SpreadWidthInfo: widthInfo,
			ExpectedMovePct: &expectedMovePct,
		}
	}

	return models.VehicleRecommendation{
		Vehicle:         models.VehicleStock,
		Reasoning:       "Low volatility - options premiums too cheap, stock more efficient",
		ExpectedMovePct: &expectedMovePct,
	}
}
