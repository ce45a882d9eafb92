// Package risk evaluates warnings and opportunities from analyzed options
// data. The engine is stateless: it takes analysis results and produces
// ordered, actionable assessments.
package risk

import (
	"fmt"

	"chainscope/internal/config"
	"chainscope/internal/models"
)

// Engine runs the rule-based risk assessment. Every check is independent
// and appends at most one message; no check short-circuits another.
type Engine struct {
	cfg config.AnalysisConfig
}

// NewEngine creates a risk engine with the given thresholds.
func NewEngine(cfg config.AnalysisConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Assess runs the full assessment. Either side may be nil; checks that need
// a missing input are skipped. All threshold comparisons are strict.
func (e *Engine) Assess(calls, puts *models.ChainAnalysis, pcr *models.PutCallRatio, dte int) (warnings, opportunities []string) {
	warnings = []string{}
	opportunities = []string{}

	warnings, opportunities = e.assessIV(calls, puts, warnings, opportunities)
	warnings, opportunities = e.assessPCR(pcr, warnings, opportunities)
	warnings = e.assessLiquidity(calls, puts, warnings)
	warnings, opportunities = e.assessDTE(dte, warnings, opportunities)
	warnings, opportunities = e.assessIVSkew(calls, puts, warnings, opportunities)
	warnings = e.assessOIConcentration(calls, puts, warnings)
	opportunities = e.assessUnusualActivity(calls, puts, opportunities)

	return warnings, opportunities
}

// assessIV checks the implied volatility level of the primary side (calls
// when present, puts otherwise).
func (e *Engine) assessIV(calls, puts *models.ChainAnalysis, warnings, opportunities []string) ([]string, []string) {
	primary := calls
	if primary == nil {
		primary = puts
	}
	if primary == nil {
		return warnings, opportunities
	}

	avgIV := primary.AvgIV
	if avgIV > e.cfg.IVHighThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"High implied volatility (%.1f%%) - options are expensive, consider selling strategies or spreads",
			avgIV))
	} else if avgIV < e.cfg.IVLowThreshold {
		opportunities = append(opportunities, fmt.Sprintf(
			"Low implied volatility (%.1f%%) - options are cheap, consider buying strategies",
			avgIV))
	}
	return warnings, opportunities
}

func (e *Engine) assessPCR(pcr *models.PutCallRatio, warnings, opportunities []string) ([]string, []string) {
	if pcr == nil || pcr.Volume == nil {
		return warnings, opportunities
	}

	if *pcr.Volume > e.cfg.PCRBearishThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"High Put/Call Volume Ratio (%.2f) - bearish sentiment, heavy put buying",
			*pcr.Volume))
	} else if *pcr.Volume < e.cfg.PCRBullishThreshold {
		opportunities = append(opportunities, fmt.Sprintf(
			"Low Put/Call Volume Ratio (%.2f) - bullish sentiment, heavy call buying",
			*pcr.Volume))
	}
	return warnings, opportunities
}

// assessLiquidity flags each side independently when too few contracts
// clear the volume floor.
func (e *Engine) assessLiquidity(calls, puts *models.ChainAnalysis, warnings []string) []string {
	if calls != nil && calls.LiquidContracts < e.cfg.LiquidityWarning {
		warnings = append(warnings, fmt.Sprintf(
			"Low liquidity in calls (%d liquid contracts) - wide bid-ask spreads likely",
			calls.LiquidContracts))
	}
	if puts != nil && puts.LiquidContracts < e.cfg.LiquidityWarning {
		warnings = append(warnings, fmt.Sprintf(
			"Low liquidity in puts (%d liquid contracts) - wide bid-ask spreads likely",
			puts.LiquidContracts))
	}
	return warnings
}

func (e *Engine) assessDTE(dte int, warnings, opportunities []string) ([]string, []string) {
	if dte < e.cfg.DTEShortWarning {
		warnings = append(warnings, fmt.Sprintf(
			"Short time to expiration (%d days) - high theta decay, rapid price movement needed",
			dte))
	} else if dte > e.cfg.DTELongOpportunity {
		opportunities = append(opportunities, fmt.Sprintf(
			"Long time to expiration (%d days) - lower theta decay, suitable for longer-term positions",
			dte))
	}
	return warnings, opportunities
}

// assessIVSkew compares ATM IV between puts and calls; requires both sides'
// ATM IV to be present.
func (e *Engine) assessIVSkew(calls, puts *models.ChainAnalysis, warnings, opportunities []string) ([]string, []string) {
	if calls == nil || puts == nil {
		return warnings, opportunities
	}
	if calls.ATMIV == nil || puts.ATMIV == nil {
		return warnings, opportunities
	}

	skew := *puts.ATMIV - *calls.ATMIV
	if abs(skew) > e.cfg.IVSkewSignificant {
		if skew > 0 {
			warnings = append(warnings, fmt.Sprintf(
				"Significant put skew (%.1fpp) - demand for downside protection elevated",
				skew))
		} else {
			opportunities = append(opportunities, fmt.Sprintf(
				"Significant call skew (%.1fpp) - upside positioning favored by options market",
				abs(skew)))
		}
	}
	return warnings, opportunities
}

// assessOIConcentration flags pin risk when a single strike holds an
// outsized share of a side's open interest.
func (e *Engine) assessOIConcentration(calls, puts *models.ChainAnalysis, warnings []string) []string {
	sides := []struct {
		analysis *models.ChainAnalysis
		label    string
	}{
		{calls, "calls"},
		{puts, "puts"},
	}

	for _, side := range sides {
		ca := side.analysis
		if ca == nil || ca.TotalOpenInterest == 0 || len(ca.TopOIStrikes) == 0 {
			continue
		}

		top := ca.TopOIStrikes[0]
		concentration := float64(top.OpenInterest) / float64(ca.TotalOpenInterest)
		if concentration > e.cfg.OIConcentration {
			warnings = append(warnings, fmt.Sprintf(
				"High OI concentration in %s at $%.0f strike (%.0f%% of total) - potential pin risk",
				side.label, top.Strike, concentration*100))
		}
	}
	return warnings
}

// assessUnusualActivity flags a side whose traded volume dwarfs its open
// interest, suggesting new positioning.
func (e *Engine) assessUnusualActivity(calls, puts *models.ChainAnalysis, opportunities []string) []string {
	sides := []struct {
		analysis *models.ChainAnalysis
		label    string
	}{
		{calls, "calls"},
		{puts, "puts"},
	}

	for _, side := range sides {
		ca := side.analysis
		if ca == nil || ca.TotalOpenInterest == 0 {
			continue
		}

		ratio := float64(ca.TotalVolume) / float64(ca.TotalOpenInterest)
		if ratio > e.cfg.UnusualVolumeRatio {
			opportunities = append(opportunities, fmt.Sprintf(
				"Unusual %s activity - volume/OI ratio %.1fx suggests new positioning",
				side.label, ratio))
		}
	}
	return opportunities
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
