package risk

import (
	"strings"
	"testing"

	"chainscope/internal/config"
	"chainscope/internal/models"
)

func fptr(v float64) *float64 { return &v }

func testConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		IVHighThreshold:     60.0,
		IVLowThreshold:      20.0,
		PCRBearishThreshold: 1.5,
		PCRBullishThreshold: 0.7,
		LiquidityWarning:    5,
		DTEShortWarning:     7,
		DTELongOpportunity:  60,
		OIConcentration:     0.30,
		IVSkewSignificant:   10.0,
		UnusualVolumeRatio:  3.0,
	}
}

func healthySide() *models.ChainAnalysis {
	return &models.ChainAnalysis{
		TotalContracts:    40,
		LiquidContracts:   20,
		TotalVolume:       5000,
		TotalOpenInterest: 20000,
		AvgIV:             35.0,
		ATMIV:             fptr(35.0),
		TopOIStrikes: []models.TopOIStrike{
			{Strike: 100, OpenInterest: 4000, IV: 35.0},
		},
	}
}

func TestAssessQuietChain(t *testing.T) {
	engine := NewEngine(testConfig())

	warnings, opportunities := engine.Assess(healthySide(), healthySide(), &models.PutCallRatio{Volume: fptr(1.0)}, 30)
	if warnings == nil || opportunities == nil {
		t.Fatal("Assess() must return empty slices, not nil")
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if len(opportunities) != 0 {
		t.Errorf("opportunities = %v, want none", opportunities)
	}
}

func TestAssessIVLevel(t *testing.T) {
	engine := NewEngine(testConfig())

	high := healthySide()
	high.AvgIV = 75.0
	warnings, _ := engine.Assess(high, nil, nil, 30)
	if !containsMsg(warnings, "High implied volatility (75.0%) - options are expensive, consider selling strategies or spreads") {
		t.Errorf("missing high IV warning, got %v", warnings)
	}

	low := healthySide()
	low.AvgIV = 15.0
	_, opportunities := engine.Assess(low, nil, nil, 30)
	if !containsMsg(opportunities, "Low implied volatility (15.0%) - options are cheap, consider buying strategies") {
		t.Errorf("missing low IV opportunity, got %v", opportunities)
	}

	// Threshold comparisons are strict: exactly 60 is not high.
	boundary := healthySide()
	boundary.AvgIV = 60.0
	warnings, _ = engine.Assess(boundary, nil, nil, 30)
	if len(warnings) != 0 {
		t.Errorf("AvgIV exactly at threshold flagged: %v", warnings)
	}
}

func TestAssessIVUsesPutsWhenCallsAbsent(t *testing.T) {
	engine := NewEngine(testConfig())

	puts := healthySide()
	puts.AvgIV = 80.0
	warnings, _ := engine.Assess(nil, puts, nil, 30)
	if !containsMsg(warnings, "High implied volatility (80.0%)") {
		t.Errorf("puts-only IV check skipped, got %v", warnings)
	}
}

func TestAssessPCR(t *testing.T) {
	engine := NewEngine(testConfig())

	warnings, _ := engine.Assess(healthySide(), healthySide(), &models.PutCallRatio{Volume: fptr(2.0)}, 30)
	if !containsMsg(warnings, "High Put/Call Volume Ratio (2.00) - bearish sentiment, heavy put buying") {
		t.Errorf("missing bearish PCR warning, got %v", warnings)
	}

	_, opportunities := engine.Assess(healthySide(), healthySide(), &models.PutCallRatio{Volume: fptr(0.30)}, 30)
	if !containsMsg(opportunities, "Low Put/Call Volume Ratio (0.30) - bullish sentiment, heavy call buying") {
		t.Errorf("missing bullish PCR opportunity, got %v", opportunities)
	}

	// Absent ratio skips the check entirely.
	warnings, opportunities = engine.Assess(healthySide(), healthySide(), nil, 30)
	if len(warnings)+len(opportunities) != 0 {
		t.Errorf("nil PCR produced assessments: %v %v", warnings, opportunities)
	}
	warnings, opportunities = engine.Assess(healthySide(), healthySide(), &models.PutCallRatio{}, 30)
	if len(warnings)+len(opportunities) != 0 {
		t.Errorf("PCR with nil volume produced assessments: %v %v", warnings, opportunities)
	}
}

func TestAssessLiquidity(t *testing.T) {
	engine := NewEngine(testConfig())

	calls := healthySide()
	calls.LiquidContracts = 3
	puts := healthySide()
	puts.LiquidContracts = 2

	warnings, _ := engine.Assess(calls, puts, nil, 30)
	if !containsMsg(warnings, "Low liquidity in calls (3 liquid contracts) - wide bid-ask spreads likely") {
		t.Errorf("missing calls liquidity warning, got %v", warnings)
	}
	if !containsMsg(warnings, "Low liquidity in puts (2 liquid contracts) - wide bid-ask spreads likely") {
		t.Errorf("missing puts liquidity warning, got %v", warnings)
	}
}

func TestAssessDTE(t *testing.T) {
	engine := NewEngine(testConfig())

	warnings, _ := engine.Assess(healthySide(), healthySide(), nil, 3)
	if !containsMsg(warnings, "Short time to expiration (3 days) - high theta decay, rapid price movement needed") {
		t.Errorf("missing short DTE warning, got %v", warnings)
	}

	_, opportunities := engine.Assess(healthySide(), healthySide(), nil, 90)
	if !containsMsg(opportunities, "Long time to expiration (90 days) - lower theta decay, suitable for longer-term positions") {
		t.Errorf("missing long DTE opportunity, got %v", opportunities)
	}
}

func TestAssessIVSkew(t *testing.T) {
	engine := NewEngine(testConfig())

	calls := healthySide()
	calls.ATMIV = fptr(30.0)
	puts := healthySide()
	puts.ATMIV = fptr(45.0)

	warnings, _ := engine.Assess(calls, puts, nil, 30)
	if !containsMsg(warnings, "Significant put skew (15.0pp) - demand for downside protection elevated") {
		t.Errorf("missing put skew warning, got %v", warnings)
	}

	calls.ATMIV = fptr(50.0)
	puts.ATMIV = fptr(35.0)
	_, opportunities := engine.Assess(calls, puts, nil, 30)
	if !containsMsg(opportunities, "Significant call skew (15.0pp) - upside positioning favored by options market") {
		t.Errorf("missing call skew opportunity, got %v", opportunities)
	}

	// Missing ATM IV on either side skips the check.
	calls.ATMIV = nil
	warnings, opportunities = engine.Assess(calls, puts, nil, 30)
	if len(warnings)+len(opportunities) != 0 {
		t.Errorf("skew check ran without both ATM IVs: %v %v", warnings, opportunities)
	}
}

func TestAssessOIConcentration(t *testing.T) {
	engine := NewEngine(testConfig())

	calls := healthySide()
	calls.TotalOpenInterest = 10000
	calls.TopOIStrikes = []models.TopOIStrike{{Strike: 150, OpenInterest: 4000, IV: 35.0}}

	warnings, _ := engine.Assess(calls, nil, nil, 30)
	if !containsMsg(warnings, "High OI concentration in calls at $150 strike (40% of total) - potential pin risk") {
		t.Errorf("missing OI concentration warning, got %v", warnings)
	}
}

func TestAssessUnusualActivity(t *testing.T) {
	engine := NewEngine(testConfig())

	puts := healthySide()
	puts.TotalVolume = 70000
	puts.TotalOpenInterest = 20000

	_, opportunities := engine.Assess(nil, puts, nil, 30)
	if !containsMsg(opportunities, "Unusual puts activity - volume/OI ratio 3.5x suggests new positioning") {
		t.Errorf("missing unusual activity opportunity, got %v", opportunities)
	}
}

func TestAssessNilSides(t *testing.T) {
	engine := NewEngine(testConfig())

	warnings, opportunities := engine.Assess(nil, nil, nil, 30)
	if warnings == nil || opportunities == nil {
		t.Fatal("Assess() must return empty slices for nil inputs")
	}
	if len(warnings)+len(opportunities) != 0 {
		t.Errorf("nil sides produced assessments: %v %v", warnings, opportunities)
	}
}

func containsMsg(msgs []string, substr string) bool {
	for _, m := range msgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}
