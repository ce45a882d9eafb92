package chain

import (
	"math"
	"testing"
	"time"

	stderrors "errors"

	"chainscope/internal/errors"
	"chainscope/internal/models"
)

func fptr(v float64) *float64 { return &v }

func fixedClock(date string) func() time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestSelectExpiration(t *testing.T) {
	analyzer := NewAnalyzer(5).WithClock(fixedClock("2025-06-02"))
	expirations := []string{"2025-06-06", "2025-06-13", "2025-07-18"}

	tests := []struct {
		name        string
		expirations []string
		requested   string
		minDTE      int
		want        string
	}{
		{
			name:        "requested date honored verbatim",
			expirations: expirations,
			requested:   "2025-06-06",
			minDTE:      7,
			want:        "2025-06-06",
		},
		{
			name:        "auto-select skips near-dated expirations",
			expirations: expirations,
			minDTE:      7,
			want:        "2025-06-13",
		},
		{
			name:        "requested date not listed falls through to auto-selection",
			expirations: expirations,
			requested:   "2025-06-07",
			minDTE:      7,
			want:        "2025-06-13",
		},
		{
			name:        "min DTE zero takes the nearest",
			expirations: expirations,
			minDTE:      0,
			want:        "2025-06-06",
		},
		{
			name:        "all below min DTE falls back to furthest",
			expirations: []string{"2025-06-03", "2025-06-04"},
			minDTE:      7,
			want:        "2025-06-04",
		},
		{
			name:        "malformed dates are skipped",
			expirations: []string{"not-a-date", "2025-06-13"},
			minDTE:      7,
			want:        "2025-06-13",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := analyzer.SelectExpiration(tt.expirations, tt.requested, "AAPL", tt.minDTE)
			if err != nil {
				t.Fatalf("SelectExpiration() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SelectExpiration() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectExpirationEmpty(t *testing.T) {
	analyzer := NewAnalyzer(5)
	_, err := analyzer.SelectExpiration(nil, "", "AAPL", 7)
	if !stderrors.Is(err, errors.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestDaysToExpiration(t *testing.T) {
	analyzer := NewAnalyzer(5).WithClock(fixedClock("2025-06-02"))

	dte, err := analyzer.DaysToExpiration("2025-06-13")
	if err != nil {
		t.Fatalf("DaysToExpiration() error = %v", err)
	}
	if dte != 11 {
		t.Errorf("DaysToExpiration() = %d, want 11", dte)
	}

	if _, err := analyzer.DaysToExpiration("06/13/2025"); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for malformed date, got %v", err)
	}
}

func TestDaysToExpirationAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	// US clocks spring forward on 2026-03-08; the 23-hour day must still
	// count as a full calendar day.
	analyzer := NewAnalyzer(5).WithClock(func() time.Time {
		return time.Date(2026, 3, 7, 12, 0, 0, 0, loc)
	})

	dte, err := analyzer.DaysToExpiration("2026-03-09")
	if err != nil {
		t.Fatalf("DaysToExpiration() error = %v", err)
	}
	if dte != 2 {
		t.Errorf("DaysToExpiration() = %d, want 2", dte)
	}
}

func TestAnalyze(t *testing.T) {
	analyzer := NewAnalyzer(5)

	rows := []models.Contract{
		{Strike: 100, Side: models.SideCall, Volume: 200, OpenInterest: 1000, IV: fptr(0.30), Delta: fptr(0.62)},
		{Strike: 105, Side: models.SideCall, Volume: 150, OpenInterest: 800, IV: fptr(0.35), Delta: fptr(0.51)},
		{Strike: 110, Side: models.SideCall, Volume: 50, OpenInterest: 600, IV: fptr(0.45), Delta: fptr(0.38)},
	}

	analysis := analyzer.Analyze(rows, 104.0, 75)
	if analysis == nil {
		t.Fatal("Analyze() returned nil for non-empty rows")
	}

	if analysis.TotalContracts != 3 {
		t.Errorf("TotalContracts = %d, want 3", analysis.TotalContracts)
	}
	if analysis.LiquidContracts != 2 {
		t.Errorf("LiquidContracts = %d, want 2", analysis.LiquidContracts)
	}
	if analysis.TotalVolume != 400 {
		t.Errorf("TotalVolume = %d, want 400", analysis.TotalVolume)
	}
	if analysis.TotalOpenInterest != 2400 {
		t.Errorf("TotalOpenInterest = %d, want 2400", analysis.TotalOpenInterest)
	}

	// Aggregates cover all rows, not just the liquid subset.
	wantAvg := (30.0 + 35.0 + 45.0) / 3
	if math.Abs(analysis.AvgIV-wantAvg) > 1e-9 {
		t.Errorf("AvgIV = %.4f, want %.4f", analysis.AvgIV, wantAvg)
	}
	if analysis.MaxIV != 45.0 {
		t.Errorf("MaxIV = %.1f, want 45.0", analysis.MaxIV)
	}
	if analysis.MinIV != 30.0 {
		t.Errorf("MinIV = %.1f, want 30.0", analysis.MinIV)
	}

	// ATM is the liquid strike nearest the current price.
	if analysis.ATMStrike == nil || *analysis.ATMStrike != 105.0 {
		t.Errorf("ATMStrike = %v, want 105.0", analysis.ATMStrike)
	}
	if analysis.ATMIV == nil || math.Abs(*analysis.ATMIV-35.0) > 1e-9 {
		t.Errorf("ATMIV = %v, want 35.0", analysis.ATMIV)
	}
	if analysis.ATMDelta == nil || *analysis.ATMDelta != 0.51 {
		t.Errorf("ATMDelta = %v, want 0.51", analysis.ATMDelta)
	}

	// The 110 strike misses the volume floor and must not rank.
	if len(analysis.TopVolumeStrikes) != 2 {
		t.Fatalf("TopVolumeStrikes len = %d, want 2", len(analysis.TopVolumeStrikes))
	}
	if analysis.TopVolumeStrikes[0].Strike != 100 {
		t.Errorf("top volume strike = %.0f, want 100", analysis.TopVolumeStrikes[0].Strike)
	}
	if analysis.TopOIStrikes[0].Strike != 100 {
		t.Errorf("top OI strike = %.0f, want 100", analysis.TopOIStrikes[0].Strike)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	analyzer := NewAnalyzer(5)
	if got := analyzer.Analyze(nil, 100.0, 75); got != nil {
		t.Errorf("Analyze(nil) = %+v, want nil", got)
	}
}

func TestAnalyzeNoLiquidContracts(t *testing.T) {
	analyzer := NewAnalyzer(5)
	rows := []models.Contract{
		{Strike: 100, Side: models.SideCall, Volume: 10, IV: fptr(0.30)},
	}

	analysis := analyzer.Analyze(rows, 100.0, 75)
	if analysis == nil {
		t.Fatal("Analyze() returned nil")
	}
	if analysis.LiquidContracts != 0 {
		t.Errorf("LiquidContracts = %d, want 0", analysis.LiquidContracts)
	}
	if analysis.ATMStrike != nil {
		t.Errorf("ATMStrike = %v, want nil when no contract clears the floor", analysis.ATMStrike)
	}
	if len(analysis.TopVolumeStrikes) != 0 {
		t.Errorf("TopVolumeStrikes = %v, want empty", analysis.TopVolumeStrikes)
	}
}

func TestAnalyzeATMTieFirstWins(t *testing.T) {
	analyzer := NewAnalyzer(5)
	rows := []models.Contract{
		{Strike: 100, Side: models.SideCall, Volume: 100, IV: fptr(0.30)},
		{Strike: 110, Side: models.SideCall, Volume: 100, IV: fptr(0.40)},
	}

	analysis := analyzer.Analyze(rows, 105.0, 50)
	if analysis.ATMStrike == nil || *analysis.ATMStrike != 100.0 {
		t.Errorf("ATMStrike = %v, want first equidistant strike 100.0", analysis.ATMStrike)
	}
}

func TestFindContract(t *testing.T) {
	analyzer := NewAnalyzer(5)
	rows := []models.Contract{
		{Strike: 95, Side: models.SidePut},
		{Strike: 100, Side: models.SidePut},
		{Strike: 105, Side: models.SidePut},
	}

	got, err := analyzer.FindContract(rows, 101.0, "SPY", "buy")
	if err != nil {
		t.Fatalf("FindContract() error = %v", err)
	}
	if got.Strike != 100 {
		t.Errorf("FindContract() strike = %.0f, want 100", got.Strike)
	}

	if _, err := analyzer.FindContract(nil, 100, "SPY", "buy"); !stderrors.Is(err, errors.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable for empty rows, got %v", err)
	}
}

func TestComputePCR(t *testing.T) {
	calls := &models.ChainAnalysis{TotalVolume: 100, TotalOpenInterest: 500}
	puts := &models.ChainAnalysis{TotalVolume: 200, TotalOpenInterest: 250}

	pcr := ComputePCR(calls, puts)
	if pcr == nil {
		t.Fatal("ComputePCR() = nil, want ratios")
	}
	if pcr.Volume == nil || *pcr.Volume != 2.0 {
		t.Errorf("Volume ratio = %v, want 2.0", pcr.Volume)
	}
	if pcr.OpenInterest == nil || *pcr.OpenInterest != 0.5 {
		t.Errorf("OI ratio = %v, want 0.5", pcr.OpenInterest)
	}
}

func TestComputePCRNilRules(t *testing.T) {
	puts := &models.ChainAnalysis{TotalVolume: 200, TotalOpenInterest: 250}

	if got := ComputePCR(nil, puts); got != nil {
		t.Errorf("ComputePCR(nil, puts) = %+v, want nil", got)
	}
	if got := ComputePCR(puts, nil); got != nil {
		t.Errorf("ComputePCR(calls, nil) = %+v, want nil", got)
	}

	// Zero call-side denominators leave the individual ratios nil.
	calls := &models.ChainAnalysis{TotalVolume: 0, TotalOpenInterest: 0}
	pcr := ComputePCR(calls, puts)
	if pcr == nil {
		t.Fatal("ComputePCR() = nil, want non-nil with nil ratios")
	}
	if pcr.Volume != nil {
		t.Errorf("Volume ratio = %v, want nil for zero call volume", pcr.Volume)
	}
	if pcr.OpenInterest != nil {
		t.Errorf("OI ratio = %v, want nil for zero call OI", pcr.OpenInterest)
	}
}
