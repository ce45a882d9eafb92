package analysis

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chainscope/internal/config"
	"chainscope/internal/errors"
	"chainscope/internal/models"
)

func fptr(v float64) *float64 { return &v }

// fakeProvider serves canned market data keyed by symbol.
type fakeProvider struct {
	quotes      map[string]models.Quote
	expirations map[string][]string
	chains      map[string]models.OptionChain
	candles     map[string][]models.Candle
}

func (f *fakeProvider) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return models.Quote{}, errors.NewDataError(symbol, "no price data")
	}
	return q, nil
}

func (f *fakeProvider) Expirations(ctx context.Context, symbol string) ([]string, error) {
	exps, ok := f.expirations[symbol]
	if !ok {
		return nil, errors.NewDataError(symbol, "no expirations available")
	}
	return exps, nil
}

func (f *fakeProvider) Chain(ctx context.Context, symbol, expiration string) (models.OptionChain, error) {
	c, ok := f.chains[symbol]
	if !ok {
		return models.OptionChain{}, errors.NewDataError(symbol, "no chain for expiration "+expiration)
	}
	c.Expiration = expiration
	return c, nil
}

func (f *fakeProvider) Candles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	c, ok := f.candles[symbol]
	if !ok {
		return nil, errors.NewDataError(symbol, "no candle data")
	}
	return c, nil
}

func testCandles(n int, price, dailyRange float64) []models.Candle {
	candles := make([]models.Candle, n)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i] = models.Candle{
			Timestamp: base.AddDate(0, 0, i),
			Open:      price,
			High:      price + dailyRange/2,
			Low:       price - dailyRange/2,
			Close:     price,
			Volume:    1_000_000,
		}
	}
	return candles
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func testProvider() *fakeProvider {
	calls := []models.Contract{
		{Strike: 100, Side: models.SideCall, Volume: 300, OpenInterest: 2000, IV: fptr(0.30), Bid: fptr(5.00), Ask: fptr(5.20), Delta: fptr(0.60)},
		{Strike: 105, Side: models.SideCall, Volume: 250, OpenInterest: 1500, IV: fptr(0.34), Bid: fptr(2.60), Ask: fptr(2.80), Delta: fptr(0.48)},
		{Strike: 110, Side: models.SideCall, Volume: 100, OpenInterest: 900, IV: fptr(0.40), Bid: fptr(1.00), Ask: fptr(1.15), Delta: fptr(0.30)},
	}
	puts := []models.Contract{
		{Strike: 95, Side: models.SidePut, Volume: 150, OpenInterest: 1200, IV: fptr(0.36), Bid: fptr(1.10), Ask: fptr(1.25), Delta: fptr(-0.25)},
		{Strike: 100, Side: models.SidePut, Volume: 200, OpenInterest: 1800, IV: fptr(0.38), Bid: fptr(2.40), Ask: fptr(2.55), Delta: fptr(-0.42)},
	}

	return &fakeProvider{
		quotes: map[string]models.Quote{
			"AAPL": {Symbol: "AAPL", Price: 104.0, Timestamp: time.Now()},
		},
		expirations: map[string][]string{
			"AAPL": {futureDate(3), futureDate(14), futureDate(45)},
		},
		chains: map[string]models.OptionChain{
			"AAPL": {Symbol: "AAPL", Calls: calls, Puts: puts},
		},
		candles: map[string][]models.Candle{
			"AAPL": testCandles(40, 104.0, 2.5),
		},
	}
}

func testService(provider *fakeProvider) *Service {
	cfg := &config.Config{}
	cfg.Analysis = config.AnalysisConfig{
		DefaultMinVolume:    75,
		TopStrikesLimit:     5,
		MaxExpirations:      10,
		DefaultMinDTE:       7,
		SummaryMinDTE:       1,
		SpreadMinDTE:        1,
		IVHighThreshold:     60,
		IVLowThreshold:      20,
		PCRBearishThreshold: 1.5,
		PCRBullishThreshold: 0.7,
		LiquidityWarning:    5,
		DTEShortWarning:     7,
		DTELongOpportunity:  60,
		OIConcentration:     0.30,
		IVSkewSignificant:   10.0,
		UnusualVolumeRatio:  3.0,
	}
	cfg.Vehicle = config.VehicleConfig{
		MinExpectedMove:   3.0,
		SwingMinDTE:       30,
		SwingMaxDTE:       45,
		CallDeltaMin:      0.40,
		CallDeltaMax:      0.60,
		PutDeltaMin:       -0.60,
		PutDeltaMax:       -0.40,
		ATRPeriod:         14,
		VolatilityLowPct:  1.5,
		VolatilityHighPct: 3.0,
	}
	return NewService(provider, cfg, zerolog.Nop())
}

func TestRiskAnalysis(t *testing.T) {
	svc := testService(testProvider())

	resp, err := svc.RiskAnalysis(context.Background(), RiskRequest{Symbol: "aapl"})
	if err != nil {
		t.Fatalf("RiskAnalysis() error = %v", err)
	}

	if resp.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want normalized AAPL", resp.Symbol)
	}
	if resp.CurrentPrice != 104.0 {
		t.Errorf("CurrentPrice = %.2f, want 104.00", resp.CurrentPrice)
	}
	// The 3-DTE expiration is skipped by the default minimum.
	if resp.ExpirationDate != futureDate(14) {
		t.Errorf("ExpirationDate = %q, want %q", resp.ExpirationDate, futureDate(14))
	}
	if resp.Calls == nil || resp.Puts == nil {
		t.Fatal("both chain sides expected")
	}
	if resp.Calls.TotalContracts != 3 || resp.Puts.TotalContracts != 2 {
		t.Errorf("contract counts = %d/%d, want 3/2", resp.Calls.TotalContracts, resp.Puts.TotalContracts)
	}
	if resp.PutCallRatio == nil || resp.PutCallRatio.Volume == nil {
		t.Fatal("put/call ratio expected")
	}
	if resp.RiskWarnings == nil || resp.Opportunities == nil {
		t.Error("assessment slices must not be nil")
	}
	if resp.LiquidityThreshold != 75 {
		t.Errorf("LiquidityThreshold = %d, want config default 75", resp.LiquidityThreshold)
	}
}

func TestRiskAnalysisOptionTypeFilter(t *testing.T) {
	svc := testService(testProvider())

	resp, err := svc.RiskAnalysis(context.Background(), RiskRequest{Symbol: "AAPL", OptionType: models.OptionTypeCalls})
	if err != nil {
		t.Fatalf("RiskAnalysis() error = %v", err)
	}
	if resp.Calls == nil {
		t.Error("calls analysis missing")
	}
	if resp.Puts != nil {
		t.Error("puts analysis present despite calls-only filter")
	}
	if resp.PutCallRatio != nil {
		t.Error("PCR present despite single-side filter")
	}
}

func TestRiskAnalysisValidation(t *testing.T) {
	svc := testService(testProvider())

	if _, err := svc.RiskAnalysis(context.Background(), RiskRequest{Symbol: "  "}); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("blank symbol err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.RiskAnalysis(context.Background(), RiskRequest{Symbol: "MISSING"}); !stderrors.Is(err, errors.ErrDataUnavailable) {
		t.Errorf("unknown symbol err = %v, want ErrDataUnavailable", err)
	}
}

func TestSummary(t *testing.T) {
	svc := testService(testProvider())

	resp, err := svc.Summary(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	// Summary tolerates near-dated expirations.
	if resp.NearestExpiration != futureDate(3) {
		t.Errorf("NearestExpiration = %q, want %q", resp.NearestExpiration, futureDate(3))
	}
	// PCR volume = 350/650, below the bullish threshold.
	if resp.Sentiment != "bullish" {
		t.Errorf("Sentiment = %q, want bullish", resp.Sentiment)
	}
	if resp.RiskLevel != "medium" {
		t.Errorf("RiskLevel = %q, want medium", resp.RiskLevel)
	}
	if resp.TotalCallVolume != 650 {
		t.Errorf("TotalCallVolume = %d, want 650", resp.TotalCallVolume)
	}
	if resp.TotalPutVolume != 350 {
		t.Errorf("TotalPutVolume = %d, want 350", resp.TotalPutVolume)
	}
}

func TestVehicleSelection(t *testing.T) {
	svc := testService(testProvider())

	resp, err := svc.VehicleSelection(context.Background(), VehicleRequest{
		Symbol:    "AAPL",
		Timeframe: models.TimeframeSwing,
		Bias:      models.BiasBullish,
	})
	if err != nil {
		t.Fatalf("VehicleSelection() error = %v", err)
	}

	// Daily range 2.5 on a 104 close is ~2.4% ATR: medium regime, and the
	// 5-day expected move clears the options threshold.
	if resp.VolatilityRegime != models.RegimeMedium {
		t.Errorf("VolatilityRegime = %q, want medium", resp.VolatilityRegime)
	}
	if resp.Vehicle != models.VehicleOptionCall {
		t.Errorf("Vehicle = %q, want option_call", resp.Vehicle)
	}
}

func TestVehicleSelectionExplicitMove(t *testing.T) {
	svc := testService(testProvider())

	resp, err := svc.VehicleSelection(context.Background(), VehicleRequest{
		Symbol:          "AAPL",
		Timeframe:       models.TimeframeSwing,
		Bias:            models.BiasBullish,
		ExpectedMovePct: fptr(1.0),
	})
	if err != nil {
		t.Fatalf("VehicleSelection() error = %v", err)
	}
	if resp.Vehicle != models.VehicleStock {
		t.Errorf("Vehicle = %q, want stock when the caller's move estimate is small", resp.Vehicle)
	}
}

func TestCompare(t *testing.T) {
	provider := testProvider()
	provider.quotes["MSFT"] = models.Quote{Symbol: "MSFT", Price: 420.0}
	provider.expirations["MSFT"] = []string{futureDate(10)}
	provider.chains["MSFT"] = models.OptionChain{
		Symbol: "MSFT",
		Calls: []models.Contract{
			{Strike: 420, Side: models.SideCall, Volume: 500, OpenInterest: 3000, IV: fptr(0.50)},
		},
		Puts: []models.Contract{
			{Strike: 415, Side: models.SidePut, Volume: 100, OpenInterest: 800, IV: fptr(0.52)},
		},
	}
	svc := testService(provider)

	resp, err := svc.Compare(context.Background(), []string{"AAPL", "MSFT", "BROKEN"}, "iv")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(resp.Symbols) != 2 {
		t.Fatalf("Symbols len = %d, want 2", len(resp.Symbols))
	}
	// MSFT's 50% ATM IV outranks AAPL's.
	if resp.Symbols[0].Symbol != "MSFT" {
		t.Errorf("top symbol = %q, want MSFT", resp.Symbols[0].Symbol)
	}
	if len(resp.Errors) != 1 || !strings.HasPrefix(resp.Errors[0], "BROKEN:") {
		t.Errorf("Errors = %v, want one BROKEN entry", resp.Errors)
	}
	if resp.Metric != "iv" {
		t.Errorf("Metric = %q, want iv", resp.Metric)
	}
}

func TestCompareAllFail(t *testing.T) {
	svc := testService(testProvider())

	_, err := svc.Compare(context.Background(), []string{"NOPE", "NADA"}, "volume")
	if !stderrors.Is(err, errors.ErrDataUnavailable) {
		t.Errorf("all-fail err = %v, want ErrDataUnavailable", err)
	}
}

func TestCompareUnknownMetricDefaultsToIV(t *testing.T) {
	svc := testService(testProvider())

	resp, err := svc.Compare(context.Background(), []string{"AAPL"}, "bogus")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if resp.Metric != "iv" {
		t.Errorf("Metric = %q, want iv fallback", resp.Metric)
	}
}

func TestSpreadTrade(t *testing.T) {
	svc := testService(testProvider())

	resp, err := svc.SpreadTrade(context.Background(), SpreadRequest{
		Symbol:     "AAPL",
		SpreadType: models.SpreadBullCall,
		BuyStrike:  100,
		SellStrike: 105,
	})
	if err != nil {
		t.Fatalf("SpreadTrade() error = %v", err)
	}

	if resp.BuyStrike != 100 || resp.SellStrike != 105 {
		t.Errorf("strikes = %.0f/%.0f, want 100/105", resp.BuyStrike, resp.SellStrike)
	}
	// Net debit = buy ask 5.20 - sell bid 2.60.
	if resp.NetPremium != 2.60 {
		t.Errorf("NetPremium = %.2f, want 2.60", resp.NetPremium)
	}
	if resp.Contracts != 1 {
		t.Errorf("Contracts = %d, want default 1", resp.Contracts)
	}
	if resp.AIInsight != nil {
		t.Error("AIInsight present without generator")
	}
}

func TestSpreadTradePutSideSelection(t *testing.T) {
	svc := testService(testProvider())

	resp, err := svc.SpreadTrade(context.Background(), SpreadRequest{
		Symbol:     "AAPL",
		SpreadType: models.SpreadBullPutCredit,
		BuyStrike:  95,
		SellStrike: 100,
	})
	if err != nil {
		t.Fatalf("SpreadTrade() error = %v", err)
	}

	// Legs resolve from the puts chain: credit = sell bid 2.40 - buy ask 1.25.
	if resp.NetPremium != 1.15 {
		t.Errorf("NetPremium = %.2f, want 1.15", resp.NetPremium)
	}
	if !resp.IsCredit {
		t.Error("IsCredit = false, want true")
	}
}

func TestSpreadTradeRejectsMultiLeg(t *testing.T) {
	svc := testService(testProvider())

	_, err := svc.SpreadTrade(context.Background(), SpreadRequest{
		Symbol:     "AAPL",
		SpreadType: models.SpreadIronCondor,
		BuyStrike:  95,
		SellStrike: 100,
	})
	if !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("iron_condor err = %v, want ErrInvalidInput", err)
	}
}
